package db

import (
	"database/sql"
	"fmt"
	"time"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// PartyRecord is the persisted form of a party. Seats is a JSON-encoded seat
// list so the schema never has to change when seat metadata grows.
type PartyRecord struct {
	ID        string
	Seats     string
	Status    string
	Winner    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoundRecord is the persisted form of a round. Outcome is a JSON-encoded
// call outcome, empty while the round is still in progress.
type RoundRecord struct {
	ID          string
	PartyID     string
	Number      int
	Phase       string
	Turn        int
	GoldenScore bool
	Outcome     string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	// Create parties table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS parties (
			id TEXT PRIMARY KEY,
			seats TEXT NOT NULL,
			status TEXT NOT NULL,
			winner INTEGER NOT NULL DEFAULT -1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Create rounds table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			party_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			phase TEXT NOT NULL,
			turn INTEGER NOT NULL,
			golden_score INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP,
			UNIQUE (party_id, number),
			FOREIGN KEY (party_id) REFERENCES parties(id)
		)
	`)
	if err != nil {
		return err
	}

	return nil
}

// SaveParty inserts or updates a party record
func (db *DB) SaveParty(p *PartyRecord) error {
	_, err := db.Exec(`
		INSERT INTO parties (id, seats, status, winner, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			seats = excluded.seats,
			status = excluded.status,
			winner = excluded.winner,
			updated_at = CURRENT_TIMESTAMP
	`, p.ID, p.Seats, p.Status, p.Winner, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save party %s: %v", p.ID, err)
	}
	return nil
}

// LoadParty returns the party record for the given id
func (db *DB) LoadParty(partyID string) (*PartyRecord, error) {
	p := &PartyRecord{}
	err := db.QueryRow(`
		SELECT id, seats, status, winner, created_at, updated_at
		FROM parties WHERE id = ?
	`, partyID).Scan(&p.ID, &p.Seats, &p.Status, &p.Winner, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("party %s not found", partyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load party %s: %v", partyID, err)
	}
	return p, nil
}

// SaveRound inserts or updates a round record
func (db *DB) SaveRound(r *RoundRecord) error {
	var finishedAt interface{}
	if r.FinishedAt != nil {
		finishedAt = *r.FinishedAt
	}
	_, err := db.Exec(`
		INSERT INTO rounds (id, party_id, number, phase, turn, golden_score, outcome, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			turn = excluded.turn,
			golden_score = excluded.golden_score,
			outcome = excluded.outcome,
			finished_at = excluded.finished_at
	`, r.ID, r.PartyID, r.Number, r.Phase, r.Turn, r.GoldenScore, r.Outcome, r.StartedAt, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to save round %s: %v", r.ID, err)
	}
	return nil
}

// LoadLatestRound returns the highest-numbered round of a party
func (db *DB) LoadLatestRound(partyID string) (*RoundRecord, error) {
	r := &RoundRecord{}
	var finishedAt sql.NullTime
	err := db.QueryRow(`
		SELECT id, party_id, number, phase, turn, golden_score, outcome, started_at, finished_at
		FROM rounds WHERE party_id = ?
		ORDER BY number DESC LIMIT 1
	`, partyID).Scan(&r.ID, &r.PartyID, &r.Number, &r.Phase, &r.Turn, &r.GoldenScore, &r.Outcome, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no rounds for party %s", partyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest round for party %s: %v", partyID, err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// GetActivePartyIDs returns the ids of all parties that have not finished
func (db *DB) GetActivePartyIDs() ([]string, error) {
	rows, err := db.Query(`SELECT id FROM parties WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active parties: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

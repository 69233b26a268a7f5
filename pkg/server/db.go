package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zapzapgame/zapzap/pkg/game"
	"github.com/zapzapgame/zapzap/pkg/server/internal/db"
)

// Database defines the interface for durable party and round records
type Database interface {
	SaveParty(p *db.PartyRecord) error
	LoadParty(partyID string) (*db.PartyRecord, error)

	SaveRound(r *db.RoundRecord) error
	LoadLatestRound(partyID string) (*db.RoundRecord, error)

	// Party discovery on startup
	GetActivePartyIDs() ([]string, error)

	// Close closes the database connection
	Close() error
}

// GameStateStore keeps the live state snapshot of each in-flight party.
// LoadState returns (nil, nil) when no snapshot exists.
type GameStateStore interface {
	SaveState(ctx context.Context, partyID string, st *game.State) error
	LoadState(ctx context.Context, partyID string) (*game.State, error)
	DeleteState(ctx context.Context, partyID string) error
	Close() error
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string) (Database, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	return db.NewDB(dbPath)
}

// partyToRecord converts a party to its persisted form
func partyToRecord(party *game.Party) (*db.PartyRecord, error) {
	seats, err := json.Marshal(party.Seats)
	if err != nil {
		return nil, fmt.Errorf("marshal seats: %v", err)
	}
	return &db.PartyRecord{
		ID:        party.ID,
		Seats:     string(seats),
		Status:    string(party.Status),
		Winner:    party.Winner,
		CreatedAt: party.CreatedAt,
	}, nil
}

// partyFromRecord rebuilds a party from its persisted form
func partyFromRecord(rec *db.PartyRecord) (*game.Party, error) {
	var seats []game.Seat
	if err := json.Unmarshal([]byte(rec.Seats), &seats); err != nil {
		return nil, fmt.Errorf("unmarshal seats for party %s: %v", rec.ID, err)
	}
	return &game.Party{
		ID:        rec.ID,
		Seats:     seats,
		Status:    game.PartyStatus(rec.Status),
		Winner:    rec.Winner,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// roundToRecord converts a round to its persisted form. The golden flag
// lives on the state, not the round, so it is passed alongside.
func roundToRecord(round *game.Round, golden bool) (*db.RoundRecord, error) {
	outcome := ""
	if round.Outcome != nil {
		data, err := json.Marshal(round.Outcome)
		if err != nil {
			return nil, fmt.Errorf("marshal outcome: %v", err)
		}
		outcome = string(data)
	}
	rec := &db.RoundRecord{
		ID:          round.ID,
		PartyID:     round.PartyID,
		Number:      round.Number,
		Phase:       round.Phase.String(),
		Turn:        round.Turn,
		GoldenScore: golden,
		Outcome:     outcome,
		StartedAt:   round.StartedAt,
	}
	if !round.FinishedAt.IsZero() {
		t := round.FinishedAt
		rec.FinishedAt = &t
	}
	return rec, nil
}

// roundFromRecord rebuilds a round from its persisted form
func roundFromRecord(rec *db.RoundRecord) (*game.Round, error) {
	phase, err := game.ParsePhase(rec.Phase)
	if err != nil {
		return nil, fmt.Errorf("round %s: %v", rec.ID, err)
	}
	round := &game.Round{
		ID:        rec.ID,
		PartyID:   rec.PartyID,
		Number:    rec.Number,
		Phase:     phase,
		Turn:      rec.Turn,
		StartedAt: rec.StartedAt,
	}
	if rec.Outcome != "" {
		out := &game.CallOutcome{}
		if err := json.Unmarshal([]byte(rec.Outcome), out); err != nil {
			return nil, fmt.Errorf("unmarshal outcome for round %s: %v", rec.ID, err)
		}
		round.Outcome = out
	}
	if rec.FinishedAt != nil {
		round.FinishedAt = *rec.FinishedAt
	}
	return round, nil
}

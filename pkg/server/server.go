package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/zapzapgame/zapzap/pkg/game"
	"github.com/zapzapgame/zapzap/pkg/logging"
)

var (
	// ErrUnknownParty is returned when a party id is not tracked by the server.
	ErrUnknownParty = errors.New("unknown party")
	// ErrNotInParty is returned when a user holds no seat in the party.
	ErrNotInParty = errors.New("user not seated in party")
	// ErrPartyOver is returned for actions submitted to a finished party.
	ErrPartyOver = errors.New("party already finished")
)

// partyEntry is the in-memory view of one party. Its mutex serializes every
// action against that party, so the load-apply-persist cycle is atomic per
// party while distinct parties proceed in parallel.
type partyEntry struct {
	mu    sync.Mutex
	party *game.Party
	round *game.Round
}

// Server coordinates all live parties: it validates submitted actions
// against the round state, persists every committed transition, advances
// parties between rounds, and publishes events for bots and observers.
type Server struct {
	log        slog.Logger
	logBackend *logging.LogBackend
	db         Database
	states     GameStateStore

	parties map[string]*partyEntry
	mu      sync.RWMutex

	// rng seeds a child generator per deal so concurrent parties never
	// contend on one rand source.
	rng   *rand.Rand
	rngMu sync.Mutex

	eventProcessor *EventProcessor
}

// ServerConfig carries the server's dependencies.
type ServerConfig struct {
	DB         Database
	States     GameStateStore
	LogBackend *logging.LogBackend

	// Seed for the deal shuffler. Zero means seed from the clock.
	Seed int64

	EventQueueSize int
	EventWorkers   int
}

// NewServer creates a new game server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("server requires a database")
	}
	if cfg.States == nil {
		return nil, fmt.Errorf("server requires a game state store")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	queueSize := cfg.EventQueueSize
	if queueSize == 0 {
		queueSize = 1000
	}
	workers := cfg.EventWorkers
	if workers == 0 {
		workers = 3
	}

	server := &Server{
		log:        cfg.LogBackend.Logger("SERVER"),
		logBackend: cfg.LogBackend,
		db:         cfg.DB,
		states:     cfg.States,
		parties:    make(map[string]*partyEntry),
		rng:        rand.New(rand.NewSource(seed)),
	}

	server.eventProcessor = NewEventProcessor(cfg.LogBackend.Logger("EVNT"), queueSize, workers)
	server.eventProcessor.Start()

	return server, nil
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	if s.eventProcessor != nil {
		s.eventProcessor.Stop()
	}
}

// RegisterHandler subscribes a handler to the server's event stream.
func (s *Server) RegisterHandler(handler EventHandler) {
	s.eventProcessor.RegisterHandler(handler)
}

// Publish puts an event on the processing queue.
func (s *Server) Publish(event *GameEvent) {
	s.eventProcessor.PublishEvent(event)
}

// childRNG derives an independent generator for one deal.
func (s *Server) childRNG() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

// entry returns the tracked party, or ErrUnknownParty.
func (s *Server) entry(partyID string) (*partyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.parties[partyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParty, partyID)
	}
	return e, nil
}

// CreateParty starts a new party over the given seats. The first round is
// created immediately with seat 0 to pick the hand size.
func (s *Server) CreateParty(ctx context.Context, seats []game.Seat) (*game.Party, error) {
	if len(seats) < 2 {
		return nil, fmt.Errorf("a party needs at least 2 seats, got %d", len(seats))
	}
	// Every seat must be dealable at the smallest hand size, flip included.
	if minSize, _ := game.HandSizeRange(false); len(seats)*minSize+1 > game.NumCards {
		return nil, fmt.Errorf("%d seats cannot be dealt from a %d-card deck", len(seats), game.NumCards)
	}
	for i, seat := range seats {
		if seat.UserID == "" {
			return nil, fmt.Errorf("seat %d has no user", i)
		}
	}

	party := game.NewParty(seats)
	round := game.NewRound(party.ID, 1, 0)
	state := game.NewState(len(seats), 1, 0, false, nil, nil)

	if err := s.persistParty(party); err != nil {
		return nil, err
	}
	if err := s.persistRound(round, state.GoldenScore); err != nil {
		return nil, err
	}
	if err := s.states.SaveState(ctx, party.ID, &state); err != nil {
		return nil, err
	}

	e := &partyEntry{party: party, round: round}
	s.mu.Lock()
	s.parties[party.ID] = e
	s.mu.Unlock()

	s.log.Infof("Created party %s with %d seats", party.ID, len(seats))
	s.publishTurnEvent(GameEventTypeRoundStarted, party, &state, map[string]interface{}{
		"round": round.Number,
	})
	return party, nil
}

// PartySnapshot returns independent copies of the party, its current round
// and the live state. Mutating the returned values has no effect on the
// server.
func (s *Server) PartySnapshot(ctx context.Context, partyID string) (*game.Party, *game.Round, *game.State, error) {
	e, err := s.entry(partyID)
	if err != nil {
		return nil, nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	party := *e.party
	party.Seats = append([]game.Seat(nil), e.party.Seats...)
	round := *e.round
	if e.round.Outcome != nil {
		out := *e.round.Outcome
		out.HandPoints = append([]int(nil), e.round.Outcome.HandPoints...)
		out.Deltas = append([]int(nil), e.round.Outcome.Deltas...)
		round.Outcome = &out
	}

	// The store unmarshals a fresh value, so it never aliases server state.
	state, err := s.states.LoadState(ctx, partyID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &party, &round, state, nil
}

// Submit validates and applies one action from a user, persists the result
// and publishes the matching event. When the action is a call the round is
// finished and the party advanced: either the next round is set up or the
// party ends with a winner.
func (s *Server) Submit(ctx context.Context, partyID, userID string, action game.Action) (*game.State, error) {
	e, err := s.entry(partyID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.party.Status == game.PartyFinished {
		return nil, fmt.Errorf("%w: %s", ErrPartyOver, partyID)
	}
	seat, ok := e.party.SeatOf(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotInParty, userID, partyID)
	}

	st, err := s.states.LoadState(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("no state stored for party %s", partyID)
	}

	next, outcome, err := st.Apply(seat, action, s.childRNG())
	if err != nil {
		s.log.Debugf("Party %s: rejected %s from seat %d: %v", partyID, action.Type, seat, err)
		return nil, err
	}
	if err := next.CheckPartition(); err != nil {
		// Refuse to commit a corrupt snapshot; the old one stays current.
		s.log.Errorf("Party %s: transition produced corrupt state: %v", partyID, err)
		return nil, err
	}

	if err := s.states.SaveState(ctx, partyID, &next); err != nil {
		return nil, err
	}
	e.round.SyncState(next)

	if outcome == nil {
		if err := s.persistRound(e.round, next.GoldenScore); err != nil {
			s.log.Errorf("Party %s: failed to persist round: %v", partyID, err)
		}
		s.publishActionEvent(e.party, &next, seat, action)
		return &next, nil
	}

	return s.finishRound(ctx, e, next, outcome)
}

// finishRound runs the cross-round step after a call: records the outcome,
// advances the party and either installs the next round or ends the party.
// Caller holds the entry lock.
func (s *Server) finishRound(ctx context.Context, e *partyEntry, st game.State, outcome *game.CallOutcome) (*game.State, error) {
	party := e.party
	e.round.Finish(outcome)
	if err := s.persistRound(e.round, st.GoldenScore); err != nil {
		s.log.Errorf("Party %s: failed to persist finished round: %v", party.ID, err)
	}

	prog, err := game.AdvanceParty(party, e.round, st)
	if err != nil {
		return nil, err
	}

	s.Publish(&GameEvent{
		Type:    GameEventTypeZapCalled,
		PartyID: party.ID,
		UserID:  party.Seats[outcome.Caller].UserID,
		Seat:    outcome.Caller,
		Metadata: map[string]interface{}{
			"success":      outcome.Success,
			"counteractor": outcome.Counteractor,
			"hand_points":  outcome.HandPoints,
			"deltas":       outcome.Deltas,
		},
	})
	s.Publish(&GameEvent{
		Type:    GameEventTypeRoundFinished,
		PartyID: party.ID,
		Seat:    outcome.Caller,
		Metadata: map[string]interface{}{
			"round":            e.round.Number,
			"scores":           st.Scores,
			"newly_eliminated": prog.NewlyEliminated,
		},
	})

	if prog.PartyFinished {
		party.Status = game.PartyFinished
		party.Winner = prog.Winner
		if err := s.persistParty(party); err != nil {
			s.log.Errorf("Party %s: failed to persist finished party: %v", party.ID, err)
		}
		if err := s.states.DeleteState(ctx, party.ID); err != nil {
			s.log.Errorf("Party %s: failed to delete state: %v", party.ID, err)
		}
		s.log.Infof("Party %s finished, winner seat %d (%s)", party.ID, prog.Winner, party.Seats[prog.Winner].UserID)
		s.Publish(&GameEvent{
			Type:    GameEventTypePartyFinished,
			PartyID: party.ID,
			UserID:  party.Seats[prog.Winner].UserID,
			Seat:    prog.Winner,
			Metadata: map[string]interface{}{
				"scores": st.Scores,
			},
		})
		return &st, nil
	}

	e.round = prog.NextRound
	if err := s.persistRound(e.round, prog.NextState.GoldenScore); err != nil {
		s.log.Errorf("Party %s: failed to persist next round: %v", party.ID, err)
	}
	if err := s.states.SaveState(ctx, party.ID, prog.NextState); err != nil {
		return nil, err
	}

	if prog.GoldenScore {
		s.log.Infof("Party %s entering Golden Score at round %d", party.ID, e.round.Number)
	}
	s.publishTurnEvent(GameEventTypeRoundStarted, party, prog.NextState, map[string]interface{}{
		"round":        e.round.Number,
		"golden_score": prog.NextState.GoldenScore,
	})
	return &st, nil
}

// publishActionEvent maps a committed action to its event type.
func (s *Server) publishActionEvent(party *game.Party, st *game.State, seat int, action game.Action) {
	event := &GameEvent{
		PartyID:  party.ID,
		UserID:   party.Seats[seat].UserID,
		Seat:     seat,
		Metadata: map[string]interface{}{"turn": st.Turn, "phase": st.Phase.String()},
	}
	switch action.Type {
	case game.ActionHandSize:
		event.Type = GameEventTypeHandSizeSelected
		event.Metadata["hand_size"] = action.HandSize
	case game.ActionPlay:
		event.Type = GameEventTypeCardsPlayed
		event.Metadata["cards"] = action.Cards
	case game.ActionDraw:
		event.Type = GameEventTypeCardDrawn
		event.Metadata["from_deck"] = action.FromDeck
	default:
		return
	}
	s.Publish(event)
}

// publishTurnEvent publishes an event attributed to the seat holding the
// turn in the given state.
func (s *Server) publishTurnEvent(eventType GameEventType, party *game.Party, st *game.State, metadata map[string]interface{}) {
	s.Publish(&GameEvent{
		Type:     eventType,
		PartyID:  party.ID,
		UserID:   party.Seats[st.Turn].UserID,
		Seat:     st.Turn,
		Metadata: metadata,
	})
}

// ResumeActiveParties reloads every unfinished party from the database and
// re-announces whose turn it is, so bot seats pick their games back up after
// a restart.
func (s *Server) ResumeActiveParties(ctx context.Context) error {
	ids, err := s.db.GetActivePartyIDs()
	if err != nil {
		return fmt.Errorf("failed to list active parties: %v", err)
	}
	if len(ids) == 0 {
		s.log.Infof("No active parties to resume")
		return nil
	}

	resumed := 0
	for _, id := range ids {
		if err := s.resumeParty(ctx, id); err != nil {
			s.log.Errorf("Failed to resume party %s: %v", id, err)
			continue
		}
		resumed++
	}
	s.log.Infof("Resumed %d of %d active parties", resumed, len(ids))
	return nil
}

// resumeParty restores one party's records and verifies its state snapshot.
func (s *Server) resumeParty(ctx context.Context, partyID string) error {
	partyRec, err := s.db.LoadParty(partyID)
	if err != nil {
		return err
	}
	party, err := partyFromRecord(partyRec)
	if err != nil {
		return err
	}
	roundRec, err := s.db.LoadLatestRound(partyID)
	if err != nil {
		return err
	}
	round, err := roundFromRecord(roundRec)
	if err != nil {
		return err
	}
	st, err := s.states.LoadState(ctx, partyID)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("party %s has no state snapshot", partyID)
	}
	if err := st.CheckPartition(); err != nil {
		return fmt.Errorf("party %s snapshot is corrupt: %v", partyID, err)
	}

	s.mu.Lock()
	s.parties[partyID] = &partyEntry{party: party, round: round}
	s.mu.Unlock()

	s.log.Infof("Resumed party %s at round %d, turn seat %d", partyID, round.Number, st.Turn)
	s.publishTurnEvent(GameEventTypePartyResumed, party, st, map[string]interface{}{
		"round": round.Number,
	})
	return nil
}

// persistParty writes the party record.
func (s *Server) persistParty(party *game.Party) error {
	rec, err := partyToRecord(party)
	if err != nil {
		return err
	}
	return s.db.SaveParty(rec)
}

// persistRound writes the round record.
func (s *Server) persistRound(round *game.Round, golden bool) error {
	rec, err := roundToRecord(round, golden)
	if err != nil {
		return err
	}
	return s.db.SaveRound(rec)
}

// ChooseHandSize submits the starting seat's hand size pick.
func (s *Server) ChooseHandSize(ctx context.Context, partyID, userID string, size int) (*game.State, error) {
	return s.Submit(ctx, partyID, userID, game.Action{Type: game.ActionHandSize, HandSize: size})
}

// SubmitPlay submits a set of cards to play.
func (s *Server) SubmitPlay(ctx context.Context, partyID, userID string, cards []game.Card) (*game.State, error) {
	return s.Submit(ctx, partyID, userID, game.Action{Type: game.ActionPlay, Cards: cards})
}

// SubmitDrawFromDeck submits a blind draw from the deck.
func (s *Server) SubmitDrawFromDeck(ctx context.Context, partyID, userID string) (*game.State, error) {
	return s.Submit(ctx, partyID, userID, game.Action{Type: game.ActionDraw, FromDeck: true})
}

// SubmitDrawFromLastPlayed submits a draw of a named face-up card.
func (s *Server) SubmitDrawFromLastPlayed(ctx context.Context, partyID, userID string, card game.Card) (*game.State, error) {
	return s.Submit(ctx, partyID, userID, game.Action{Type: game.ActionDraw, Card: card})
}

// SubmitCall submits a zap call, attempting to end the round.
func (s *Server) SubmitCall(ctx context.Context, partyID, userID string) (*game.State, error) {
	return s.Submit(ctx, partyID, userID, game.Action{Type: game.ActionCall})
}

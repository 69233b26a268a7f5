package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Round identifies one hand of play within a party. It mirrors the live
// state's phase and turn so it can be listed without loading the snapshot,
// and becomes immutable once finished except for the finish timestamp.
type Round struct {
	ID         string       `json:"id"`
	PartyID    string       `json:"party_id"`
	Number     int          `json:"number"`
	Phase      Phase        `json:"phase"`
	Turn       int          `json:"turn"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
	Outcome    *CallOutcome `json:"outcome,omitempty"`
}

// NewRound creates a round in the pre-deal phase.
func NewRound(partyID string, number, startingSeat int) *Round {
	return &Round{
		ID:        uuid.NewString(),
		PartyID:   partyID,
		Number:    number,
		Phase:     PhaseSelectHandSize,
		Turn:      startingSeat,
		StartedAt: time.Now().UTC(),
	}
}

// SyncState mirrors phase and turn from a committed snapshot.
func (r *Round) SyncState(s State) {
	r.Phase = s.Phase
	r.Turn = s.Turn
}

// Finish marks the round terminal with its call outcome.
func (r *Round) Finish(out *CallOutcome) {
	r.Phase = PhaseFinished
	r.Outcome = out
	r.FinishedAt = time.Now().UTC()
}

// Finished reports whether the round is terminal.
func (r *Round) Finished() bool {
	return r.Phase == PhaseFinished
}

// checkActing validates the common preconditions of every action: the seat
// exists, is not eliminated, and holds the turn.
func (s State) checkActing(seat int) error {
	if seat < 0 || seat >= s.NumSeats() {
		return ErrSeatOutOfRange
	}
	if s.Eliminated[seat] {
		return ErrSeatEliminated
	}
	if s.Phase == PhaseFinished {
		return ErrRoundFinished
	}
	if s.Turn != seat {
		return ErrNotYourTurn
	}
	return nil
}

// SelectHandSize deals the round: the starting seat picks a hand size, every
// active seat receives that many cards from a freshly shuffled deck, and one
// card is flipped face up as the initial last play. Moves to the Play phase
// with the turn unchanged.
func (s State) SelectHandSize(seat, size int, rng *rand.Rand) (State, error) {
	if err := s.checkActing(seat); err != nil {
		return s, err
	}
	if s.Phase != PhaseSelectHandSize {
		return s, ErrWrongPhase
	}
	min, max := HandSizeRange(s.GoldenScore)
	if size < min || size > max {
		return s, ErrHandSizeOutOfRange
	}
	// The deal must cover every active seat plus the flipped card.
	if size*len(s.ActiveSeats())+1 > NumCards {
		return s, ErrHandSizeOutOfRange
	}

	n := s.clone()
	n.Deck = NewDeck(rng)
	for i := 0; i < size; i++ {
		for _, target := range n.ActiveSeats() {
			n.Hands[target] = append(n.Hands[target], n.Deck[0])
			n.Deck = n.Deck[1:]
		}
	}
	n.LastPlayed = []Card{n.Deck[0]}
	n.Deck = n.Deck[1:]
	n.Phase = PhasePlay
	n.LastAction = &ActionRecord{Seat: seat, Type: ActionHandSize, HandSize: size}
	return n, nil
}

// PlayCards applies the acting seat's play: the cards leave the hand, the
// play built on the previous turn slides into the last play (whose cards
// drop to the discard pile, becoming undrawable), and the submitted cards
// become the play under construction. Moves to the Draw phase, same seat.
//
// On the very first play of a round there is no previous play to slide, so
// the flipped card stays where it is and remains drawable.
func (s State) PlayCards(seat int, cards []Card) (State, error) {
	if err := s.checkActing(seat); err != nil {
		return s, err
	}
	if s.Phase != PhasePlay {
		return s, ErrWrongPhase
	}
	if len(cards) == 0 {
		return s, ErrEmptyPlay
	}

	n := s.clone()
	hand, err := removeCards(n.Hands[seat], cards)
	if err != nil {
		return s, err
	}
	if !LegalPlay(cards) {
		return s, ErrIllegalPlay
	}

	n.Hands[seat] = hand
	if len(n.CurrentPlay) > 0 {
		n.Discard = append(n.Discard, n.LastPlayed...)
		n.LastPlayed = n.CurrentPlay
	}
	n.CurrentPlay = append([]Card(nil), cards...)
	n.Phase = PhaseDraw
	n.LastAction = &ActionRecord{Seat: seat, Type: ActionPlay, Cards: append([]Card(nil), cards...)}
	return n, nil
}

// DrawFromDeck draws the top card of the deck into the acting seat's hand.
// The turn passes to the next active seat and play resumes.
func (s State) DrawFromDeck(seat int) (State, error) {
	if err := s.checkActing(seat); err != nil {
		return s, err
	}
	if s.Phase != PhaseDraw {
		return s, ErrWrongPhase
	}
	if len(s.Deck) == 0 {
		return s, ErrEmptyDrawSource
	}

	n := s.clone()
	n.Hands[seat] = append(n.Hands[seat], n.Deck[0])
	n.Deck = n.Deck[1:]
	n.Turn = n.NextActiveSeat(seat)
	n.Phase = PhasePlay
	n.LastAction = &ActionRecord{Seat: seat, Type: ActionDraw, FromDeck: true}
	return n, nil
}

// DrawFromLastPlayed draws a named card from the last play into the acting
// seat's hand. The turn passes to the next active seat and play resumes.
func (s State) DrawFromLastPlayed(seat int, card Card) (State, error) {
	if err := s.checkActing(seat); err != nil {
		return s, err
	}
	if s.Phase != PhaseDraw {
		return s, ErrWrongPhase
	}
	if len(s.LastPlayed) == 0 {
		return s, ErrEmptyDrawSource
	}

	n := s.clone()
	remaining, err := removeCards(n.LastPlayed, []Card{card})
	if err != nil {
		return s, ErrCardNotAvailable
	}
	n.LastPlayed = remaining
	n.Hands[seat] = append(n.Hands[seat], card)
	n.Turn = n.NextActiveSeat(seat)
	n.Phase = PhasePlay
	n.LastAction = &ActionRecord{Seat: seat, Type: ActionDraw, Cards: []Card{card}}
	return n, nil
}

// Apply dispatches one action submitted by the given seat to the matching
// transition. The rng is only consulted for the deal. The returned outcome
// is non-nil exactly when the action was a call, i.e. when the round
// finished.
func (s State) Apply(seat int, a Action, rng *rand.Rand) (State, *CallOutcome, error) {
	switch a.Type {
	case ActionHandSize:
		next, err := s.SelectHandSize(seat, a.HandSize, rng)
		return next, nil, err
	case ActionPlay:
		next, err := s.PlayCards(seat, a.Cards)
		return next, nil, err
	case ActionDraw:
		if a.FromDeck {
			next, err := s.DrawFromDeck(seat)
			return next, nil, err
		}
		next, err := s.DrawFromLastPlayed(seat, a.Card)
		return next, nil, err
	case ActionCall:
		return s.CallZap(seat)
	default:
		return s, nil, ErrUnknownAction
	}
}

// removeCards returns src minus the given cards, failing with ErrCardNotOwned
// if any of them (duplicates included) is missing.
func removeCards(src, cards []Card) ([]Card, error) {
	out := append([]Card(nil), src...)
	for _, c := range cards {
		found := -1
		for i, have := range out {
			if have == c {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, ErrCardNotOwned
		}
		out = append(out[:found], out[found+1:]...)
	}
	return out, nil
}

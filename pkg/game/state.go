package game

import (
	"fmt"
)

// Phase identifies where a round is in its lifecycle.
type Phase int

const (
	PhaseSelectHandSize Phase = iota
	PhasePlay
	PhaseDraw
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseSelectHandSize: "SELECT_HAND_SIZE",
	PhasePlay:           "PLAY",
	PhaseDraw:           "DRAW",
	PhaseFinished:       "FINISHED",
}

// String returns the phase name
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase converts a phase name back to its enum value.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// MarshalText implements encoding.TextMarshaler so phases serialize by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ActionType identifies a player action.
type ActionType string

const (
	ActionHandSize ActionType = "hand_size"
	ActionPlay     ActionType = "play"
	ActionDraw     ActionType = "draw"
	ActionCall     ActionType = "call"
)

// Action is one submitted player action. Which fields matter depends on Type:
// HandSize for hand_size, Cards for play, FromDeck/Card for draw.
type Action struct {
	Type     ActionType `json:"type"`
	Cards    []Card     `json:"cards,omitempty"`
	Card     Card       `json:"card,omitempty"`
	FromDeck bool       `json:"from_deck,omitempty"`
	HandSize int        `json:"hand_size,omitempty"`
}

// ActionRecord describes the most recently applied action, kept on the state
// for audit trails and event payloads. Deck draws record no card: the drawn
// card is private to the drawer.
type ActionRecord struct {
	Seat     int        `json:"seat"`
	Type     ActionType `json:"type"`
	Cards    []Card     `json:"cards,omitempty"`
	FromDeck bool       `json:"from_deck,omitempty"`
	HandSize int        `json:"hand_size,omitempty"`
}

// State is one party's live round snapshot. It is treated as an immutable
// value: every transition deep-copies before mutating, so previously returned
// snapshots are always safe to read concurrently.
type State struct {
	Deck        []Card        `json:"deck"`
	Hands       [][]Card      `json:"hands"`
	Discard     []Card        `json:"discard"`
	LastPlayed  []Card        `json:"last_played"`
	CurrentPlay []Card        `json:"current_play"`
	Scores      []int         `json:"scores"`
	Turn        int           `json:"turn"`
	Phase       Phase         `json:"phase"`
	RoundNumber int           `json:"round_number"`
	GoldenScore bool          `json:"golden_score"`
	Eliminated  []bool        `json:"eliminated"`
	LastAction  *ActionRecord `json:"last_action,omitempty"`
}

// NewState builds the pre-deal snapshot for a round: empty piles, phase
// SelectHandSize, turn on the starting seat. Scores and eliminated flags are
// carried over from the previous round (nil for a first round).
func NewState(numSeats, roundNumber, startingSeat int, golden bool, scores []int, eliminated []bool) State {
	s := State{
		Hands:       make([][]Card, numSeats),
		Scores:      make([]int, numSeats),
		Eliminated:  make([]bool, numSeats),
		Turn:        startingSeat,
		Phase:       PhaseSelectHandSize,
		RoundNumber: roundNumber,
		GoldenScore: golden,
	}
	for i := range s.Hands {
		s.Hands[i] = []Card{}
	}
	copy(s.Scores, scores)
	copy(s.Eliminated, eliminated)
	return s
}

// clone returns a deep copy sharing no slices with the receiver.
func (s State) clone() State {
	n := s
	n.Deck = append([]Card(nil), s.Deck...)
	n.Discard = append([]Card(nil), s.Discard...)
	n.LastPlayed = append([]Card(nil), s.LastPlayed...)
	n.CurrentPlay = append([]Card(nil), s.CurrentPlay...)
	n.Scores = append([]int(nil), s.Scores...)
	n.Eliminated = append([]bool(nil), s.Eliminated...)
	n.Hands = make([][]Card, len(s.Hands))
	for i, h := range s.Hands {
		n.Hands[i] = append([]Card(nil), h...)
	}
	if s.LastAction != nil {
		rec := *s.LastAction
		rec.Cards = append([]Card(nil), s.LastAction.Cards...)
		n.LastAction = &rec
	}
	return n
}

// NumSeats returns the party size.
func (s State) NumSeats() int {
	return len(s.Hands)
}

// IsActive reports whether a seat is still in the party.
func (s State) IsActive(seat int) bool {
	return seat >= 0 && seat < len(s.Eliminated) && !s.Eliminated[seat]
}

// ActiveSeats returns the indices of non-eliminated seats, in seat order.
func (s State) ActiveSeats() []int {
	seats := make([]int, 0, s.NumSeats())
	for i := range s.Eliminated {
		if !s.Eliminated[i] {
			seats = append(seats, i)
		}
	}
	return seats
}

// NextActiveSeat returns the first non-eliminated seat after the given one,
// wrapping around by seat count.
func (s State) NextActiveSeat(seat int) int {
	n := s.NumSeats()
	for i := 1; i <= n; i++ {
		candidate := (seat + i) % n
		if !s.Eliminated[candidate] {
			return candidate
		}
	}
	return seat
}

// SeatHandPoints returns the point total of one seat's current hand.
func (s State) SeatHandPoints(seat int) int {
	return HandPoints(s.Hands[seat])
}

// CheckPartition verifies the card partition invariant: the 54 identifiers
// appear exactly once across deck, hands, discard, last play and current
// play. The pre-deal snapshot (no cards issued yet) is also valid.
func (s State) CheckPartition() error {
	var seen [NumCards]int
	total := 0
	count := func(cards []Card, where string) error {
		for _, c := range cards {
			if !c.Valid() {
				return fmt.Errorf("%w: invalid card %d in %s", ErrStateCorrupt, int(c), where)
			}
			seen[c]++
			if seen[c] > 1 {
				return fmt.Errorf("%w: card %v present more than once (last seen in %s)", ErrStateCorrupt, c, where)
			}
			total++
		}
		return nil
	}
	if err := count(s.Deck, "deck"); err != nil {
		return err
	}
	for i, h := range s.Hands {
		if err := count(h, fmt.Sprintf("hand %d", i)); err != nil {
			return err
		}
	}
	if err := count(s.Discard, "discard"); err != nil {
		return err
	}
	if err := count(s.LastPlayed, "last play"); err != nil {
		return err
	}
	if err := count(s.CurrentPlay, "current play"); err != nil {
		return err
	}

	if total == 0 && s.Phase == PhaseSelectHandSize {
		// Cards are not issued until the hand size is chosen.
		return nil
	}
	if total != NumCards {
		return fmt.Errorf("%w: %d cards accounted for, want %d", ErrStateCorrupt, total, NumCards)
	}
	return nil
}

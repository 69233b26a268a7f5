package game

import (
	"time"

	"github.com/google/uuid"
)

// PartyStatus is the lifecycle state of a party.
type PartyStatus string

const (
	PartyActive   PartyStatus = "active"
	PartyFinished PartyStatus = "finished"
)

// Seat binds a fixed player slot to a user for the party's lifetime.
type Seat struct {
	UserID string `json:"user_id"`
	Bot    bool   `json:"bot"`
}

// Party groups the seats playing a series of rounds together. Winner is the
// winning seat index once the party finishes, -1 before that.
type Party struct {
	ID        string      `json:"id"`
	Seats     []Seat      `json:"seats"`
	Status    PartyStatus `json:"status"`
	Winner    int         `json:"winner"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewParty creates an active party over the given seats.
func NewParty(seats []Seat) *Party {
	return &Party{
		ID:        uuid.NewString(),
		Seats:     append([]Seat(nil), seats...),
		Status:    PartyActive,
		Winner:    -1,
		CreatedAt: time.Now().UTC(),
	}
}

// SeatOf resolves a user to their seat index.
func (p *Party) SeatOf(userID string) (int, bool) {
	for i, s := range p.Seats {
		if s.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

// IsBot reports whether a seat is backed by a bot user.
func (p *Party) IsBot(seat int) bool {
	return seat >= 0 && seat < len(p.Seats) && p.Seats[seat].Bot
}

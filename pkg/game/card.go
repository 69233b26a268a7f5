package game

import (
	"fmt"
	"math/rand"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	}
	return "?"
}

// Rank represents a card rank, 0-based: 0=Ace ... 9=Ten, 10=Jack, 11=Queen, 12=King
type Rank int

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the rank name
func (r Rank) String() string {
	if r < 0 || int(r) >= len(rankNames) {
		return "?"
	}
	return rankNames[r]
}

// Card is a card identifier in [0,53]. Identifiers below 52 encode suit and
// rank (suit = id/13, rank = id%13); 52 and 53 are the two jokers.
type Card int

// NumCards is the size of a full deck, jokers included.
const NumCards = 54

const (
	ranksPerSuit = 13

	// JokerA and JokerB are the two wildcard identifiers.
	JokerA Card = 52
	JokerB Card = 53
)

// MakeCard builds the identifier for a suited card.
func MakeCard(s Suit, r Rank) Card {
	return Card(int(s)*ranksPerSuit + int(r))
}

// Valid reports whether the identifier is inside the 54-slot space.
func (c Card) Valid() bool {
	return c >= 0 && c < NumCards
}

// IsJoker reports whether the card is one of the two wildcards.
func (c Card) IsJoker() bool {
	return c == JokerA || c == JokerB
}

// Suit returns the card's suit. Meaningless for jokers.
func (c Card) Suit() Suit {
	return Suit(int(c) / ranksPerSuit)
}

// Rank returns the card's rank. Meaningless for jokers.
func (c Card) Rank() Rank {
	return Rank(int(c) % ranksPerSuit)
}

// Points returns the card's point value: Ace=1, number cards face value,
// Jack=11, Queen=12, King=13, joker=0.
func (c Card) Points() int {
	if !c.Valid() || c.IsJoker() {
		return 0
	}
	return int(c.Rank()) + 1
}

// String returns a human readable representation, e.g. "7♠" or "Joker"
func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Card(%d)", int(c))
	}
	if c.IsJoker() {
		return "Joker"
	}
	return c.Rank().String() + c.Suit().String()
}

// HandPoints sums the point values of a hand.
func HandPoints(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Points()
	}
	return total
}

// NewDeck returns all 54 card identifiers shuffled with the given rng.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, NumCards)
	for i := range deck {
		deck[i] = Card(i)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

package bot

import (
	"fmt"

	"github.com/zapzapgame/zapzap/pkg/game"
)

// Decider picks a bot's next action from a state snapshot. Implementations
// must be safe for concurrent use; one decider serves every bot seat.
type Decider interface {
	Decide(st *game.State, seat int) (game.Action, error)
}

// BasicDecider is the built-in strategy: shed the most points each play,
// pick up cheap face-up cards, and call as soon as the hand qualifies.
type BasicDecider struct {
	// HandSize is the size requested when starting a round. Zero means 5,
	// clamped into the legal range for the round.
	HandSize int
}

// Decide implements Decider.
func (d *BasicDecider) Decide(st *game.State, seat int) (game.Action, error) {
	switch st.Phase {
	case game.PhaseSelectHandSize:
		return game.Action{Type: game.ActionHandSize, HandSize: d.pickHandSize(st.GoldenScore)}, nil

	case game.PhasePlay:
		hand := st.Hands[seat]
		if game.HandPoints(hand) <= game.CallThreshold {
			return game.Action{Type: game.ActionCall}, nil
		}
		return game.Action{Type: game.ActionPlay, Cards: bestShed(hand)}, nil

	case game.PhaseDraw:
		// Take a cheap face-up card when one is available, otherwise draw
		// blind and hope.
		if card, ok := cheapestCard(st.LastPlayed); ok && card.Points() <= 2 {
			return game.Action{Type: game.ActionDraw, Card: card}, nil
		}
		return game.Action{Type: game.ActionDraw, FromDeck: true}, nil

	default:
		return game.Action{}, fmt.Errorf("no decision for phase %s", st.Phase)
	}
}

func (d *BasicDecider) pickHandSize(golden bool) int {
	size := d.HandSize
	if size == 0 {
		size = 5
	}
	min, max := game.HandSizeRange(golden)
	if size < min {
		size = min
	}
	if size > max {
		size = max
	}
	return size
}

// bestShed returns the legal play that removes the most points from the
// hand: the full group of the heaviest rank when one exists, else the single
// heaviest card. Jokers are never shed voluntarily, they are worth zero and
// plug runs later.
func bestShed(hand []game.Card) []game.Card {
	groups := make(map[game.Rank][]game.Card)
	var bestSingle game.Card = -1
	for _, c := range hand {
		if c.IsJoker() {
			continue
		}
		groups[c.Rank()] = append(groups[c.Rank()], c)
		if bestSingle < 0 || c.Points() > bestSingle.Points() {
			bestSingle = c
		}
	}
	if bestSingle < 0 {
		// Nothing but jokers left; shed one.
		return hand[:1]
	}

	best := []game.Card{bestSingle}
	bestPoints := bestSingle.Points()
	for _, cards := range groups {
		if len(cards) < 2 {
			continue
		}
		points := game.HandPoints(cards)
		if points > bestPoints {
			best = cards
			bestPoints = points
		}
	}
	return best
}

// cheapestCard returns the lowest-point card of the pile. Jokers are worth
// zero, so they are always the first pick.
func cheapestCard(pile []game.Card) (game.Card, bool) {
	if len(pile) == 0 {
		return -1, false
	}
	best := pile[0]
	for _, c := range pile[1:] {
		if c.Points() < best.Points() {
			best = c
		}
	}
	return best, true
}

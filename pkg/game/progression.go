package game

import "fmt"

// Progression describes what must happen to a party after a round finished:
// either the party is over with a winner, or the next round is set up and
// waiting for its hand size. Pure data; persisting and publishing is the
// caller's job.
type Progression struct {
	PartyFinished   bool
	Winner          int
	Eliminated      []bool
	NewlyEliminated []int
	GoldenScore     bool
	NextRound       *Round
	NextState       *State
}

// AdvanceParty computes the cross-round step once a round reached Finished:
// recomputes eliminations, decides whether the party ends (last seat
// standing, or Golden Score duel), enters Golden Score when exactly two
// active seats remain, and otherwise sets up the next round with the turn
// handed to the next active seat after the caller.
func AdvanceParty(party *Party, round *Round, s State) (*Progression, error) {
	if s.Phase != PhaseFinished || round.Outcome == nil {
		return nil, fmt.Errorf("advance party %s: round %d not finished", party.ID, round.Number)
	}
	out := round.Outcome

	eliminated := append([]bool(nil), s.Eliminated...)
	var newly []int
	for seat, score := range s.Scores {
		if !eliminated[seat] && score > EliminationThreshold {
			eliminated[seat] = true
			newly = append(newly, seat)
		}
	}

	var active []int
	for seat, gone := range eliminated {
		if !gone {
			active = append(active, seat)
		}
	}

	p := &Progression{Winner: -1, Eliminated: eliminated, NewlyEliminated: newly}

	switch {
	case len(active) <= 1:
		p.PartyFinished = true
		if len(active) == 1 {
			p.Winner = active[0]
		} else {
			p.Winner = lowestScoreSeat(s.Scores, nil)
		}
		return p, nil

	case len(active) == 2 && s.GoldenScore:
		if winner, decided := resolveDuel(active[0], active[1], s.Scores, out); decided {
			p.PartyFinished = true
			p.Winner = winner
			return p, nil
		}
		// Fully tied: play another Golden Score round.
		p.GoldenScore = true

	case len(active) == 2:
		// Down to a duel: the next round is played under Golden Score rules.
		p.GoldenScore = true
	}

	startingSeat := nextActiveFrom(out.Caller, eliminated)
	next := NewState(s.NumSeats(), s.RoundNumber+1, startingSeat, p.GoldenScore, s.Scores, eliminated)
	p.NextState = &next
	p.NextRound = NewRound(party.ID, round.Number+1, startingSeat)
	return p, nil
}

// resolveDuel applies the Golden Score decision ladder to the two remaining
// seats: lower hand points from the finished round win outright; on a tie
// the seat that did not call wins; failing that, lower cumulative score. A
// false second return means the duel stays undecided.
func resolveDuel(a, b int, scores []int, out *CallOutcome) (int, bool) {
	pa, pb := out.HandPoints[a], out.HandPoints[b]
	switch {
	case pa < pb:
		return a, true
	case pb < pa:
		return b, true
	}
	switch out.Caller {
	case a:
		return b, true
	case b:
		return a, true
	}
	switch {
	case scores[a] < scores[b]:
		return a, true
	case scores[b] < scores[a]:
		return b, true
	}
	return -1, false
}

// lowestScoreSeat returns the seat with the lowest cumulative score among
// the candidates (all seats when nil), ties broken by lowest seat index.
func lowestScoreSeat(scores []int, candidates []int) int {
	if candidates == nil {
		candidates = make([]int, len(scores))
		for i := range candidates {
			candidates[i] = i
		}
	}
	best := candidates[0]
	for _, seat := range candidates[1:] {
		if scores[seat] < scores[best] {
			best = seat
		}
	}
	return best
}

// nextActiveFrom returns the first non-eliminated seat after the given one.
func nextActiveFrom(seat int, eliminated []bool) int {
	n := len(eliminated)
	for i := 1; i <= n; i++ {
		candidate := (seat + i) % n
		if !eliminated[candidate] {
			return candidate
		}
	}
	return seat
}

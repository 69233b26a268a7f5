package game

// LegalPlay reports whether a set of card identifiers forms a legal play:
// a single card, a same-rank group, or a same-suit run where jokers fill the
// gaps exactly. It knows nothing about whose hand the cards came from; hand
// membership is the caller's responsibility.
func LegalPlay(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}

	jokers := 0
	plain := make([]Card, 0, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			// Fail closed on unknown identifiers.
			return false
		}
		if c.IsJoker() {
			jokers++
		} else {
			plain = append(plain, c)
		}
	}

	if len(cards) == 1 || len(plain) == 0 {
		// A single card is always legal, and so is a pile of wildcards.
		return true
	}

	if sameRank(plain) {
		return true
	}
	return isRun(plain, jokers)
}

// sameRank reports whether every card shares one rank, suits ignored.
func sameRank(cards []Card) bool {
	for _, c := range cards[1:] {
		if c.Rank() != cards[0].Rank() {
			return false
		}
	}
	return true
}

// isRun reports whether the cards are a same-suit sequence once the given
// number of jokers is spent on the missing ranks. Ranks must be pairwise
// distinct and the jokers must fill the gaps exactly, no surplus.
func isRun(cards []Card, jokers int) bool {
	suit := cards[0].Suit()
	minRank, maxRank := cards[0].Rank(), cards[0].Rank()
	seen := make(map[Rank]bool, len(cards))
	for _, c := range cards {
		if c.Suit() != suit {
			return false
		}
		r := c.Rank()
		if seen[r] {
			return false
		}
		seen[r] = true
		if r < minRank {
			minRank = r
		}
		if r > maxRank {
			maxRank = r
		}
	}
	span := int(maxRank-minRank) + 1
	return span == len(cards)+jokers
}

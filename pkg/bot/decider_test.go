package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapzapgame/zapzap/pkg/game"
)

func TestDeciderPicksHandSize(t *testing.T) {
	d := &BasicDecider{}
	st := game.NewState(3, 1, 0, false, nil, nil)

	action, err := d.Decide(&st, 0)
	require.NoError(t, err)
	assert.Equal(t, game.ActionHandSize, action.Type)
	assert.Equal(t, 5, action.HandSize)

	// Requests outside the legal range are clamped.
	d.HandSize = 99
	action, err = d.Decide(&st, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, action.HandSize)

	golden := game.NewState(2, 5, 0, true, nil, nil)
	action, err = d.Decide(&golden, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, action.HandSize, "Golden Score allows bigger hands")
}

func TestDeciderCallsWhenHandQualifies(t *testing.T) {
	d := &BasicDecider{}
	st := game.NewState(2, 1, 0, false, nil, nil)
	st.Phase = game.PhasePlay
	st.Hands[0] = []game.Card{game.MakeCard(game.Spades, game.Ace), game.MakeCard(game.Hearts, game.Four), game.JokerA}

	action, err := d.Decide(&st, 0)
	require.NoError(t, err)
	assert.Equal(t, game.ActionCall, action.Type, "1+4+0 points is callable")
}

func TestDeciderShedsHeaviestGroup(t *testing.T) {
	d := &BasicDecider{}
	st := game.NewState(2, 1, 0, false, nil, nil)
	st.Phase = game.PhasePlay
	st.Hands[0] = []game.Card{
		game.MakeCard(game.Spades, game.Seven),
		game.MakeCard(game.Hearts, game.Seven),
		game.MakeCard(game.Clubs, game.King),
	}

	action, err := d.Decide(&st, 0)
	require.NoError(t, err)
	assert.Equal(t, game.ActionPlay, action.Type)
	// The seven pair is 14 points, beating the 13-point king.
	require.Len(t, action.Cards, 2)
	assert.True(t, game.LegalPlay(action.Cards))
	assert.Equal(t, game.Seven, action.Cards[0].Rank())
}

func TestDeciderShedsHeaviestSingle(t *testing.T) {
	d := &BasicDecider{}
	st := game.NewState(2, 1, 0, false, nil, nil)
	st.Phase = game.PhasePlay
	st.Hands[0] = []game.Card{
		game.MakeCard(game.Spades, game.Queen),
		game.MakeCard(game.Hearts, game.Two),
		game.MakeCard(game.Clubs, game.Nine),
	}

	action, err := d.Decide(&st, 0)
	require.NoError(t, err)
	require.Len(t, action.Cards, 1)
	assert.Equal(t, game.Queen, action.Cards[0].Rank())
}

func TestDeciderKeepsJokers(t *testing.T) {
	d := &BasicDecider{}
	st := game.NewState(2, 1, 0, false, nil, nil)
	st.Phase = game.PhasePlay
	st.Hands[0] = []game.Card{game.JokerA, game.MakeCard(game.Hearts, game.Six), game.JokerB}

	action, err := d.Decide(&st, 0)
	require.NoError(t, err)
	require.Len(t, action.Cards, 1)
	assert.Equal(t, game.Six, action.Cards[0].Rank(), "jokers stay in hand")
}

func TestDeciderDrawChoices(t *testing.T) {
	d := &BasicDecider{}
	st := game.NewState(2, 1, 0, false, nil, nil)
	st.Phase = game.PhaseDraw
	st.Deck = []game.Card{game.MakeCard(game.Spades, game.Nine)}

	// A cheap face-up card gets taken.
	st.LastPlayed = []game.Card{game.MakeCard(game.Hearts, game.King), game.MakeCard(game.Clubs, game.Ace)}
	action, err := d.Decide(&st, 0)
	require.NoError(t, err)
	assert.Equal(t, game.ActionDraw, action.Type)
	assert.False(t, action.FromDeck)
	assert.Equal(t, game.Ace, action.Card.Rank())

	// Jokers are free and always worth grabbing.
	st.LastPlayed = []game.Card{game.MakeCard(game.Hearts, game.King), game.JokerA}
	action, err = d.Decide(&st, 0)
	require.NoError(t, err)
	assert.Equal(t, game.JokerA, action.Card)

	// Nothing cheap on the table: draw blind.
	st.LastPlayed = []game.Card{game.MakeCard(game.Hearts, game.King)}
	action, err = d.Decide(&st, 0)
	require.NoError(t, err)
	assert.True(t, action.FromDeck)
}

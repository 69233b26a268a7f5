package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapzapgame/zapzap/pkg/game"
)

func testStateStore(t *testing.T) GameStateStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStateStoreFromClient(client)
}

func testDatabase(t *testing.T) Database {
	t.Helper()
	database, err := NewDatabase(filepath.Join(t.TempDir(), "zapzap.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestServerWith(t *testing.T, database Database, states GameStateStore) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		DB:         database,
		States:     states,
		LogBackend: testLog(t),
		Seed:       42,
	})
	require.NoError(t, err)
	t.Cleanup(srv.Stop)
	return srv
}

func newTestServer(t *testing.T) *Server {
	return newTestServerWith(t, testDatabase(t), testStateStore(t))
}

func threeSeats() []game.Seat {
	return []game.Seat{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}}
}

// injectState overwrites a party's live snapshot. The state must be a valid
// card partition or later submissions will be rejected.
func injectState(t *testing.T, srv *Server, partyID string, st game.State) {
	t.Helper()
	require.NoError(t, srv.states.SaveState(context.Background(), partyID, &st))
}

// callableState builds a 3-seat mid-round state where alice holds a single
// ace (1 point) and bob and carol hold a six each (6 points). The remaining
// cards sit in the deck so the partition stays intact.
func callableState(scores []int) game.State {
	st := game.NewState(3, 1, 0, false, scores, nil)
	st.Phase = game.PhasePlay
	st.Hands[0] = []game.Card{game.MakeCard(game.Spades, game.Ace)}
	st.Hands[1] = []game.Card{game.MakeCard(game.Hearts, game.Six)}
	st.Hands[2] = []game.Card{game.MakeCard(game.Diamonds, game.Six)}
	st.LastPlayed = []game.Card{game.MakeCard(game.Clubs, game.King)}

	used := make(map[game.Card]bool)
	for _, hand := range st.Hands {
		for _, c := range hand {
			used[c] = true
		}
	}
	for _, c := range st.LastPlayed {
		used[c] = true
	}
	for id := 0; id < game.NumCards; id++ {
		if c := game.Card(id); !used[c] {
			st.Deck = append(st.Deck, c)
		}
	}
	return st
}

func TestCreatePartyPersists(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)
	require.NotEmpty(t, party.ID)
	assert.Equal(t, game.PartyActive, party.Status)

	gotParty, round, st, err := srv.PartySnapshot(ctx, party.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 1, round.Number)
	assert.Equal(t, game.PhaseSelectHandSize, st.Phase)
	assert.Equal(t, 0, st.Turn)
	assert.Len(t, gotParty.Seats, 3)

	rec, err := srv.db.LoadParty(party.ID)
	require.NoError(t, err)
	assert.Equal(t, string(game.PartyActive), rec.Status)
}

func TestCreatePartyRejectsBadSeats(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := srv.CreateParty(ctx, []game.Seat{{UserID: "solo"}})
	assert.Error(t, err)

	_, err = srv.CreateParty(ctx, []game.Seat{{UserID: "a"}, {UserID: ""}})
	assert.Error(t, err)

	// Fourteen seats cannot all be dealt even the minimum hand from 54 cards.
	crowd := make([]game.Seat, 14)
	for i := range crowd {
		crowd[i] = game.Seat{UserID: string(rune('a' + i))}
	}
	_, err = srv.CreateParty(ctx, crowd)
	assert.Error(t, err)

	// Thirteen seats still fit (13x4+1 = 53 cards).
	_, err = srv.CreateParty(ctx, crowd[:13])
	assert.NoError(t, err)
}

func TestSubmitTurnFlow(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)

	// Only the starting seat may pick the hand size.
	_, err = srv.ChooseHandSize(ctx, party.ID, "bob", 5)
	require.ErrorIs(t, err, game.ErrNotYourTurn)

	st, err := srv.ChooseHandSize(ctx, party.ID, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, game.PhasePlay, st.Phase)
	assert.Len(t, st.Hands[0], 5)

	// A single card is always a legal play.
	st, err = srv.SubmitPlay(ctx, party.ID, "alice", st.Hands[0][:1])
	require.NoError(t, err)
	assert.Equal(t, game.PhaseDraw, st.Phase)

	st, err = srv.SubmitDrawFromDeck(ctx, party.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, game.PhasePlay, st.Phase)
	assert.Equal(t, 1, st.Turn, "turn must pass to the next seat after drawing")

	// The committed state survives a snapshot round trip.
	_, round, snap, err := srv.PartySnapshot(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Turn)
	assert.Equal(t, 1, round.Turn)
	require.NoError(t, snap.CheckPartition())
}

func TestSubmitRejections(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := srv.SubmitCall(ctx, "no-such-party", "alice")
	assert.ErrorIs(t, err, ErrUnknownParty)

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)

	_, err = srv.SubmitCall(ctx, party.ID, "mallory")
	assert.ErrorIs(t, err, ErrNotInParty)
}

func TestCallAdvancesToNextRound(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)
	injectState(t, srv, party.ID, callableState(nil))

	st, err := srv.SubmitCall(ctx, party.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseFinished, st.Phase)
	assert.Equal(t, []int{0, 6, 6}, st.Scores)

	gotParty, round, next, err := srv.PartySnapshot(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PartyActive, gotParty.Status)
	assert.Equal(t, 2, round.Number)
	require.NotNil(t, next)
	assert.Equal(t, game.PhaseSelectHandSize, next.Phase)
	assert.Equal(t, []int{0, 6, 6}, next.Scores)
	// The turn moves past the caller for the new deal.
	assert.Equal(t, 1, next.Turn)
}

func TestCallEntersGoldenScore(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)
	// Bob sits at 98: the 6 points from alice's successful call push him out.
	injectState(t, srv, party.ID, callableState([]int{0, 98, 0}))

	_, err = srv.SubmitCall(ctx, party.ID, "alice")
	require.NoError(t, err)

	_, round, next, err := srv.PartySnapshot(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, round.Number)
	require.NotNil(t, next)
	assert.True(t, next.GoldenScore, "two survivors must duel under Golden Score")
	assert.True(t, next.Eliminated[1])
}

func TestCallFinishesParty(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)
	// Both opponents blow past 100 when the call succeeds.
	injectState(t, srv, party.ID, callableState([]int{0, 98, 99}))

	st, err := srv.SubmitCall(ctx, party.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 104, 105}, st.Scores)

	gotParty, _, next, err := srv.PartySnapshot(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PartyFinished, gotParty.Status)
	assert.Equal(t, 0, gotParty.Winner)
	assert.Nil(t, next, "the live snapshot is deleted once the party ends")

	_, err = srv.SubmitCall(ctx, party.ID, "alice")
	assert.ErrorIs(t, err, ErrPartyOver)
}

func TestSubmitRefusesCorruptState(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	party, err := srv.CreateParty(ctx, threeSeats())
	require.NoError(t, err)

	st := callableState(nil)
	st.Deck[0] = st.Deck[1] // duplicate a card
	require.NoError(t, srv.states.SaveState(ctx, party.ID, &st))

	_, err = srv.SubmitPlay(ctx, party.ID, "alice", st.Hands[0][:1])
	require.ErrorIs(t, err, game.ErrStateCorrupt)
}

func TestResumeActiveParties(t *testing.T) {
	database := testDatabase(t)
	states := testStateStore(t)
	ctx := context.Background()

	srv1 := newTestServerWith(t, database, states)
	party, err := srv1.CreateParty(ctx, threeSeats())
	require.NoError(t, err)
	_, err = srv1.ChooseHandSize(ctx, party.ID, "alice", 5)
	require.NoError(t, err)
	srv1.Stop()

	// A fresh server over the same storage picks the party back up.
	srv2 := newTestServerWith(t, database, states)
	handler := &recordingHandler{}
	srv2.RegisterHandler(handler)
	require.NoError(t, srv2.ResumeActiveParties(ctx))

	gotParty, round, st, err := srv2.PartySnapshot(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, party.ID, gotParty.ID)
	assert.Equal(t, 1, round.Number)
	require.NotNil(t, st)
	assert.Equal(t, game.PhasePlay, st.Phase)

	event := handler.waitFor(t, GameEventTypePartyResumed)
	assert.Equal(t, party.ID, event.PartyID)
	assert.Equal(t, st.Turn, event.Seat)
}

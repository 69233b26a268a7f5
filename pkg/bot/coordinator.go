// Package bot runs the automated seats: it watches the server's event
// stream and, whenever a bot holds the turn, plays turns until a human is
// up again.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/zapzapgame/zapzap/pkg/game"
	"github.com/zapzapgame/zapzap/pkg/server"
)

// Engine is the slice of the server the coordinator needs. *server.Server
// satisfies it.
type Engine interface {
	PartySnapshot(ctx context.Context, partyID string) (*game.Party, *game.Round, *game.State, error)
	Submit(ctx context.Context, partyID, userID string, action game.Action) (*game.State, error)
	Publish(event *server.GameEvent)
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	Engine  Engine
	Decider Decider
	Log     slog.Logger

	// ChainDelay is the pause between consecutive bot turns in one party,
	// so humans can follow along. Default 250ms.
	ChainDelay time.Duration
	// RetryDelay is the pause before retrying a failed turn. Default 500ms.
	RetryDelay time.Duration
	// MaxRetries is how many attempts a single turn gets before the
	// coordinator gives up on the party. Default 3.
	MaxRetries int
}

// Coordinator drives bot turns. At most one work loop runs per party: the
// processing flag is the admission gate, and it is cleared no matter how
// the loop exits, so a later event can always start a fresh loop.
type Coordinator struct {
	log        slog.Logger
	engine     Engine
	decider    Decider
	chainDelay time.Duration
	retryDelay time.Duration
	maxRetries int

	mu         sync.Mutex
	processing map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator creates a coordinator. Register it on the server's event
// processor to activate it.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Decider == nil {
		cfg.Decider = &BasicDecider{}
	}
	if cfg.ChainDelay == 0 {
		cfg.ChainDelay = 250 * time.Millisecond
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		log:        cfg.Log,
		engine:     cfg.Engine,
		decider:    cfg.Decider,
		chainDelay: cfg.ChainDelay,
		retryDelay: cfg.RetryDelay,
		maxRetries: cfg.MaxRetries,
		processing: make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Stop cancels all work loops and waits for them to exit.
func (c *Coordinator) Stop() {
	c.cancel()
	c.wg.Wait()
}

// HandleEvent implements server.EventHandler. Any event that can change
// whose turn it is kicks the party's work loop.
func (c *Coordinator) HandleEvent(event *server.GameEvent) {
	switch event.Type {
	case server.GameEventTypeBotStuck, server.GameEventTypePartyFinished:
		return
	}
	c.Kick(event.PartyID)
}

// Kick starts a work loop for the party unless one is already running.
func (c *Coordinator) Kick(partyID string) {
	c.mu.Lock()
	if c.processing[partyID] {
		c.mu.Unlock()
		return
	}
	c.processing[partyID] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(partyID)
}

// run plays bot turns for one party until a human holds the turn, the party
// ends, or a turn keeps failing.
func (c *Coordinator) run(partyID string) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		delete(c.processing, partyID)
		c.mu.Unlock()
	}()

	for {
		if c.ctx.Err() != nil {
			return
		}

		party, _, st, err := c.engine.PartySnapshot(c.ctx, partyID)
		if err != nil {
			c.log.Errorf("Party %s: snapshot failed: %v", partyID, err)
			return
		}
		if party.Status == game.PartyFinished || st == nil || st.Phase == game.PhaseFinished {
			return
		}
		seat := st.Turn
		if !party.IsBot(seat) {
			return
		}

		if !c.takeTurn(party, st, seat) {
			return
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.chainDelay):
		}
	}
}

// takeTurn decides and submits one action, retrying transient failures of
// either step. Returns false when the party should be left alone.
func (c *Coordinator) takeTurn(party *game.Party, st *game.State, seat int) bool {
	userID := party.Seats[seat].UserID

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		action, err := c.decider.Decide(st, seat)
		if err == nil {
			_, err = c.engine.Submit(c.ctx, party.ID, userID, action)
			if err == nil {
				c.log.Debugf("Party %s: bot %s submitted %s", party.ID, userID, action.Type)
				return true
			}
		}
		lastErr = err
		c.log.Warnf("Party %s: bot %s attempt %d/%d failed: %v",
			party.ID, userID, attempt, c.maxRetries, lastErr)

		select {
		case <-c.ctx.Done():
			return false
		case <-time.After(c.retryDelay):
		}
	}

	c.log.Errorf("Party %s: bot %s gave up after %d attempts: %v",
		party.ID, userID, c.maxRetries, lastErr)
	c.reportStuck(party.ID, userID, seat, lastErr)
	return false
}

// reportStuck publishes a bot_stuck event so operators can spot wedged
// parties.
func (c *Coordinator) reportStuck(partyID, userID string, seat int, cause error) {
	c.engine.Publish(&server.GameEvent{
		Type:    server.GameEventTypeBotStuck,
		PartyID: partyID,
		UserID:  userID,
		Seat:    seat,
		Metadata: map[string]interface{}{
			"error": cause.Error(),
		},
	})
}

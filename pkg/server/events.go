package server

import (
	"sync"
	"time"

	"github.com/decred/slog"
)

// GameEventType represents the type of game event
type GameEventType string

const (
	GameEventTypeRoundStarted     GameEventType = "round_started"
	GameEventTypeHandSizeSelected GameEventType = "hand_size_selected"
	GameEventTypeCardsPlayed      GameEventType = "cards_played"
	GameEventTypeCardDrawn        GameEventType = "card_drawn"
	GameEventTypeZapCalled        GameEventType = "zap_called"
	GameEventTypeRoundFinished    GameEventType = "round_finished"
	GameEventTypePartyFinished    GameEventType = "party_finished"
	GameEventTypePartyResumed     GameEventType = "party_resumed"
	GameEventTypeBotStuck         GameEventType = "bot_stuck"
)

// GameEvent represents an immutable snapshot of something that happened in a
// party. Metadata carries event-specific details (played cards, outcome,
// errors) so handlers never reach back into live server state.
type GameEvent struct {
	Type      GameEventType
	PartyID   string
	UserID    string
	Seat      int
	Metadata  map[string]interface{}
	Timestamp time.Time
}

// EventHandler consumes game events. Handlers run on event worker goroutines
// and must not block for long.
type EventHandler interface {
	HandleEvent(event *GameEvent)
}

// EventProcessor manages the processing of game events
type EventProcessor struct {
	log      slog.Logger
	queue    chan *GameEvent
	workers  []*eventWorker
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex

	handlersMu sync.RWMutex
	handlers   []EventHandler
}

// eventWorker processes events from the queue
type eventWorker struct {
	id        int
	processor *EventProcessor
	stopChan  chan struct{}
	wg        *sync.WaitGroup
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(log slog.Logger, queueSize, workerCount int) *EventProcessor {
	processor := &EventProcessor{
		log:      log,
		queue:    make(chan *GameEvent, queueSize),
		stopChan: make(chan struct{}),
	}

	// Create workers
	processor.workers = make([]*eventWorker, workerCount)
	for i := 0; i < workerCount; i++ {
		processor.workers[i] = &eventWorker{
			id:        i,
			processor: processor,
			stopChan:  make(chan struct{}),
			wg:        &processor.wg,
		}
	}

	return processor
}

// RegisterHandler adds a handler that receives every published event.
func (ep *EventProcessor) RegisterHandler(handler EventHandler) {
	ep.handlersMu.Lock()
	defer ep.handlersMu.Unlock()
	ep.handlers = append(ep.handlers, handler)
}

// Start begins processing events
func (ep *EventProcessor) Start() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.started {
		return
	}

	ep.started = true
	ep.log.Infof("Starting event processor with %d workers", len(ep.workers))

	// Start all workers
	for _, worker := range ep.workers {
		ep.wg.Add(1)
		go worker.run()
	}
}

// Stop gracefully stops the event processor
func (ep *EventProcessor) Stop() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if !ep.started {
		return
	}

	ep.log.Infof("Stopping event processor...")

	// Signal all workers to stop
	close(ep.stopChan)
	for _, worker := range ep.workers {
		close(worker.stopChan)
	}

	// Wait for all workers to finish
	ep.wg.Wait()

	ep.started = false
	ep.log.Infof("Event processor stopped")
}

// PublishEvent publishes an event for processing
func (ep *EventProcessor) PublishEvent(event *GameEvent) {
	ep.mu.Lock()
	started := ep.started
	ep.mu.Unlock()

	if !started {
		ep.log.Warnf("Event processor not started, dropping event: %v", event.Type)
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case ep.queue <- event:
		ep.log.Debugf("Published event: %s for party %s", event.Type, event.PartyID)
	default:
		ep.log.Errorf("Event queue full, dropping event: %s for party %s", event.Type, event.PartyID)
	}
}

// run executes the worker loop
func (w *eventWorker) run() {
	defer w.wg.Done()
	w.processor.log.Debugf("Event worker %d started", w.id)

	for {
		select {
		case <-w.stopChan:
			w.processor.log.Debugf("Event worker %d stopping", w.id)
			return

		case <-w.processor.stopChan:
			w.processor.log.Debugf("Event worker %d stopping (processor shutdown)", w.id)
			return

		case event := <-w.processor.queue:
			if event != nil {
				w.processEvent(event)
			}
		}
	}
}

// processEvent dispatches a single event to every registered handler
func (w *eventWorker) processEvent(event *GameEvent) {
	w.processor.log.Debugf("Worker %d processing event: %s for party %s", w.id, event.Type, event.PartyID)

	w.processor.handlersMu.RLock()
	handlers := make([]EventHandler, len(w.processor.handlers))
	copy(handlers, w.processor.handlers)
	w.processor.handlersMu.RUnlock()

	for _, handler := range handlers {
		handler.HandleEvent(event)
	}
}

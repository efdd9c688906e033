// Package events is an in-process pub/sub of routing engine events with a
// bounded history.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType defines the type of event
type EventType string

const (
	InfoEvent    EventType = "info"
	SuccessEvent EventType = "success"
	WarningEvent EventType = "warning"
	ErrorEvent   EventType = "error"
)

// Event represents an engine event
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	PoolID    string    `json:"poolId,omitempty"`
	NodeID    string    `json:"nodeId,omitempty"`
	RouteID   string    `json:"routeId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber is a channel that receives JSON-encoded events
type Subscriber chan string

const subscriberBuffer = 10

// EventSystem manages pub-sub for engine events
type EventSystem struct {
	logger *zap.Logger
	clock  clock.Clock

	subscribers      map[Subscriber]bool
	subscribersMutex sync.RWMutex

	events      []Event
	eventsMutex sync.RWMutex
	maxEvents   int
}

// NewEventSystem creates a new event system keeping up to maxEvents in
// history (100 when maxEvents <= 0).
func NewEventSystem(maxEvents int, logger *zap.Logger, clk clock.Clock) *EventSystem {
	if maxEvents <= 0 {
		maxEvents = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New()
	}

	return &EventSystem{
		logger:      logger.Named("events"),
		clock:       clk,
		subscribers: make(map[Subscriber]bool),
		events:      make([]Event, 0, maxEvents),
		maxEvents:   maxEvents,
	}
}

// Subscribe registers a new subscriber channel
func (es *EventSystem) Subscribe() Subscriber {
	es.subscribersMutex.Lock()
	defer es.subscribersMutex.Unlock()

	subscriber := make(Subscriber, subscriberBuffer)
	es.subscribers[subscriber] = true
	return subscriber
}

// Unsubscribe removes a subscriber and closes its channel
func (es *EventSystem) Unsubscribe(subscriber Subscriber) {
	es.subscribersMutex.Lock()
	defer es.subscribersMutex.Unlock()

	if _, exists := es.subscribers[subscriber]; exists {
		delete(es.subscribers, subscriber)
		close(subscriber)
	}
}

// Publish stamps the event, stores it in history and broadcasts it to all
// subscribers without blocking. Slow subscribers miss events.
func (es *EventSystem) Publish(event Event) Event {
	event.ID = uuid.NewString()
	event.Timestamp = es.clock.Now()

	es.eventsMutex.Lock()
	if len(es.events) >= es.maxEvents {
		// Remove oldest event
		es.events = append(es.events[1:], event)
	} else {
		es.events = append(es.events, event)
	}
	es.eventsMutex.Unlock()

	eventJSON, err := json.Marshal(event)
	if err != nil {
		es.logger.Error("marshal event", zap.Error(err))
		return event
	}

	es.subscribersMutex.RLock()
	defer es.subscribersMutex.RUnlock()

	for subscriber := range es.subscribers {
		select {
		case subscriber <- string(eventJSON):
		default:
			es.logger.Warn("subscriber channel full, event dropped", zap.String("event_id", event.ID))
		}
	}
	return event
}

// GetRecentEvents returns up to limit of the most recent events, oldest
// first. A non-positive limit returns the whole history.
func (es *EventSystem) GetRecentEvents(limit int) []Event {
	es.eventsMutex.RLock()
	defer es.eventsMutex.RUnlock()

	if limit <= 0 || limit > len(es.events) {
		limit = len(es.events)
	}
	start := len(es.events) - limit

	result := make([]Event, limit)
	copy(result, es.events[start:])
	return result
}

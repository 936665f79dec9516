// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"epl2-service/internal/model"
)

// AllEvents subscribes to every event type
const AllEvents model.EventType = "*"

// EventBus fans job events out to subscribers
type EventBus struct {
	subscribers map[model.EventType][]chan model.JobEvent
	events      chan model.JobEvent
	done        chan struct{}
	closeOnce   sync.Once
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[model.EventType][]chan model.JobEvent),
		events:      make(chan model.JobEvent, 1000),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for {
		select {
		case event := <-eb.events:
			eb.distributeEvent(event)
		case <-eb.done:
			return
		}
	}
}

// Stop ends distribution; pending events are dropped
func (eb *EventBus) Stop() {
	eb.closeOnce.Do(func() { close(eb.done) })
}

// Publish queues an event without blocking
func (eb *EventBus) Publish(event model.JobEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe subscribes to events of a specific type, or AllEvents
func (eb *EventBus) Subscribe(eventType model.EventType) <-chan model.JobEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.JobEvent, 100)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
	return subscriber
}

// Unsubscribe removes a subscription returned by Subscribe
func (eb *EventBus) Unsubscribe(sub <-chan model.JobEvent) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	for eventType, subs := range eb.subscribers {
		for i, s := range subs {
			if s == sub {
				eb.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(s)
				return
			}
		}
	}
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.JobEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	deliver := func(subs []chan model.JobEvent) {
		for _, subscriber := range subs {
			select {
			case subscriber <- event:
			default:
				// Subscriber is slow, skip
			}
		}
	}
	deliver(eb.subscribers[event.EventType])
	deliver(eb.subscribers[AllEvents])
}

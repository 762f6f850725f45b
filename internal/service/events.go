package service

// EventType defines the type of event
type EventType string

const (
	EventInfrastructureRegistered EventType = "infrastructure_registered"
	EventInfrastructureVerified   EventType = "infrastructure_verified"
	EventMetricRegistered         EventType = "metric_registered"
	EventMetricUpdated            EventType = "metric_updated"
	EventRuleCreated              EventType = "rule_created"
	EventAllocationCreated        EventType = "allocation_created"
	EventCycleExecuted            EventType = "cycle_executed"
	EventRegistrySeeded           EventType = "registry_seeded"
)

// Event represents an event that occurred in the registry
type Event struct {
	Type    EventType   `json:"type"`
	Height  uint64      `json:"height,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events. Subscribers register
// at startup; publishing never blocks.
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

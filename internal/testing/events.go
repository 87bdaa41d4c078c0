package testing

import (
	"sync"

	"github.com/manishiitg/cloud-sdk-go/interfaces"
)

// Event is one emitted step event with its status.
type Event struct {
	Status string
	Step   interfaces.StepEvent
	Err    error
}

// EventCollector is an EventEmitter that keeps every event in memory.
type EventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *EventCollector) add(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *EventCollector) EmitStepReplayed(event interfaces.StepEvent) {
	c.add(Event{Status: interfaces.StatusStepReplayed, Step: event})
}

func (c *EventCollector) EmitStepMismatch(event interfaces.StepEvent, err error) {
	c.add(Event{Status: interfaces.StatusStepMismatch, Step: event, Err: err})
}

func (c *EventCollector) EmitStepRecorded(event interfaces.StepEvent) {
	c.add(Event{Status: interfaces.StatusStepRecorded, Step: event})
}

// Events returns a copy of the collected events.
func (c *EventCollector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Statuses returns the status of each collected event in order.
func (c *EventCollector) Statuses() []string {
	events := c.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Status
	}
	return out
}

var _ interfaces.EventEmitter = (*EventCollector)(nil)

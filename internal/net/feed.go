package net

import (
	"context"
	"sync"

	"rift-and-ruin/server/logging"
)

// Feed buffers router events for the next state broadcast. It is a
// logging sink: register it on the router and the hub drains it once
// per tick. When the buffer fills the oldest events fall first so the
// feed stays current.
type Feed struct {
	mu       sync.Mutex
	events   []logging.Event
	capacity int
	dropped  uint64
}

// NewFeed creates a feed holding at most capacity events between drains.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 256
	}
	return &Feed{capacity: capacity}
}

// Write implements logging.Sink.
func (f *Feed) Write(event logging.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) >= f.capacity {
		drop := len(f.events) - f.capacity + 1
		f.events = f.events[drop:]
		f.dropped += uint64(drop)
	}
	f.events = append(f.events, event)
	return nil
}

// Drain returns the buffered events and resets the feed.
func (f *Feed) Drain() []logging.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	events := f.events
	f.events = nil
	return events
}

// Dropped reports how many events were discarded to stay within capacity.
func (f *Feed) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Close implements logging.Sink.
func (f *Feed) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
	return nil
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
)

var (
	logger = log.WithContext("pkg", "events")

	metricPublished   = metrics.LazyLoadCounterVec("events_published_total", []string{"type"})
	metricDeadLetters = metrics.LazyLoadCounterVec("events_dead_letters_total", []string{"subscriber"})
)

// Handler consumes a delivered event.
type Handler func(ev Event) error

// DeadLetterSink stores deliveries that failed every attempt.
type DeadLetterSink interface {
	DeadLetter(ev Event, subscriber string, attempts int, cause error) error
}

// Options tunes delivery.
type Options struct {
	MaxAttempts int           // attempts per subscriber, at least 1
	Backoff     time.Duration // wait before attempt n is n-1 times Backoff
}

type subscriber struct {
	id      uint64
	name    string
	handler Handler
}

// Bus delivers events synchronously to every subscriber. A failing subscriber is
// retried up to MaxAttempts, then dead-lettered. Failures never reach the publisher.
type Bus struct {
	opts Options

	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64
	sink   DeadLetterSink
}

// NewBus creates a bus. sink may be nil.
func NewBus(opts Options, sink DeadLetterSink) *Bus {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Bus{opts: opts, sink: sink}
}

// SetDeadLetterSink replaces the dead-letter sink.
func (b *Bus) SetDeadLetterSink(sink DeadLetterSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

// Subscribe registers handler under name and returns the matching unsubscribe func.
func (b *Bus) Subscribe(name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, name: name, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every subscriber registered at call time.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := b.subs
	sink := b.sink
	b.mu.RUnlock()

	metricPublished().AddWithLabel(1, map[string]string{"type": ev.Type})

	for _, s := range subs {
		b.deliver(s, sink, ev)
	}
}

func (b *Bus) deliver(s subscriber, sink DeadLetterSink, ev Event) {
	var err error
	for attempt := 1; attempt <= b.opts.MaxAttempts; attempt++ {
		if attempt > 1 && b.opts.Backoff > 0 {
			time.Sleep(time.Duration(attempt-1) * b.opts.Backoff)
		}
		if err = call(s.handler, ev); err == nil {
			return
		}
		logger.Debug("event delivery failed", "subscriber", s.name, "event", ev.Type, "attempt", attempt, "err", err)
	}

	logger.Warn("event dead-lettered", "subscriber", s.name, "event", ev.Type, "id", ev.ID, "attempts", b.opts.MaxAttempts, "err", err)
	metricDeadLetters().AddWithLabel(1, map[string]string{"subscriber": s.name})
	if sink == nil {
		return
	}
	if serr := sink.DeadLetter(ev, s.name, b.opts.MaxAttempts, err); serr != nil {
		logger.Error("failed to store dead letter", "subscriber", s.name, "id", ev.ID, "err", serr)
	}
}

// call runs h, turning a panic into an error.
func call(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return h(ev)
}

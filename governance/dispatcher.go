// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"context"
	"fmt"
	"sync"
)

// Handler applies the actions of one target.
type Handler interface {
	Handle(ctx context.Context, p *Proposal, action Action) error
}

// HandlerFunc adapts a func to Handler.
type HandlerFunc func(ctx context.Context, p *Proposal, action Action) error

func (f HandlerFunc) Handle(ctx context.Context, p *Proposal, action Action) error {
	return f(ctx, p, action)
}

// Dispatcher routes actions to handlers by target.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register installs h for target, replacing any previous handler.
func (d *Dispatcher) Register(target string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[target] = h
}

// Has reports whether target has a handler.
func (d *Dispatcher) Has(target string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[target]
	return ok
}

// Dispatch runs action through its handler. Handler panics are returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, p *Proposal, action Action) (err error) {
	d.mu.RLock()
	h, ok := d.handlers[action.Target]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler for target %q", action.Target)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %q panicked: %v", action.Target, r)
		}
	}()
	return h.Handle(ctx, p, action)
}

// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/vechain/govcore/clock"
)

type SweepReport struct {
	Timestamp *time.Time `json:"timestamp"`
	Duration  string     `json:"duration,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type Status struct {
	Healthy      bool         `json:"healthy"`
	LastSweep    *SweepReport `json:"lastSweep"`
	Bootstrapped bool         `json:"bootstrapped"`
}

// Health tracks whether the periodic driver keeps state fresh. The engine is
// healthy once a sweep succeeded within twice the sweep interval.
type Health struct {
	lock      sync.RWMutex
	clock     clock.Clock
	interval  time.Duration
	lastSweep time.Time
	duration  time.Duration
	lastErr   error
}

func New(clk clock.Clock, interval time.Duration) *Health {
	return &Health{clock: clk, interval: interval}
}

// SweepCompleted records the outcome of a driver sweep.
func (h *Health) SweepCompleted(took time.Duration, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastSweep = h.clock.Now()
	h.duration = took
	h.lastErr = err
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	bootstrapped := !h.lastSweep.IsZero()
	report := &SweepReport{}
	if bootstrapped {
		ts := h.lastSweep
		report.Timestamp = &ts
		report.Duration = h.duration.String()
	}
	if h.lastErr != nil {
		report.Error = h.lastErr.Error()
	}

	healthy := bootstrapped &&
		h.lastErr == nil &&
		h.clock.Now().Sub(h.lastSweep) <= 2*h.interval

	return &Status{
		Healthy:      healthy,
		LastSweep:    report,
		Bootstrapped: bootstrapped,
	}, nil
}

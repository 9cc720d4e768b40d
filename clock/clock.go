// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package clock provides the time source every time gated transition is evaluated against.
package clock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"

	"github.com/vechain/govcore/log"
)

var logger = log.WithContext("pkg", "clock")

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System is the local wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Mock is a manually driven clock for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock creates a mock clock stopped at now.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// AdvanceDays moves the clock forward by n days.
func (m *Mock) AdvanceDays(n int) {
	m.Advance(time.Duration(n) * 24 * time.Hour)
}

// NTP is the local clock corrected by the offset measured against an NTP server.
type NTP struct {
	server    string
	maxOffset time.Duration
	offset    atomic.Int64
	query     func(string) (time.Duration, error)
}

// NewNTP creates a clock synchronised against server. Offsets beyond maxOffset are
// logged when measured.
func NewNTP(server string, maxOffset time.Duration) *NTP {
	return &NTP{
		server:    server,
		maxOffset: maxOffset,
		query: func(server string) (time.Duration, error) {
			resp, err := ntp.Query(server)
			if err != nil {
				return 0, err
			}
			return resp.ClockOffset, nil
		},
	}
}

func (c *NTP) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

// Offset returns the last measured offset.
func (c *NTP) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}

// Sync measures the clock offset. On failure the previous offset is kept.
func (c *NTP) Sync() error {
	offset, err := c.query(c.server)
	if err != nil {
		logger.Debug("failed to access NTP", "server", c.server, "err", err)
		return err
	}
	if offset > c.maxOffset || offset < -c.maxOffset {
		logger.Warn("clock offset detected", "offset", offset)
	}
	c.offset.Store(int64(offset))
	return nil
}

// Day is the unit all configured periods are expressed in.
const Day = 24 * time.Hour

// Days returns n days as a duration.
func Days(n uint32) time.Duration {
	return time.Duration(n) * Day
}

// Unix returns t in unix seconds. The zero time maps to 0.
func Unix(t time.Time) uint64 {
	if t.IsZero() || t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}

// FromUnix is the inverse of Unix. 0 maps to the zero time.
func FromUnix(sec uint64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}

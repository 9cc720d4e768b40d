// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMock(start)
	assert.Equal(t, start, m.Now())

	m.AdvanceDays(30)
	assert.Equal(t, start.Add(30*24*time.Hour), m.Now())

	m.Set(start)
	m.Advance(time.Second)
	assert.Equal(t, start.Add(time.Second), m.Now())
}

func TestNTP(t *testing.T) {
	c := NewNTP("test", time.Second)
	c.query = func(string) (time.Duration, error) { return time.Hour, nil }

	assert.NoError(t, c.Sync())
	assert.Equal(t, time.Hour, c.Offset())
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Now(), time.Minute)

	c.query = func(string) (time.Duration, error) { return 0, errors.New("unreachable") }
	assert.Error(t, c.Sync())
	assert.Equal(t, time.Hour, c.Offset())
}

func TestUnix(t *testing.T) {
	assert.Equal(t, uint64(0), Unix(time.Time{}))
	assert.True(t, FromUnix(0).IsZero())

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, FromUnix(Unix(ts)))
	assert.Equal(t, 48*time.Hour, Days(2))
}

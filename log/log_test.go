// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapDefault(t *testing.T, h slog.Handler) {
	old := ethlog.Root()
	SetDefault(h)
	t.Cleanup(func() { ethlog.SetDefault(old) })
}

func TestWithContextFollowsSetDefault(t *testing.T) {
	logger := WithContext("pkg", "test")

	buf := &bytes.Buffer{}
	h, err := NewHandler(buf, FormatJSON, 3, false)
	require.NoError(t, err)
	swapDefault(t, h)

	logger.With("owner", "alice").Info("staked", "amount", "100")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "staked", rec["msg"])
	assert.Equal(t, "test", rec["pkg"])
	assert.Equal(t, "alice", rec["owner"])
	assert.Equal(t, "100", rec["amount"])
}

func TestVerbosity(t *testing.T) {
	buf := &bytes.Buffer{}
	h, err := NewHandler(buf, FormatLogfmt, 2, false)
	require.NoError(t, err)
	swapDefault(t, h)

	logger := WithContext("pkg", "test")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))
}

func TestNewHandlerUnknownFormat(t *testing.T) {
	_, err := NewHandler(&bytes.Buffer{}, "xml", 3, false)
	assert.Error(t, err)
}

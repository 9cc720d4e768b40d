// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func TestViolation(t *testing.T) {
	err := Violation(RuleDoubleVote, "voter %s already voted", "alice")
	assert.Equal(t, "double-vote: voter alice already voted", err.Error())

	wrapped := errors.Wrap(err, "vote")
	assert.True(t, IsRevertErr(wrapped))
	assert.Equal(t, RuleDoubleVote, RuleOf(wrapped))
	assert.Equal(t, "", RuleOf(errors.New("other")))
	assert.False(t, IsNotFound(wrapped))
}

func TestNotFound(t *testing.T) {
	err := errors.Wrap(NotFound("proposal", "p1"), "load")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRevertErr(err))
	assert.Contains(t, err.Error(), `proposal "p1" not found`)
}

func TestFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrSlashingDisabled))
	assert.True(t, IsFatal(errors.Wrap(ErrSlashingDisabled, "slash")))
	assert.False(t, IsFatal(New("x")))
	assert.Equal(t, "fatal: slashing is disabled", ErrSlashingDisabled.Error())
}

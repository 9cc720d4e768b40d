// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"
	"time"

	"github.com/vechain/govcore/clock"
)

// Delegation grants voting weight from Delegator to Delegatee. Revocation only stamps
// RevokedAt; records are never deleted.
type Delegation struct {
	ID        string
	Delegator string
	Delegatee string
	Amount    *big.Int
	CreatedAt uint64
	RevokedAt uint64
}

// Active reports whether the delegation has not been revoked.
func (d *Delegation) Active() bool {
	return d.RevokedAt == 0
}

func (d *Delegation) Created() time.Time { return clock.FromUnix(d.CreatedAt) }
func (d *Delegation) Revoked() time.Time { return clock.FromUnix(d.RevokedAt) }

// RevokeResult is returned by Revoke. Success is false when there was nothing to revoke.
type RevokeResult struct {
	Success    bool
	Delegation *Delegation
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"encoding/hex"
	"math/big"

	"github.com/pborman/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/kv"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/numeric"
	"github.com/vechain/govcore/reverts"
	"github.com/vechain/govcore/storage"
)

var logger = log.WithContext("pkg", "delegation")

// StakeSource reports the stake an owner holds, used to cap delegations.
type StakeSource interface {
	TotalStaked(owner string) (*big.Int, error)
}

// Registry owns delegation records.
type Registry struct {
	enforceCap bool
	stakes     StakeSource
	clock      clock.Clock
	events     events.Publisher

	delegations *storage.Mapping[*Delegation]
	outbound    *storage.Index // delegator -> ids
	inbound     *storage.Index // delegatee -> ids
	pairs       *storage.Index // pair key -> ids
	// delegations of one delegator are serialised, which also covers every pair it is part of
	locks storage.Locker
}

// New creates a registry. stakes may be nil when the stake cap is disabled.
func New(store kv.Store, cfg *config.Config, stakes StakeSource, clk clock.Clock, pub events.Publisher) *Registry {
	if pub == nil {
		pub = events.Discard
	}
	return &Registry{
		enforceCap:  cfg.Delegation.EnforceStakeCap,
		stakes:      stakes,
		clock:       clk,
		events:      pub,
		delegations: storage.NewMapping[*Delegation](store, "delegation/record", 2048),
		outbound:    storage.NewIndex(store, "delegation/outbound"),
		inbound:     storage.NewIndex(store, "delegation/inbound"),
		pairs:       storage.NewIndex(store, "delegation/pair"),
	}
}

func pairKey(delegator, delegatee string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(delegator))
	h.Write([]byte{0})
	h.Write([]byte(delegatee))
	return hex.EncodeToString(h.Sum(nil))
}

// Delegate records a new delegation of amount from delegator to delegatee.
func (r *Registry) Delegate(delegator, delegatee string, amount *big.Int) (*Delegation, error) {
	logger.Debug("delegating", "delegator", delegator, "delegatee", delegatee, "amount", amount)

	if delegator == "" || delegatee == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "delegator and delegatee are required")
	}
	if delegator == delegatee {
		return nil, reverts.Violation(reverts.RuleSelfDelegation, "%s cannot delegate to itself", delegator)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "delegation amount must be positive")
	}

	unlock := r.locks.Lock(delegator)
	defer unlock()

	if r.enforceCap && r.stakes != nil {
		staked, err := r.stakes.TotalStaked(delegator)
		if err != nil {
			return nil, err
		}
		out, err := r.OutboundAmount(delegator)
		if err != nil {
			return nil, err
		}
		if free := new(big.Int).Sub(staked, out); amount.Cmp(free) > 0 {
			return nil, reverts.Violation(reverts.RuleDelegationCap, "amount %v exceeds undelegated stake %v", amount, free)
		}
	}

	now := r.clock.Now()
	d := &Delegation{
		ID:        uuid.New(),
		Delegator: delegator,
		Delegatee: delegatee,
		Amount:    numeric.Copy(amount),
		CreatedAt: clock.Unix(now),
	}
	if err := r.delegations.Insert(d.ID, d); err != nil {
		return nil, err
	}
	if err := r.outbound.Add(delegator, d.ID); err != nil {
		return nil, err
	}
	if err := r.inbound.Add(delegatee, d.ID); err != nil {
		return nil, err
	}
	if err := r.pairs.Add(pairKey(delegator, delegatee), d.ID); err != nil {
		return nil, err
	}

	r.events.Publish(events.New(now, events.DelegationCreated, events.CategoryDelegation, delegator, map[string]string{
		"delegationId": d.ID,
		"delegatee":    delegatee,
		"amount":       amount.String(),
	}))
	logger.Info("delegated", "delegationId", d.ID)
	return d, nil
}

// Revoke stamps the latest active delegation between the pair as revoked. Votes already
// cast keep their frozen power.
func (r *Registry) Revoke(delegator, delegatee string) (*RevokeResult, error) {
	logger.Debug("revoking delegation", "delegator", delegator, "delegatee", delegatee)

	unlock := r.locks.Lock(delegator)
	defer unlock()

	ids, err := r.pairs.List(pairKey(delegator, delegatee))
	if err != nil {
		return nil, err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		d, err := r.load(ids[i])
		if err != nil {
			return nil, err
		}
		if !d.Active() {
			continue
		}
		now := r.clock.Now()
		d.RevokedAt = clock.Unix(now)
		if err := r.delegations.Update(d.ID, d); err != nil {
			return nil, err
		}
		r.events.Publish(events.New(now, events.DelegationRevoked, events.CategoryDelegation, delegator, map[string]string{
			"delegationId": d.ID,
			"delegatee":    delegatee,
			"amount":       d.Amount.String(),
		}))
		logger.Info("revoked delegation", "delegationId", d.ID)
		return &RevokeResult{Success: true, Delegation: d}, nil
	}
	return &RevokeResult{}, nil
}

// Delegation returns a record by id.
func (r *Registry) Delegation(id string) (*Delegation, error) {
	return r.load(id)
}

func (r *Registry) load(id string) (*Delegation, error) {
	d, found, err := r.delegations.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("delegation", id)
	}
	return d, nil
}

func (r *Registry) list(ix *storage.Index, key string) ([]*Delegation, error) {
	ids, err := ix.List(key)
	if err != nil {
		return nil, err
	}
	out := make([]*Delegation, 0, len(ids))
	for _, id := range ids {
		d, err := r.load(id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// DelegationsOf returns every delegation received and granted by owner, revoked ones included.
func (r *Registry) DelegationsOf(owner string) (inbound, outbound []*Delegation, err error) {
	if inbound, err = r.list(r.inbound, owner); err != nil {
		return nil, nil, err
	}
	if outbound, err = r.list(r.outbound, owner); err != nil {
		return nil, nil, err
	}
	return inbound, outbound, nil
}

func activeSum(ds []*Delegation) *big.Int {
	total := new(big.Int)
	for _, d := range ds {
		if d.Active() {
			total.Add(total, d.Amount)
		}
	}
	return total
}

// InboundPower sums the active delegations owner received.
func (r *Registry) InboundPower(owner string) (*big.Int, error) {
	ds, err := r.list(r.inbound, owner)
	if err != nil {
		return nil, err
	}
	return activeSum(ds), nil
}

// OutboundAmount sums the active delegations owner granted.
func (r *Registry) OutboundAmount(owner string) (*big.Int, error) {
	ds, err := r.list(r.outbound, owner)
	if err != nil {
		return nil, err
	}
	return activeSum(ds), nil
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package power

import (
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/delegation"
	"github.com/vechain/govcore/votingpower"
)

type Delegation struct {
	ID        string     `json:"id"`
	Delegator string     `json:"delegator"`
	Delegatee string     `json:"delegatee"`
	Amount    *big.Int   `json:"amount"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

type Delegations struct {
	Owner    string        `json:"owner"`
	Inbound  []*Delegation `json:"inbound"`
	Outbound []*Delegation `json:"outbound"`
}

func convertDelegations(ds []*delegation.Delegation) []*Delegation {
	res := make([]*Delegation, 0, len(ds))
	for _, d := range ds {
		item := &Delegation{
			ID:        d.ID,
			Delegator: d.Delegator,
			Delegatee: d.Delegatee,
			Amount:    d.Amount,
			Active:    d.Active(),
			CreatedAt: d.Created(),
		}
		if !d.Active() {
			t := d.Revoked()
			item.RevokedAt = &t
		}
		res = append(res, item)
	}
	return res
}

// Power serves voting power snapshots and the delegations behind them.
type Power struct {
	calc        *votingpower.Calculator
	delegations *delegation.Registry
}

func New(calc *votingpower.Calculator, delegations *delegation.Registry) *Power {
	return &Power{calc, delegations}
}

func (p *Power) handleGetVotingPower(w http.ResponseWriter, req *http.Request) error {
	snap, err := p.calc.Snapshot(mux.Vars(req)["owner"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, snap)
}

func (p *Power) handleGetDelegations(w http.ResponseWriter, req *http.Request) error {
	owner := mux.Vars(req)["owner"]
	inbound, outbound, err := p.delegations.DelegationsOf(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Delegations{
		Owner:    owner,
		Inbound:  convertDelegations(inbound),
		Outbound: convertDelegations(outbound),
	})
}

// Mount registers /voting-power/{owner} and /delegations/{owner} on root.
func (p *Power) Mount(root *mux.Router) {
	root.Path("/voting-power/{owner}").
		Methods(http.MethodGet).
		Name("GET /voting-power/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetVotingPower))
	root.Path("/delegations/{owner}").
		Methods(http.MethodGet).
		Name("GET /delegations/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetDelegations))
}

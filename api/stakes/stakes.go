// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/staking"
)

type Stakes struct {
	ledger *staking.Ledger
}

func New(ledger *staking.Ledger) *Stakes {
	return &Stakes{ledger}
}

func (s *Stakes) handleGetOwner(w http.ResponseWriter, req *http.Request) error {
	owner := mux.Vars(req)["owner"]
	positions, err := s.ledger.PositionsOf(owner)
	if err != nil {
		return err
	}
	total, err := s.ledger.TotalStaked(owner)
	if err != nil {
		return err
	}
	res := &Owner{
		Owner:       owner,
		TotalStaked: total,
		Tier:        s.ledger.TierFromStake(total),
		Positions:   make([]*Position, 0, len(positions)),
	}
	for _, p := range positions {
		res.Positions = append(res.Positions, convertPosition(p))
	}
	return utils.WriteJSON(w, res)
}

func (s *Stakes) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	p, err := s.ledger.Position(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPosition(p))
}

func (s *Stakes) handleGetSlash(w http.ResponseWriter, req *http.Request) error {
	slash, err := s.ledger.Slash(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSlash(slash))
}

func (s *Stakes) handleGetStats(w http.ResponseWriter, _ *http.Request) error {
	st, err := s.ledger.Stats()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Stats{
		TotalStaked:    st.TotalStaked,
		RewardsAccrued: st.RewardsAccrued,
		RewardsPaid:    st.RewardsPaid,
		Penalties:      st.Penalties,
		Slashed:        st.Slashed,
		Withdrawn:      st.Withdrawn,
		Positions:      st.Positions,
	})
}

// Mount registers the stake routes under pathPrefix and the ledger totals at /stats.
func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/position/{id}").
		Methods(http.MethodGet).
		Name("GET /stakes/position/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPosition))
	sub.Path("/slash/{id}").
		Methods(http.MethodGet).
		Name("GET /stakes/slash/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSlash))
	sub.Path("/{owner}").
		Methods(http.MethodGet).
		Name("GET /stakes/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetOwner))

	root.Path("/stats").
		Methods(http.MethodGet).
		Name("GET /stats").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStats))
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/reputation"
)

type Score struct {
	*reputation.Score
	Percentile decimal.Decimal `json:"percentile"`
}

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Overall   string    `json:"overall"`
	EventType string    `json:"eventType"`
	Impact    string    `json:"impact"`
	Details   string    `json:"details,omitempty"`
}

type Reputation struct {
	scorer *reputation.Scorer
}

func New(scorer *reputation.Scorer) *Reputation {
	return &Reputation{scorer}
}

func (r *Reputation) handleGetScore(w http.ResponseWriter, req *http.Request) error {
	owner := mux.Vars(req)["owner"]
	score, err := r.scorer.Score(owner)
	if err != nil {
		return err
	}
	pct, err := r.scorer.Percentile(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Score{score, pct})
}

func (r *Reputation) handleGetHistory(w http.ResponseWriter, req *http.Request) error {
	entries, err := r.scorer.History(mux.Vars(req)["owner"])
	if err != nil {
		return err
	}
	res := make([]*HistoryEntry, 0, len(entries))
	for _, e := range entries {
		res = append(res, &HistoryEntry{
			Timestamp: e.Time(),
			Overall:   e.Overall,
			EventType: e.EventType,
			Impact:    e.Impact,
			Details:   e.Details,
		})
	}
	return utils.WriteJSON(w, res)
}

func (r *Reputation) handleCheckAccess(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	decision, err := r.scorer.CheckAccess(vars["owner"], vars["feature"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, decision)
}

func (r *Reputation) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{owner}").
		Methods(http.MethodGet).
		Name("GET /reputation/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetScore))
	sub.Path("/{owner}/history").
		Methods(http.MethodGet).
		Name("GET /reputation/{owner}/history").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetHistory))
	sub.Path("/{owner}/access/{feature}").
		Methods(http.MethodGet).
		Name("GET /reputation/{owner}/access/{feature}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleCheckAccess))
}

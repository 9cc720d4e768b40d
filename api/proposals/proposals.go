// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposals

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/governance"
)

const defaultLimit = 100

type Proposals struct {
	engine *governance.Engine
}

func New(engine *governance.Engine) *Proposals {
	return &Proposals{engine}
}

// handleGetProposals lists proposals oldest first, optionally filtered by ?status=.
func (p *Proposals) handleGetProposals(w http.ResponseWriter, req *http.Request) error {
	offset, err := utils.QueryUint(req, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := utils.QueryUint(req, "limit", defaultLimit)
	if err != nil {
		return err
	}
	status := req.URL.Query().Get("status")

	all, err := p.engine.Proposals()
	if err != nil {
		return err
	}
	list := make([]*governance.Proposal, 0)
	for _, prop := range all {
		if status != "" && prop.Status.String() != status {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if uint64(len(list)) >= limit {
			break
		}
		list = append(list, prop)
	}
	return utils.WriteJSON(w, list)
}

func (p *Proposals) handleGetProposal(w http.ResponseWriter, req *http.Request) error {
	prop, err := p.engine.Proposal(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, prop)
}

func (p *Proposals) handleGetVotes(w http.ResponseWriter, req *http.Request) error {
	votes, err := p.engine.VotesOf(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, votes)
}

func (p *Proposals) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /proposals").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProposals))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /proposals/{id}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProposal))
	sub.Path("/{id}/votes").
		Methods(http.MethodGet).
		Name("GET /proposals/{id}/votes").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetVotes))
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/vesting"
)

type Owner struct {
	Owner     string              `json:"owner"`
	Claimable *big.Int            `json:"claimable"`
	Schedules []*vesting.Schedule `json:"schedules"`
}

type Vesting struct {
	scheduler *vesting.Scheduler
}

func New(scheduler *vesting.Scheduler) *Vesting {
	return &Vesting{scheduler}
}

func (v *Vesting) handleGetOwner(w http.ResponseWriter, req *http.Request) error {
	owner := mux.Vars(req)["owner"]
	schedules, err := v.scheduler.SchedulesOf(owner)
	if err != nil {
		return err
	}
	claimable, err := v.scheduler.Claimable(owner)
	if err != nil {
		return err
	}
	if schedules == nil {
		schedules = []*vesting.Schedule{}
	}
	return utils.WriteJSON(w, &Owner{
		Owner:     owner,
		Claimable: claimable,
		Schedules: schedules,
	})
}

func (v *Vesting) handleGetSchedule(w http.ResponseWriter, req *http.Request) error {
	s, err := v.scheduler.Schedule(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, s)
}

func (v *Vesting) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/schedule/{id}").
		Methods(http.MethodGet).
		Name("GET /vesting/schedule/{id}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetSchedule))
	sub.Path("/{owner}").
		Methods(http.MethodGet).
		Name("GET /vesting/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetOwner))
}

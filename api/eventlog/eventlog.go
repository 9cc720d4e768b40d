// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/eventdb"
	"github.com/vechain/govcore/events"
)

// EventLog serves the event journal.
type EventLog struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *EventLog {
	return &EventLog{db, limit}
}

func parseTime(req *http.Request, name string) (time.Time, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return t, nil
}

func (e *EventLog) handleFilter(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	filter := &eventdb.Filter{
		Type:  query.Get("type"),
		Owner: query.Get("owner"),
		Order: eventdb.ASC,
	}
	switch order := query.Get("order"); order {
	case "", string(eventdb.ASC):
	case string(eventdb.DESC):
		filter.Order = eventdb.DESC
	default:
		return utils.BadRequest(errors.Errorf("order: unknown order %q", order))
	}

	var err error
	if filter.From, err = parseTime(req, "from"); err != nil {
		return err
	}
	if filter.To, err = parseTime(req, "to"); err != nil {
		return err
	}
	if filter.Offset, err = utils.QueryUint(req, "offset", 0); err != nil {
		return err
	}
	if filter.Limit, err = utils.QueryUint(req, "limit", e.limit); err != nil {
		return err
	}
	if filter.Limit > e.limit {
		return utils.Forbidden(errors.Errorf("limit: exceeds maximum of %d", e.limit))
	}

	evs, err := e.db.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	if evs == nil {
		evs = []events.Event{}
	}
	return utils.WriteJSON(w, evs)
}

func (e *EventLog) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}

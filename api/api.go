// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/govcore/api/eventlog"
	"github.com/vechain/govcore/api/health"
	"github.com/vechain/govcore/api/power"
	"github.com/vechain/govcore/api/proposals"
	"github.com/vechain/govcore/api/reputation"
	"github.com/vechain/govcore/api/stakes"
	"github.com/vechain/govcore/api/subscriptions"
	"github.com/vechain/govcore/api/vesting"
	"github.com/vechain/govcore/app"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	EventsLimit          uint64
	SubscriptionBacklog  int
}

// New return api router
func New(a *app.App, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}

	router := mux.NewRouter()

	stakes.New(a.Staking).
		Mount(router, "/stakes")
	power.New(a.VotingPower, a.Delegations).
		Mount(router)
	proposals.New(a.Governance).
		Mount(router, "/proposals")
	vesting.New(a.Vesting).
		Mount(router, "/vesting")
	reputation.New(a.Reputation).
		Mount(router, "/reputation")
	eventlog.New(a.EventDB, opts.EventsLimit).
		Mount(router, "/events")
	health.New(a.Health).
		Mount(router, "/health")
	subs := subscriptions.New(a.Bus, origins, opts.SubscriptionBacklog)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").Methods(http.MethodGet).Name("GET /metrics").Handler(h)
		}
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger || opts.SlowQueriesThreshold > 0 {
		handler = RequestLoggerHandler(handler, logger, opts.EnableReqLogger, opts.SlowQueriesThreshold)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}

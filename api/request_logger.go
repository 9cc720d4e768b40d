// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"

	"github.com/vechain/govcore/log"
)

// RequestLoggerHandler returns a http handler logging every request when enabled,
// and requests slower than slowThreshold otherwise. A zero threshold disables the
// slow request log.
func RequestLoggerHandler(handler http.Handler, logger log.Logger, enabled bool, slowThreshold time.Duration) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// call the original http.Handler we're wrapping
		handler.ServeHTTP(w, r)

		duration := time.Since(start)
		if enabled || (slowThreshold > 0 && duration > slowThreshold) {
			logger.Info("API Request",
				"DurationMs", duration.Milliseconds(),
				"Timestamp", time.Now().Unix(),
				"URI", r.URL.String(),
				"Method", r.Method,
			)
		}
	}

	// http.HandlerFunc wraps a function so that it
	// implements http.Handler interface
	return http.HandlerFunc(fn)
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"

	"github.com/vechain/govcore/api/utils"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveConns = metrics.LazyLoadGauge("api_ws_active_connections")
	metricDropped     = metrics.LazyLoadCounter("api_ws_dropped_messages_total")
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

type Subscriptions struct {
	bus      *events.Bus
	backlog  int
	upgrader *websocket.Upgrader
	cache    *messageCache

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates the websocket event feed. backlog bounds the messages queued per
// connection; a connection that falls further behind loses messages.
func New(bus *events.Bus, allowedOrigins []string, backlog int) *Subscriptions {
	if backlog < 1 {
		backlog = 1
	}
	return &Subscriptions{
		bus:     bus,
		backlog: backlog,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, u.Host) || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		cache: newMessageCache(1000),
		done:  make(chan struct{}),
	}
}

// matcher selects the events a connection asked for.
type matcher struct {
	types    map[string]bool
	category string
	owner    string
}

func parseMatcher(query url.Values) *matcher {
	m := &matcher{
		category: query.Get("category"),
		owner:    query.Get("owner"),
	}
	if s := query.Get("type"); s != "" {
		m.types = make(map[string]bool)
		for _, t := range strings.Split(s, ",") {
			m.types[strings.TrimSpace(t)] = true
		}
	}
	return m
}

func (m *matcher) Match(ev events.Event) bool {
	if m.types != nil && !m.types[ev.Type] {
		return false
	}
	if m.category != "" && ev.Category != m.category {
		return false
	}
	return m.owner == "" || ev.OwnerID == m.owner
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	m := parseMatcher(req.URL.Query())

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		// the upgrader already replied to the client
		return nil
	}
	defer conn.Close()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.closeConn(conn, websocket.CloseGoingAway, "shutting down")
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	metricActiveConns().Add(1)
	defer metricActiveConns().Add(-1)

	queue := make(chan events.Event, s.backlog)
	unsubscribe := s.bus.Subscribe("ws-"+uuid.New(), func(ev events.Event) error {
		if !m.Match(ev) {
			return nil
		}
		select {
		case queue <- ev:
		default:
			metricDropped().Add(1)
		}
		return nil
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go s.pong(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			s.closeConn(conn, websocket.CloseGoingAway, "shutting down")
			return nil
		case <-closed:
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Debug("failed to send ping", "err", err)
				return nil
			}
		case ev := <-queue:
			msg, _, err := s.cache.GetOrAdd(ev.ID, func() ([]byte, error) {
				return json.Marshal(ev)
			})
			if err != nil {
				s.closeConn(conn, websocket.CloseInternalServerErr, err.Error())
				return nil
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("failed to write event", "err", err)
				return nil
			}
		}
	}
}

// pong drains the connection so control frames are processed, closing closed when
// the peer goes away.
func (s *Subscriptions) pong(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket closed", "err", err)
			}
			return
		}
	}
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		logger.Debug("failed to send close message", "err", err)
	}
}

// Close ends every open subscription and waits for their handlers to return.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}

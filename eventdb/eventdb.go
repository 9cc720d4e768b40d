// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/govcore/events"
)

type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Filter selects journaled events. Zero fields match everything.
type Filter struct {
	Type   string
	Owner  string
	From   time.Time
	To     time.Time
	Order  OrderType
	Offset uint64
	Limit  uint64
}

// DeadLetter is an event that could not be delivered to a subscriber.
type DeadLetter struct {
	Event      events.Event `json:"event"`
	Subscriber string       `json:"subscriber"`
	Attempts   int          `json:"attempts"`
	Cause      string       `json:"cause"`
	Time       time.Time    `json:"time"`
}

// EventDB journals published events and dead letters in sqlite.
type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens an event db at path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// sqlite allows a single writer; ":memory:" databases also live per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema + deadLetterTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{path, db, driverVer}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Journal stores ev. Storing the same event id twice is a no-op, so it is safe
// as a retried subscriber.
func (db *EventDB) Journal(ev events.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = db.db.Exec("INSERT OR IGNORE INTO event(id, time, type, category, owner, agent, payload) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ev.ID,
		ev.Timestamp.UnixNano(),
		ev.Type,
		ev.Category,
		ev.OwnerID,
		ev.AgentID,
		string(payload),
	)
	return errors.Wrap(err, "journal event")
}

// DeadLetter implements events.DeadLetterSink.
func (db *EventDB) DeadLetter(ev events.Event, subscriber string, attempts int, cause error) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err = db.db.Exec("INSERT INTO dead_letter(eventID, subscriber, attempts, cause, time, event) VALUES (?, ?, ?, ?, ?, ?)",
		ev.ID,
		subscriber,
		attempts,
		msg,
		time.Now().UnixNano(),
		string(data),
	)
	return errors.Wrap(err, "store dead letter")
}

// Filter returns journaled events matching filter, oldest first unless ordered DESC.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]events.Event, error) {
	if filter == nil {
		filter = &Filter{}
	}
	var args []any
	stmt := "SELECT id, time, type, category, owner, agent, payload FROM event WHERE 1"
	if filter.Type != "" {
		stmt += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Owner != "" {
		stmt += " AND owner = ?"
		args = append(args, filter.Owner)
	}
	if !filter.From.IsZero() {
		stmt += " AND time >= ?"
		args = append(args, filter.From.UnixNano())
	}
	if !filter.To.IsZero() {
		stmt += " AND time <= ?"
		args = append(args, filter.To.UnixNano())
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Limit > 0 {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Offset, filter.Limit)
	}

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			ev      events.Event
			nanos   int64
			payload string
		)
		if err := rows.Scan(&ev.ID, &nanos, &ev.Type, &ev.Category, &ev.OwnerID, &ev.AgentID, &payload); err != nil {
			return nil, err
		}
		ev.Timestamp = time.Unix(0, nanos)
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// DeadLetters returns stored dead letters, oldest first. An empty subscriber matches all.
func (db *EventDB) DeadLetters(ctx context.Context, subscriber string) ([]DeadLetter, error) {
	stmt := "SELECT subscriber, attempts, cause, time, event FROM dead_letter"
	var args []any
	if subscriber != "" {
		stmt += " WHERE subscriber = ?"
		args = append(args, subscriber)
	}
	stmt += " ORDER BY seq ASC"

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeadLetter
	for rows.Next() {
		var (
			dl    DeadLetter
			nanos int64
			data  string
		)
		if err := rows.Scan(&dl.Subscriber, &dl.Attempts, &dl.Cause, &nanos, &data); err != nil {
			return nil, err
		}
		dl.Time = time.Unix(0, nanos)
		if err := json.Unmarshal([]byte(data), &dl.Event); err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	time INTEGER NOT NULL,
	type TEXT NOT NULL,
	category TEXT NOT NULL,
	owner TEXT NOT NULL,
	agent TEXT NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(type);
CREATE INDEX IF NOT EXISTS event_i1 ON event(owner);
CREATE INDEX IF NOT EXISTS event_i2 ON event(time);
`

const deadLetterTableSchema = `CREATE TABLE IF NOT EXISTS dead_letter (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	eventID TEXT NOT NULL,
	subscriber TEXT NOT NULL,
	attempts INTEGER NOT NULL,
	cause TEXT NOT NULL,
	time INTEGER NOT NULL,
	event TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS dead_letter_i0 ON dead_letter(subscriber);
`

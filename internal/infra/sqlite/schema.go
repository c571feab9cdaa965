// Ledger schema.
// Entities own exactly one account; credits are issued against entities;
// credit_map is the many-to-many holding table; transaction_log is the
// append-only audit trail and deliberately carries no foreign keys so that
// history survives entity and credit removal.
package sqlite

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Reference tables first — entities point at them.
		`CREATE TABLE IF NOT EXISTS cities (
			id      TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			state   TEXT NOT NULL,
			country TEXT NOT NULL,
			UNIQUE(name, state, country)
		)`,

		`CREATE TABLE IF NOT EXISTS industries (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS venues (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			address      TEXT NOT NULL DEFAULT '',
			zipcode      TEXT NOT NULL DEFAULT '',
			city_id      TEXT NOT NULL REFERENCES cities(id),
			date_created TEXT NOT NULL,
			date_active  TEXT NOT NULL
		)`,

		// Participants. Vendor and marketplace attributes live on the same
		// row behind the kind discriminator.
		`CREATE TABLE IF NOT EXISTS entities (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL CHECK(kind IN ('personal','vendor','marketplace')),
			name         TEXT NOT NULL UNIQUE,
			email        TEXT NOT NULL DEFAULT '',
			can_issue    INTEGER NOT NULL DEFAULT 0,
			rating       REAL NOT NULL DEFAULT 0,
			industry_id  TEXT REFERENCES industries(id),
			is_csa       INTEGER NOT NULL DEFAULT 0,
			max_issue    TEXT NOT NULL DEFAULT '0',
			city_id      TEXT REFERENCES cities(id),
			date_created TEXT NOT NULL,
			date_active  TEXT NOT NULL
		)`,

		// One wallet per entity. amount_total is maintained in the same
		// transaction as every credit_map mutation and must equal the sum of
		// the account's holdings at all times.
		`CREATE TABLE IF NOT EXISTS accounts (
			id              TEXT PRIMARY KEY,
			entity_id       TEXT NOT NULL UNIQUE REFERENCES entities(id) ON DELETE CASCADE,
			amount_total    TEXT NOT NULL DEFAULT '0',
			last_transacted TEXT
		)`,

		// Issuer and series are immutable once created.
		`CREATE TABLE IF NOT EXISTS credits (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			issuer_id       TEXT NOT NULL REFERENCES entities(id),
			series          INTEGER NOT NULL,
			amount_issued   TEXT NOT NULL,
			amount_redeemed TEXT NOT NULL DEFAULT '0',
			date_issued     TEXT NOT NULL,
			date_expire     TEXT NOT NULL,
			last_transacted TEXT,
			UNIQUE(issuer_id, name, series)
		)`,

		// Holdings: how much of each credit an account holds. Amounts never
		// go negative; rows are kept at zero rather than deleted.
		`CREATE TABLE IF NOT EXISTS credit_map (
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			credit_id  TEXT NOT NULL REFERENCES credits(id),
			amount     TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (account_id, credit_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_map_credit ON credit_map(credit_id)`,

		// Append-only audit trail. Timestamps are unix nanoseconds so range
		// queries and newest-first ordering need no string parsing. No
		// foreign keys: rows outlive the accounts and credits they mention.
		`CREATE TABLE IF NOT EXISTS transaction_log (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			from_account TEXT NOT NULL,
			to_account   TEXT NOT NULL,
			credit_id    TEXT NOT NULL,
			amount       TEXT NOT NULL,
			venue_id     TEXT NOT NULL,
			redeemed     INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_txlog_from ON transaction_log(from_account, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_txlog_to ON transaction_log(to_account, timestamp)`,

		// Vendor ↔ marketplace affiliations.
		`CREATE TABLE IF NOT EXISTS affiliations (
			marketplace_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			vendor_id      TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			date_started   TEXT NOT NULL,
			PRIMARY KEY (marketplace_id, vendor_id)
		)`,

		// Entity ↔ venue associations.
		`CREATE TABLE IF NOT EXISTS venue_map (
			entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			venue_id  TEXT NOT NULL REFERENCES venues(id),
			PRIMARY KEY (entity_id, venue_id)
		)`,

		// Passive relationships ("like", "follow", …) from a personal entity.
		`CREATE TABLE IF NOT EXISTS relationships (
			name         TEXT NOT NULL,
			holder_id    TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			entity_id    TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			date_started TEXT NOT NULL,
			PRIMARY KEY (holder_id, entity_id, name)
		)`,
	}
}

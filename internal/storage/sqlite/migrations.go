package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Amounts are stored as TEXT decimal strings: they must round-trip exactly
// across the full signed 128-bit range, which INTEGER columns cannot hold.
const schema = `
CREATE TABLE IF NOT EXISTS admin_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    admin TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS escrow_receipts (
    recipient TEXT NOT NULL,
    idx INTEGER NOT NULL,
    amount TEXT NOT NULL,
    depositor TEXT NOT NULL,
    token TEXT NOT NULL,
    bound_kind TEXT NOT NULL,
    bound_timestamp INTEGER NOT NULL,
    PRIMARY KEY (recipient, idx)
);

CREATE TABLE IF NOT EXISTS escrow_receipt_counts (
    recipient TEXT PRIMARY KEY,
    count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS retainer_balances (
    retainor TEXT NOT NULL,
    retainee TEXT NOT NULL,
    amount TEXT NOT NULL,
    token TEXT NOT NULL,
    PRIMARY KEY (retainor, retainee)
);

CREATE TABLE IF NOT EXISTS pending_bills (
    retainor TEXT NOT NULL,
    retainee TEXT NOT NULL,
    amount TEXT NOT NULL,
    token TEXT NOT NULL,
    notes TEXT NOT NULL,
    bill_date TEXT NOT NULL,
    PRIMARY KEY (retainor, retainee)
);

CREATE TABLE IF NOT EXISTS retainer_receipts (
    retainor TEXT NOT NULL,
    retainee TEXT NOT NULL,
    idx INTEGER NOT NULL,
    bill_amount TEXT NOT NULL,
    bill_token TEXT NOT NULL,
    bill_notes TEXT NOT NULL,
    bill_date TEXT NOT NULL,
    notes TEXT NOT NULL,
    receipt_date TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (retainor, retainee, idx)
);

CREATE TABLE IF NOT EXISTS retainer_history_indexes (
    retainor TEXT NOT NULL,
    retainee TEXT NOT NULL,
    idx INTEGER NOT NULL,
    PRIMARY KEY (retainor, retainee)
);

CREATE TABLE IF NOT EXISTS retainee_info (
    retainee TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS retainee_retainors (
    retainee TEXT NOT NULL,
    position INTEGER NOT NULL,
    retainor TEXT NOT NULL,
    PRIMARY KEY (retainee, position),
    FOREIGN KEY (retainee) REFERENCES retainee_info(retainee) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS retainor_info (
    retainor TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS retainor_retainees (
    retainor TEXT NOT NULL,
    position INTEGER NOT NULL,
    retainee TEXT NOT NULL,
    PRIMARY KEY (retainor, position),
    FOREIGN KEY (retainor) REFERENCES retainor_info(retainor) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_retainer_receipts_pair ON retainer_receipts(retainor, retainee);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

package store

// Schema shared by the SQL stores. Payloads are stored as text so both
// PostgreSQL and SQLite accept the same DDL.
const schema = `
CREATE TABLE IF NOT EXISTS op_log (
	height     BIGINT PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL
)`

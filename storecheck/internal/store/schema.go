package store

// Schema holds page results and batch summaries. started_at and
// created_at are unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS page_results (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	platform       TEXT NOT NULL DEFAULT '',
	passed         INTEGER NOT NULL,
	critical_count INTEGER NOT NULL DEFAULT 0,
	warning_count  INTEGER NOT NULL DEFAULT 0,
	degraded       INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	started_at     INTEGER NOT NULL,
	duration_ms    INTEGER NOT NULL DEFAULT 0,
	body           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_page_results_url ON page_results(url, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_page_results_started ON page_results(started_at DESC);

CREATE TABLE IF NOT EXISTS batch_summaries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	total      INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

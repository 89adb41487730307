package db

const Schema = `
CREATE TABLE IF NOT EXISTS run_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	startedat INTEGER NOT NULL,
	accountidx INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	servicesfound INTEGER NOT NULL DEFAULT 0,
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_history_startedat ON run_history (startedat);
`

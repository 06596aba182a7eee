package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Utterances are the sentences spoken during a session.
		`CREATE TABLE IF NOT EXISTS utterances (
			id TEXT PRIMARY KEY,
			session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
			raw TEXT NOT NULL,
			sentence TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			core_word TEXT NOT NULL DEFAULT '',
			predicate TEXT NOT NULL DEFAULT '',
			question INTEGER NOT NULL DEFAULT 0,
			enhanced INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		// Vocabulary rows: kind is one of category, subject, core, predicate, subject_predicate.
		// parent is the category for core words and subject predicates, and the
		// category_core key for predicates.
		`CREATE TABLE IF NOT EXISTS vocabulary (
			kind TEXT NOT NULL CHECK(kind IN ('category', 'subject', 'core', 'predicate', 'subject_predicate')),
			parent TEXT NOT NULL DEFAULT '',
			id TEXT NOT NULL,
			label TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (kind, parent, id)
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_utterances_session_id ON utterances(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_utterances_created_at ON utterances(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

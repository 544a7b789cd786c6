package postgres

// SQL queries for day-entry storage.

const (
	// queryUpsertEntry replaces a day's numbers wholesale. The date key is
	// the primary key, so a second write for the same day is an edit.
	queryUpsertEntry = `
		INSERT INTO entries (date_key, numbers, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (date_key) DO UPDATE
		SET numbers = EXCLUDED.numbers, updated_at = NOW()
	`

	queryDeleteEntry = `
		DELETE FROM entries
		WHERE date_key = $1
	`

	queryGetEntry = `
		SELECT date_key, numbers
		FROM entries
		WHERE date_key = $1
	`

	// queryListEntries fetches the whole log. Ordering is a convenience for
	// inspection only; the engine re-sorts on every recompute.
	queryListEntries = `
		SELECT date_key, numbers
		FROM entries
		ORDER BY date_key ASC
	`
)

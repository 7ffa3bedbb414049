package store

import "database/sql"

// GetActivity returns the user's ledger row, or nil if none exists.
func (db *DB) GetActivity(userID int64) (*Activity, error) { return getActivity(db.DB, userID) }

// GetActivity reads the ledger row inside the transaction.
func (t *Tx) GetActivity(userID int64) (*Activity, error) { return getActivity(t.Tx, userID) }

func getActivity(q dbtx, userID int64) (*Activity, error) {
	var a Activity
	err := q.QueryRow(`
		SELECT user_id, username, first_name, last_seen, last_message_id, last_summary_ts
		FROM users WHERE user_id = ?`, userID).
		Scan(&a.UserID, &a.Username, &a.FirstName, &a.LastSeen, &a.LastMessageID, &a.LastSummaryTS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// RecordActivity upserts the ledger. Guarded fields (names, last_seen,
// last_message_id) only move forward: they update when observedAt is
// strictly greater than the stored last_seen. summaryAt, when nonzero,
// is stored unconditionally — a summary event always records its own
// timestamp even if last_seen itself doesn't advance.
func (db *DB) RecordActivity(a *Activity, summaryAt int64) error {
	return recordActivity(db.DB, a, summaryAt)
}

// RecordActivity upserts the ledger inside the transaction.
func (t *Tx) RecordActivity(a *Activity, summaryAt int64) error {
	return recordActivity(t.Tx, a, summaryAt)
}

func recordActivity(q dbtx, a *Activity, summaryAt int64) error {
	_, err := q.Exec(`
		INSERT INTO users (user_id, username, first_name, last_seen, last_message_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_seen = excluded.last_seen,
			last_message_id = excluded.last_message_id
		WHERE excluded.last_seen > users.last_seen`,
		a.UserID, a.Username, a.FirstName, a.LastSeen, a.LastMessageID)
	if err != nil {
		return err
	}
	if summaryAt != 0 {
		_, err = q.Exec(`UPDATE users SET last_summary_ts = ? WHERE user_id = ?`, summaryAt, a.UserID)
	}
	return err
}

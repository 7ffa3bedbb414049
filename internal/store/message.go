package store

import "time"

// InsertMessage stores a message (idempotent on message_id: a duplicate
// insert is a no-op, not an error).
func (db *DB) InsertMessage(m *Message) error { return insertMessage(db.DB, m) }

// InsertMessage stores a message inside the transaction.
func (t *Tx) InsertMessage(m *Message) error { return insertMessage(t.Tx, m) }

func insertMessage(q dbtx, m *Message) error {
	now := time.Now().UnixMilli()
	_, err := q.Exec(`
		INSERT INTO messages (message_id, chat_id, user_id, username, first_name, body, ts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING`,
		m.MessageID, m.ChatID, m.UserID, m.Username, m.FirstName, m.Body, m.Timestamp, now)
	return err
}

// UnreadSince returns messages strictly newer than the cutoff that were
// not authored by the given user, oldest first.
func (db *DB) UnreadSince(userID, cutoff int64) ([]Message, error) {
	return unreadSince(db.DB, userID, cutoff)
}

// UnreadSince runs the unread query inside the transaction.
func (t *Tx) UnreadSince(userID, cutoff int64) ([]Message, error) {
	return unreadSince(t.Tx, userID, cutoff)
}

func unreadSince(q dbtx, userID, cutoff int64) ([]Message, error) {
	// Unread is global across allowed chats; scoping per chat would add
	// "AND chat_id = ?" here.
	rows, err := q.Query(`
		SELECT message_id, chat_id, user_id, username, first_name, body, ts
		FROM messages
		WHERE ts > ? AND user_id != ?
		ORDER BY ts ASC`, cutoff, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.MessageID, &m.ChatID, &m.UserID, &m.Username, &m.FirstName, &m.Body, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountUnreadSince counts messages strictly newer than the cutoff not
// authored by the given user.
func (db *DB) CountUnreadSince(userID, cutoff int64) (int, error) {
	return countUnreadSince(db.DB, userID, cutoff)
}

// CountUnreadSince runs the count inside the transaction.
func (t *Tx) CountUnreadSince(userID, cutoff int64) (int, error) {
	return countUnreadSince(t.Tx, userID, cutoff)
}

func countUnreadSince(q dbtx, userID, cutoff int64) (int, error) {
	var n int
	err := q.QueryRow(`
		SELECT COUNT(*) FROM messages
		WHERE ts > ? AND user_id != ?`, cutoff, userID).Scan(&n)
	return n, err
}

// PruneMessagesBefore deletes messages older than the cutoff and
// returns the number of rows removed. The janitor runs this hourly with
// the retention ceiling.
func (db *DB) PruneMessagesBefore(cutoff int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM messages WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

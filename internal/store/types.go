package store

// Message represents one observed chat message. Rows are immutable once
// stored; timestamps are Unix milliseconds.
type Message struct {
	MessageID int64
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Body      string
	Timestamp int64
}

// DisplayName prefers the first name over the username, matching how
// summaries attribute lines.
func (m *Message) DisplayName() string {
	if m.FirstName != "" {
		return m.FirstName
	}
	return m.Username
}

// Activity is the per-user ledger row: read position and summary
// history. LastSummaryTS is 0 when the user never received a summary.
type Activity struct {
	UserID        int64
	Username      string
	FirstName     string
	LastSeen      int64
	LastMessageID int64
	LastSummaryTS int64
}

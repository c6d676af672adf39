package moderation

// ReviewRequest is published to moderation.check by chat servers when a
// message needs content review before delivery.
type ReviewRequest struct {
	SessionID string `json:"session_id"`
	ChatID    string `json:"chat_id"`
	Sender    string `json:"sender"` // account fingerprint, used for strike tracking
	Text      string `json:"text"`
	Ts        int64  `json:"ts"`
}

// ReviewResult is published back to the requesting chat server with the
// review outcome. Messages carries one user-facing sentence per reason so
// the chat server can surface a rejection or confirmation prompt directly.
type ReviewResult struct {
	SessionID     string     `json:"session_id"`
	ChatID        string     `json:"chat_id"`
	Allowed       bool       `json:"allowed"`
	Severity      Severity   `json:"severity"`
	Reasons       []Category `json:"reasons,omitempty"`
	Messages      []string   `json:"messages,omitempty"`
	Confidence    *float64   `json:"confidence,omitempty"`
	Muted         bool       `json:"muted,omitempty"`
	MuteRemaining int        `json:"mute_remaining,omitempty"` // seconds
}

// FlaggedEvent is broadcast on moderation.flagged for admin dashboards
// whenever a message is not allowed through.
type FlaggedEvent struct {
	ChatID   string     `json:"chat_id"`
	Sender   string     `json:"sender"`
	Severity Severity   `json:"severity"`
	Reasons  []Category `json:"reasons"`
	Ts       int64      `json:"ts"`
}

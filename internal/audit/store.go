// Package audit provides PostgreSQL-backed storage for moderation
// decisions. Every message that is not cleanly allowed is recorded with the
// categories that triggered, the rules that matched, the classifier's raw
// response, and a snapshot of the surrounding conversation for moderator
// review.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one persisted moderation decision.
type Entry struct {
	ID              string
	Sender          string // account fingerprint of the message author
	ChatID          string
	Text            string
	Severity        string // "block" or "warn"
	Reasons         []string
	FlaggedPatterns []string
	Confidence      *float64
	RawExternal     json.RawMessage
	Context         []ContextMessage // last few messages from the chat
	CreatedAt       time.Time
}

// ContextMessage is one message in the conversation snapshot attached to
// an audit entry.
type ContextMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}

// Store manages moderation audit entries in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts an audit entry. Reasons, patterns, and the conversation
// snapshot are marshalled to JSONB. An ID is assigned if the entry has none.
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	reasonsJSON, err := json.Marshal(entry.Reasons)
	if err != nil {
		return fmt.Errorf("audit: marshal reasons: %w", err)
	}

	var patternsJSON []byte
	if len(entry.FlaggedPatterns) > 0 {
		patternsJSON, err = json.Marshal(entry.FlaggedPatterns)
		if err != nil {
			return fmt.Errorf("audit: marshal patterns: %w", err)
		}
	}

	var contextJSON []byte
	if len(entry.Context) > 0 {
		contextJSON, err = json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("audit: marshal context: %w", err)
		}
	}

	var rawExternal []byte
	if len(entry.RawExternal) > 0 {
		rawExternal = entry.RawExternal
	}

	const query = `
		INSERT INTO moderation_audit
			(id, sender, chat_id, message, severity, reasons, flagged_patterns, confidence, raw_external, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Sender,
		entry.ChatID,
		entry.Text,
		entry.Severity,
		reasonsJSON,
		patternsJSON,
		entry.Confidence,
		rawExternal,
		contextJSON,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// CountRecent returns the number of blocked-message entries for a sender
// within the given time window. Used by escalation logic and admin views.
func (s *Store) CountRecent(ctx context.Context, sender string, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM moderation_audit
		WHERE sender = $1
		  AND severity = 'block'
		  AND created_at >= NOW() - $2::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, sender, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("audit: count recent: %w", err)
	}
	return count, nil
}

// ListRecent returns the most recent entries, newest first, for moderator
// review. The conversation snapshot and raw classifier output are included.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, sender, chat_id, message, severity, reasons,
		       COALESCE(flagged_patterns, 'null'), confidence,
		       COALESCE(raw_external, 'null'), COALESCE(context, 'null'), created_at
		FROM moderation_audit
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			reasonsJSON  []byte
			patternsJSON []byte
			rawExternal  []byte
			contextJSON  []byte
			confidence   sql.NullFloat64
		)
		err := rows.Scan(&entry.ID, &entry.Sender, &entry.ChatID, &entry.Text,
			&entry.Severity, &reasonsJSON, &patternsJSON, &confidence,
			&rawExternal, &contextJSON, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}

		if err := json.Unmarshal(reasonsJSON, &entry.Reasons); err != nil {
			return nil, fmt.Errorf("audit: unmarshal reasons: %w", err)
		}
		// Optional columns were coalesced to JSON null; Unmarshal leaves the
		// target untouched for null.
		if err := json.Unmarshal(patternsJSON, &entry.FlaggedPatterns); err != nil {
			return nil, fmt.Errorf("audit: unmarshal patterns: %w", err)
		}
		if err := json.Unmarshal(contextJSON, &entry.Context); err != nil {
			return nil, fmt.Errorf("audit: unmarshal context: %w", err)
		}
		if string(rawExternal) != "null" {
			entry.RawExternal = json.RawMessage(rawExternal)
		}
		if confidence.Valid {
			entry.Confidence = &confidence.Float64
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate entries: %w", err)
	}
	return entries, nil
}

package sqlstore

import (
	"context"
	"time"

	"duochat/internal/app/message"
)

const messageColumns = "id, sender_id, receiver_id, text, image_url, seen, created_at, updated_at"

func (s *SQLStore) AppendMessage(ctx context.Context, m *message.Message) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Seen = false

	query := s.rebind(`INSERT INTO messages (id, sender_id, receiver_id, text, image_url, seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.ImageURL, m.Seen, m.CreatedAt, m.UpdatedAt)
	return err
}

// Conversation returns the full history between two users, chronological ascending.
func (s *SQLStore) Conversation(ctx context.Context, userA, userB string) ([]message.Message, error) {
	query := s.rebind("SELECT " + messageColumns + ` FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC`)
	return s.queryMessages(ctx, query, userA, userB, userB, userA)
}

// MarkSeen flips one message to seen. Marking an already-seen or nonexistent
// message is a deliberate no-op, not an error.
func (s *SQLStore) MarkSeen(ctx context.Context, messageID string) error {
	query := s.rebind("UPDATE messages SET seen = TRUE, updated_at = ? WHERE id = ? AND seen = FALSE")
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), messageID)
	return err
}

// MarkAllSeenFrom flips every unseen message from senderID to receiverID.
// A single UPDATE statement, so the flip is atomic with respect to concurrent
// appends on both backends.
func (s *SQLStore) MarkAllSeenFrom(ctx context.Context, senderID, receiverID string) error {
	query := s.rebind(`UPDATE messages SET seen = TRUE, updated_at = ?
		WHERE sender_id = ? AND receiver_id = ? AND seen = FALSE`)
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), senderID, receiverID)
	return err
}

// UnseenCounts aggregates unseen message counts per sender in one query,
// which gives the required point-in-time snapshot.
func (s *SQLStore) UnseenCounts(ctx context.Context, receiverID string) (map[string]int, error) {
	query := s.rebind(`SELECT sender_id, COUNT(*) FROM messages
		WHERE receiver_id = ? AND seen = FALSE
		GROUP BY sender_id`)

	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var senderID string
		var n int
		if err := rows.Scan(&senderID, &n); err != nil {
			return nil, err
		}
		counts[senderID] = n
	}
	return counts, rows.Err()
}

// MessagesInvolving returns every message the user sent or received, most
// recent activity first (ties broken by created_at, then id for stability).
func (s *SQLStore) MessagesInvolving(ctx context.Context, userID string) ([]message.Message, error) {
	query := s.rebind("SELECT " + messageColumns + ` FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY updated_at DESC, created_at DESC, id DESC`)
	return s.queryMessages(ctx, query, userID, userID)
}

func (s *SQLStore) queryMessages(ctx context.Context, query string, args ...any) ([]message.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []message.Message
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.ImageURL, &m.Seen, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

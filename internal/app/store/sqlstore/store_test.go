package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"duochat/internal/app/db"
	"duochat/internal/app/message"
	"duochat/internal/app/user"
)

// newTestStore opens a migrated in-memory sqlite database. The pool is capped at
// one connection, so the memory database survives for the whole test.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	sqlDB, err := db.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return New(sqlDB, "sqlite3")
}

func createTestUser(t *testing.T, s *SQLStore, name, email string) *user.User {
	t.Helper()

	u := &user.User{
		ID:           uuid.New().String(),
		FullName:     name,
		Email:        email,
		PasswordHash: "x",
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return u
}

func sendTestMessage(t *testing.T, s *SQLStore, from, to *user.User, text string) *message.Message {
	t.Helper()

	m := &message.Message{
		ID:         uuid.New().String(),
		SenderID:   from.ID,
		ReceiverID: to.ID,
		Text:       text,
	}
	if err := s.AppendMessage(context.Background(), m); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}
	return m
}

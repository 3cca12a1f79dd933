// Package store defines the persistence interface for users and messages.
package store

import (
	"context"
	"errors"

	"duochat/internal/app/message"
	"duochat/internal/app/user"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// Store is the durable persistence layer. Implementations must make
// MarkAllSeenFrom atomic with respect to concurrent appends: a message appended
// mid-flip may or may not be included, but is never left partially updated.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, id string) (*user.User, error)
	ListUsersExcept(ctx context.Context, selfID string) ([]user.User, error)
	SearchUsersExcept(ctx context.Context, selfID, query string) ([]user.User, error)
	UpdateUserProfile(ctx context.Context, id, fullName, avatarURL string) (*user.User, error)

	// Message operations
	AppendMessage(ctx context.Context, m *message.Message) error
	Conversation(ctx context.Context, userA, userB string) ([]message.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	MarkAllSeenFrom(ctx context.Context, senderID, receiverID string) error

	// UnseenCounts returns, per sender, the number of unseen messages addressed
	// to receiverID. Computed as a single point-in-time read.
	UnseenCounts(ctx context.Context, receiverID string) (map[string]int, error)

	// MessagesInvolving returns every message sent or received by userID,
	// newest activity first. Input to the recency ranker.
	MessagesInvolving(ctx context.Context, userID string) ([]message.Message, error)
}

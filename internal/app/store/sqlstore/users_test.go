package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	appdb "duochat/internal/app/db"
	"duochat/internal/app/store"
	"duochat/internal/app/user"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestUser(t, s, "Alice Example", "alice@example.com")

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != created.ID || byEmail.FullName != "Alice Example" {
		t.Errorf("unexpected user: %+v", byEmail)
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("unexpected email: %s", byID.Email)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByID(context.Background(), uuid.New().String())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	createTestUser(t, s, "Alice", "alice@example.com")

	dup := &user.User{
		ID:           uuid.New().String(),
		FullName:     "Other Alice",
		Email:        "alice@example.com",
		PasswordHash: "x",
	}
	err := s.CreateUser(context.Background(), dup)
	if err == nil {
		t.Fatal("expected duplicate email to fail")
	}
	if !appdb.IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestSearchUsersExcept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	self := createTestUser(t, s, "Self", "self@example.com")
	createTestUser(t, s, "Bob Marley", "bob@example.com")
	createTestUser(t, s, "Carol", "carol@reggae.org")

	// matches full name, case-insensitive
	users, err := s.SearchUsersExcept(ctx, self.ID, "MARLEY")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(users) != 1 || users[0].FullName != "Bob Marley" {
		t.Errorf("expected Bob Marley, got %+v", users)
	}

	// matches email
	users, err = s.SearchUsersExcept(ctx, self.ID, "reggae")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(users) != 1 || users[0].FullName != "Carol" {
		t.Errorf("expected Carol, got %+v", users)
	}

	// never matches self
	users, err = s.SearchUsersExcept(ctx, self.ID, "self")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected no results, got %+v", users)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "Alice", "alice@example.com")

	updated, err := s.UpdateUserProfile(ctx, u.ID, "Alice B.", "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FullName != "Alice B." || updated.AvatarURL != "https://cdn.example.com/a.png" {
		t.Errorf("unexpected profile: %+v", updated)
	}

	_, err = s.UpdateUserProfile(ctx, uuid.New().String(), "Nobody", "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

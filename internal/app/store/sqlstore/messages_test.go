package sqlstore

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"duochat/internal/app/message"
)

func TestAppendAndConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "Alice", "alice@example.com")
	bob := createTestUser(t, s, "Bob", "bob@example.com")

	m1 := sendTestMessage(t, s, alice, bob, "hi")
	m2 := sendTestMessage(t, s, bob, alice, "hey")

	history, err := s.Conversation(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].ID != m1.ID || history[1].ID != m2.ID {
		t.Errorf("history out of order: %s, %s", history[0].Text, history[1].Text)
	}
	if history[0].Seen {
		t.Error("fresh message must not be seen")
	}
	if history[0].CreatedAt.IsZero() || !history[0].CreatedAt.Equal(history[0].UpdatedAt) {
		t.Errorf("expected created_at == updated_at on append, got %v / %v",
			history[0].CreatedAt, history[0].UpdatedAt)
	}

	// The pair is unordered: both directions return the same history.
	reversed, err := s.Conversation(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(reversed) != 2 || reversed[0].ID != m1.ID {
		t.Error("conversation must be identical regardless of argument order")
	}
}

func TestMarkSeenIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "Alice", "alice@example.com")
	bob := createTestUser(t, s, "Bob", "bob@example.com")
	m := sendTestMessage(t, s, alice, bob, "hi")

	if err := s.MarkSeen(ctx, m.ID); err != nil {
		t.Fatalf("first MarkSeen failed: %v", err)
	}

	history, _ := s.Conversation(ctx, alice.ID, bob.ID)
	firstUpdated := history[0].UpdatedAt
	if !history[0].Seen {
		t.Fatal("message not marked seen")
	}

	// Second mark is a no-op: state (including updated_at) is unchanged.
	if err := s.MarkSeen(ctx, m.ID); err != nil {
		t.Fatalf("second MarkSeen failed: %v", err)
	}
	history, _ = s.Conversation(ctx, alice.ID, bob.ID)
	if !history[0].Seen || !history[0].UpdatedAt.Equal(firstUpdated) {
		t.Error("repeated MarkSeen must not change stored state")
	}

	// Unknown id is a silent no-op.
	if err := s.MarkSeen(ctx, uuid.New().String()); err != nil {
		t.Errorf("MarkSeen on unknown id must not error, got %v", err)
	}
}

func TestMarkAllSeenFromIsDirectional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "Alice", "alice@example.com")
	bob := createTestUser(t, s, "Bob", "bob@example.com")

	sendTestMessage(t, s, alice, bob, "one")
	sendTestMessage(t, s, alice, bob, "two")
	mine := sendTestMessage(t, s, bob, alice, "reply")

	if err := s.MarkAllSeenFrom(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("MarkAllSeenFrom failed: %v", err)
	}

	history, _ := s.Conversation(ctx, alice.ID, bob.ID)
	for _, m := range history {
		if m.SenderID == alice.ID && !m.Seen {
			t.Errorf("message %q from alice should be seen", m.Text)
		}
		if m.ID == mine.ID && m.Seen {
			t.Error("bob's own message must not be flipped")
		}
	}
}

func TestUnseenCountsInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "Alice", "alice@example.com")
	bob := createTestUser(t, s, "Bob", "bob@example.com")
	carol := createTestUser(t, s, "Carol", "carol@example.com")

	sendTestMessage(t, s, alice, bob, "a1")
	sendTestMessage(t, s, alice, bob, "a2")
	sendTestMessage(t, s, carol, bob, "c1")
	seen := sendTestMessage(t, s, carol, bob, "c2")
	s.MarkSeen(ctx, seen.ID)
	sendTestMessage(t, s, bob, alice, "outbound")

	counts, err := s.UnseenCounts(ctx, bob.ID)
	if err != nil {
		t.Fatalf("UnseenCounts failed: %v", err)
	}
	if counts[alice.ID] != 2 {
		t.Errorf("expected 2 unseen from alice, got %d", counts[alice.ID])
	}
	if counts[carol.ID] != 1 {
		t.Errorf("expected 1 unseen from carol, got %d", counts[carol.ID])
	}
	if _, ok := counts[bob.ID]; ok {
		t.Error("bob's own outbound message must not be counted")
	}
}

func TestMessagesInvolvingOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	self := createTestUser(t, s, "Self", "self@example.com")
	p1 := createTestUser(t, s, "P1", "p1@example.com")
	p2 := createTestUser(t, s, "P2", "p2@example.com")

	first := sendTestMessage(t, s, p1, self, "older")
	second := sendTestMessage(t, s, self, p2, "newer")

	all, err := s.MessagesInvolving(ctx, self.ID)
	if err != nil {
		t.Fatalf("MessagesInvolving failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("expected newest message first, got %q then %q", all[0].Text, all[1].Text)
	}
}

// A message appended while the bulk seen-flip runs must come out either fully
// seen or fully unseen, never corrupt.
func TestMarkAllSeenFromConcurrentAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "Alice", "alice@example.com")
	bob := createTestUser(t, s, "Bob", "bob@example.com")

	for i := 0; i < 20; i++ {
		sendTestMessage(t, s, alice, bob, "pre")
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			m := &message.Message{
				ID:         uuid.New().String(),
				SenderID:   alice.ID,
				ReceiverID: bob.ID,
				Text:       "mid",
			}
			if err := s.AppendMessage(ctx, m); err != nil {
				t.Errorf("concurrent append failed: %v", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.MarkAllSeenFrom(ctx, alice.ID, bob.ID); err != nil {
			t.Errorf("MarkAllSeenFrom failed: %v", err)
		}
	}()
	wg.Wait()

	history, err := s.Conversation(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(history) != 40 {
		t.Fatalf("expected 40 messages, got %d", len(history))
	}
	for _, m := range history {
		if m.Text == "pre" && !m.Seen {
			t.Fatal("message existing before the flip must be seen")
		}
	}
}

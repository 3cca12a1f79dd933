package chatstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"duochat/internal/app/message"
	"duochat/internal/app/user"
)

type fakeBackend struct {
	mu           sync.Mutex
	conversation []message.Message
	contacts     []user.User
	unseen       map[string]int
	marked       chan string
	sendResult   *message.Message
	sendErr      error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		unseen: map[string]int{},
		marked: make(chan string, 16),
	}
}

func (f *fakeBackend) Conversation(ctx context.Context, peerID string) ([]message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]message.Message, len(f.conversation))
	copy(out, f.conversation)
	return out, nil
}

func (f *fakeBackend) MarkSeen(ctx context.Context, messageID string) error {
	f.marked <- messageID
	return nil
}

func (f *fakeBackend) Contacts(ctx context.Context, search string) ([]user.User, map[string]int, error) {
	return f.contactsCopy(), f.unseenCopy(), nil
}

func (f *fakeBackend) RecentContacts(ctx context.Context) ([]user.User, map[string]int, error) {
	return f.contactsCopy(), f.unseenCopy(), nil
}

func (f *fakeBackend) Send(ctx context.Context, peerID, text, image string) (*message.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendResult, nil
}

func (f *fakeBackend) contactsCopy() []user.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]user.User, len(f.contacts))
	copy(out, f.contacts)
	return out
}

func (f *fakeBackend) unseenCopy() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.unseen))
	for k, v := range f.unseen {
		out[k] = v
	}
	return out
}

func pushMsg(id, sender, receiver, text string) message.Message {
	now := time.Now().UTC()
	return message.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestOpenReplacesWholesaleAndZeroesUnseen(t *testing.T) {
	backend := newFakeBackend()
	backend.conversation = []message.Message{
		pushMsg("m1", "peer", "self", "hello"),
		pushMsg("m2", "self", "peer", "hi back"),
	}

	s := New(backend, "self")

	// Stale local state that the open must discard.
	s.messages = []message.Message{pushMsg("old", "peer", "self", "stale")}
	s.unseen["peer"] = 3

	msgs, err := s.Open(context.Background(), "peer")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" {
		t.Fatalf("open must replace the list wholesale, got %+v", msgs)
	}
	if s.Unseen("peer") != 0 {
		t.Fatalf("open must zero the peer's unseen count, got %d", s.Unseen("peer"))
	}
	if s.OpenPeer() != "peer" {
		t.Fatalf("open peer = %q", s.OpenPeer())
	}
}

func TestPushFromOpenPeerAppendsAndMarks(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, "self")

	if _, err := s.Open(context.Background(), "peer"); err != nil {
		t.Fatalf("open: %v", err)
	}

	s.HandlePush(pushMsg("m9", "peer", "self", "ping"))

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != "m9" {
		t.Fatalf("push from open peer must append, got %+v", msgs)
	}
	if !msgs[0].Seen {
		t.Fatal("pushed message from open peer must be locally seen")
	}
	if s.Unseen("peer") != 0 {
		t.Fatalf("open peer's unseen must stay zero, got %d", s.Unseen("peer"))
	}

	select {
	case id := <-backend.marked:
		if id != "m9" {
			t.Fatalf("marked wrong message: %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fire-and-forget mark request")
	}
}

func TestPushFromClosedPeerIncrementsUnseen(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, "self")

	if _, err := s.Open(context.Background(), "peer"); err != nil {
		t.Fatalf("open: %v", err)
	}

	s.HandlePush(pushMsg("m1", "other", "self", "psst"))
	s.HandlePush(pushMsg("m2", "other", "self", "psst again"))

	if got := s.Unseen("other"); got != 2 {
		t.Fatalf("unseen[other] = %d, want 2", got)
	}
	if len(s.Messages()) != 0 {
		t.Fatal("push from a closed peer must not touch the message list")
	}

	select {
	case id := <-backend.marked:
		t.Fatalf("closed-peer push must not mark, marked %s", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendAppendsOnlyServerRecord(t *testing.T) {
	backend := newFakeBackend()
	confirmed := pushMsg("server-id", "self", "peer", "hello")
	backend.sendResult = &confirmed

	s := New(backend, "self")
	if _, err := s.Open(context.Background(), "peer"); err != nil {
		t.Fatalf("open: %v", err)
	}

	m, err := s.Send(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.ID != "server-id" {
		t.Fatalf("send must return the server record, got %+v", m)
	}

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != "server-id" {
		t.Fatalf("local list must carry the server-assigned id, got %+v", msgs)
	}
}

func TestSendFailureLeavesStateUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = context.DeadlineExceeded

	s := New(backend, "self")
	if _, err := s.Open(context.Background(), "peer"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := s.Send(context.Background(), "hello", ""); err == nil {
		t.Fatal("expected send failure")
	}
	if len(s.Messages()) != 0 {
		t.Fatal("failed send must not append locally")
	}

	s.Close()
	if _, err := s.Send(context.Background(), "hello", ""); err != ErrNoOpenConversation {
		t.Fatalf("send without open conversation: got %v", err)
	}
}

func TestPushPromotesSenderInRanking(t *testing.T) {
	backend := newFakeBackend()
	backend.contacts = []user.User{
		{ID: "p1", FullName: "Peer One"},
		{ID: "p2", FullName: "Peer Two"},
		{ID: "p3", FullName: "Peer Three"},
	}

	s := New(backend, "self")
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	s.HandlePush(pushMsg("m1", "p3", "self", "new activity"))

	contacts := s.Contacts()
	if contacts[0].ID != "p3" || contacts[1].ID != "p1" || contacts[2].ID != "p2" {
		t.Fatalf("expected [p3 p1 p2], got %+v", contacts)
	}
}

func TestRefreshKeepsOpenPeerZero(t *testing.T) {
	backend := newFakeBackend()
	backend.contacts = []user.User{{ID: "peer"}, {ID: "other"}}
	backend.unseen = map[string]int{"peer": 4, "other": 1}

	s := New(backend, "self")
	if _, err := s.Open(context.Background(), "peer"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := s.Unseen("peer"); got != 0 {
		t.Fatalf("open peer's unseen must stay zero after refresh, got %d", got)
	}
	if got := s.Unseen("other"); got != 1 {
		t.Fatalf("unseen[other] = %d, want 1", got)
	}
}

func TestOnlineSetExcludesSelf(t *testing.T) {
	s := New(newFakeBackend(), "self")

	s.SetOnline([]string{"self", "peer"})

	if !s.IsOnline("peer") {
		t.Fatal("peer should be online")
	}
	if s.IsOnline("self") {
		t.Fatal("own id must not appear in the online set")
	}
}

/*
Package chatstate holds the client-side conversation state and reconciles it
against server pushes and pulls.

All state transitions run under one mutex, so a live push arriving during a
user-initiated fetch can never interleave with it. The mutex is held across
backend pulls on purpose: the wholesale replace on open and the push append are
serialized against each other.
*/
package chatstate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"duochat/internal/app/message"
	"duochat/internal/app/user"
	"duochat/internal/pkg/logx"
)

// ErrNoOpenConversation is returned by Send when no conversation is open.
var ErrNoOpenConversation = errors.New("chatstate: no open conversation")

// Backend is the server transport the state machine drives. Implemented by the
// REST+websocket client, and by fakes in tests.
type Backend interface {
	Conversation(ctx context.Context, peerID string) ([]message.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	Contacts(ctx context.Context, search string) ([]user.User, map[string]int, error)
	RecentContacts(ctx context.Context) ([]user.User, map[string]int, error)
	Send(ctx context.Context, peerID, text, image string) (*message.Message, error)
}

// State is the per-session client state: the open conversation, the unseen
// counters, and the recency-ranked contact list.
type State struct {
	mu      sync.Mutex
	backend Backend
	selfID  string

	openPeer string
	messages []message.Message
	contacts []user.User
	unseen   map[string]int
	online   map[string]struct{}

	logger zerolog.Logger
}

func New(backend Backend, selfID string) *State {
	return &State{
		backend: backend,
		selfID:  selfID,
		unseen:  make(map[string]int),
		online:  make(map[string]struct{}),
		logger:  logx.Logger().With().Str("component", "chatstate").Logger(),
	}
}

// Open transitions the conversation with peerID to OPEN: a full history pull
// replaces the local message list wholesale and the peer's unseen count drops
// to zero. Opening one peer closes any previously open one.
func (s *State) Open(ctx context.Context, peerID string) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.backend.Conversation(ctx, peerID)
	if err != nil {
		// Prior state stays untouched on failure.
		return nil, err
	}

	s.openPeer = peerID
	s.messages = msgs
	delete(s.unseen, peerID)

	return s.snapshotMessagesLocked(), nil
}

// Close transitions back to no open conversation.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openPeer = ""
	s.messages = nil
}

// HandlePush applies one pushed message. From the open peer it lands in the
// message list, already seen, and the seen flip is reported back without
// waiting for confirmation. From anyone else it only bumps their unseen
// counter. Either way the sender moves to the top of the contact ranking.
func (s *State) HandlePush(m message.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.SenderID == s.openPeer && s.openPeer != "" {
		m.Seen = true
		s.messages = append(s.messages, m)

		// Fire-and-forget: a lost mark leaves the server unseen until the next
		// full history pull, which is accepted eventual consistency.
		go func(id string) {
			if err := s.backend.MarkSeen(context.Background(), id); err != nil {
				s.logger.Warn().Err(err).Str("message_id", id).Msg("mark seen failed")
			}
		}(m.ID)
	} else {
		s.unseen[m.SenderID]++
	}

	s.promoteContactLocked(m.SenderID)
}

// Send submits a message and appends the server's returned record. No
// optimistic local append happens before confirmation, so the local copy
// always carries the server-assigned id and timestamps.
func (s *State) Send(ctx context.Context, text, image string) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openPeer == "" {
		return nil, ErrNoOpenConversation
	}

	m, err := s.backend.Send(ctx, s.openPeer, text, image)
	if err != nil {
		return nil, err
	}

	s.messages = append(s.messages, *m)
	s.promoteContactLocked(s.openPeer)

	return m, nil
}

// Refresh re-pulls the recency-ranked contact list and the unseen map. The
// open peer's count stays zero locally even if the server still carries
// unflipped rows from a lost mark.
func (s *State) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, unseen, err := s.backend.RecentContacts(ctx)
	if err != nil {
		return err
	}

	if unseen == nil {
		unseen = make(map[string]int)
	}
	if s.openPeer != "" {
		delete(unseen, s.openPeer)
	}

	s.contacts = contacts
	s.unseen = unseen
	return nil
}

// Search pulls the filtered contact list without touching local ranking state.
func (s *State) Search(ctx context.Context, query string) ([]user.User, error) {
	users, _, err := s.backend.Contacts(ctx, query)
	return users, err
}

// SetOnline replaces the online-user set from a presence broadcast.
func (s *State) SetOnline(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == s.selfID {
			continue
		}
		s.online[id] = struct{}{}
	}
}

func (s *State) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.online[userID]
	return ok
}

// OpenPeer returns the id of the currently open conversation, or "".
func (s *State) OpenPeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openPeer
}

// Messages returns a copy of the open conversation's message list.
func (s *State) Messages() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotMessagesLocked()
}

// Contacts returns a copy of the recency-ranked contact list.
func (s *State) Contacts() []user.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]user.User, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// Unseen returns the unseen count for one peer.
func (s *State) Unseen(peerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unseen[peerID]
}

func (s *State) snapshotMessagesLocked() []message.Message {
	out := make([]message.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// promoteContactLocked moves peerID to the head of the contact list, which is
// the local recompute of the recency ranking after new activity. A peer not in
// the list yet is left for the next Refresh to place.
func (s *State) promoteContactLocked(peerID string) {
	for i, u := range s.contacts {
		if u.ID != peerID {
			continue
		}
		promoted := u
		copy(s.contacts[1:i+1], s.contacts[:i])
		s.contacts[0] = promoted
		return
	}
}

package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"duochat/internal/pkg/logx"
)

// Channel is the minimal push-channel handle the registry tracks. The concrete
// implementation is the websocket Client; tests register fakes.
type Channel interface {
	// Send queues one payload for delivery. It must not block.
	Send(payload []byte) error

	// Kick closes the channel because the session was replaced elsewhere.
	Kick(reason string)
}

// Registry maps an authenticated user to at most one active push channel.
// Absence of an entry means the user is offline. Nothing is persisted; the
// registry rebuilds from zero on process restart.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	logger   zerolog.Logger
}

// NewRegistry constructs an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]Channel),
		logger:   logx.Logger().With().Str("component", "presence").Logger(),
	}
}

// Register binds the channel as the user's active handle, silently replacing
// any prior entry. The replaced channel is kicked so stale tabs learn they
// were superseded.
func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	old, existed := r.channels[userID]
	r.channels[userID] = ch
	r.mu.Unlock()

	if existed && old != ch {
		r.logger.Warn().Str("user_id", userID).Msg("User already connected. Replacing old channel.")
		old.Kick("Session replaced by a new connection.")
	}
}

// Unregister removes the entry only if it still refers to ch. A disconnect
// handler for an old channel racing a fresh Register must not evict the new
// entry.
func (r *Registry) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.channels[userID]
	if !ok {
		return
	}
	if current != ch {
		r.logger.Info().Str("user_id", userID).Msg("Ignoring unregister for stale channel.")
		return
	}
	delete(r.channels, userID)
}

// Lookup returns the user's active channel, if any.
func (r *Registry) Lookup(userID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[userID]
	return ch, ok
}

// OnlineUserIDs returns the ids of every currently connected user.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	return ids
}

// Broadcast sends the payload to every connected channel, best-effort.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for userID, ch := range r.channels {
		if err := ch.Send(payload); err != nil {
			r.logger.Warn().Err(err).Str("user_id", userID).Msg("Broadcast send failed.")
		}
	}
}

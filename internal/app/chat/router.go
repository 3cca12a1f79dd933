package chat

import (
	"github.com/rs/zerolog"

	"duochat/internal/app/message"
	"duochat/internal/pkg/logx"
)

// Router pushes freshly persisted messages to their receiver's live channel.
//
// Delivery is at-most-once and best-effort on top of the store's durability:
// an offline receiver, a full send queue, or a broken socket all result in the
// push being dropped, and the message is recovered by the receiver's next
// history pull. No retry, no acknowledgement.
type Router struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewRouter constructs a Router over the given presence registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "delivery").Logger(),
	}
}

// Deliver pushes the message to the receiver's channel if one is registered.
// Failures are swallowed; the sender never learns whether the live push landed.
func (rt *Router) Deliver(m message.Message) {
	ch, online := rt.registry.Lookup(m.ReceiverID)
	if !online {
		return
	}

	payload, err := EncodeNewMessage(m)
	if err != nil {
		rt.logger.Error().Err(err).Str("message_id", m.ID).Msg("Failed to encode newMessage event.")
		return
	}

	if err := ch.Send(payload); err != nil {
		rt.logger.Warn().Err(err).
			Str("message_id", m.ID).
			Str("receiver_id", m.ReceiverID).
			Msg("Live push dropped. Receiver will recover via history pull.")
	}
}

// AnnouncePresence broadcasts the current online-user list to every connected
// client. Called after every connect and disconnect.
func (rt *Router) AnnouncePresence() {
	payload, err := EncodeOnlineUsers(rt.registry.OnlineUserIDs())
	if err != nil {
		rt.logger.Error().Err(err).Msg("Failed to encode onlineUsers event.")
		return
	}
	rt.registry.Broadcast(payload)
}

// Package message contains the message model shared by the store, the chat
// core, and the clients.
package message

import "time"

// Message is one direct message between two users. Exactly one of Text/ImageURL
// is expected to be present; the store does not enforce that structurally, the
// service validates it on send.
//
// Seen is the only mutable field and only ever flips false -> true.
type Message struct {
	// ID is the unique identifier for the message (UUID).
	ID string `json:"_id"`

	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`

	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image,omitempty"`

	// Seen reports whether the receiver has seen the message.
	Seen bool `json:"seen"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Counterpart returns the other participant of the message relative to userID.
func (m Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

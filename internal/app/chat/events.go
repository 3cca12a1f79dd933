/*
Package chat contains the real-time delivery core: the presence registry mapping
users to their single push channel, the websocket client implementation of that
channel, and the router that fans a persisted message out to its receiver.
*/
package chat

import (
	"encoding/json"

	"duochat/internal/app/message"
)

// Push event names emitted by the server. Clients emit no events on the push
// channel; acknowledgement happens over REST.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "onlineUsers"
)

// Event is the wire envelope for every push-channel emission.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EncodeNewMessage builds the newMessage event payload carrying the full
// authoritative message record.
func EncodeNewMessage(m message.Message) ([]byte, error) {
	return json.Marshal(Event{Event: EventNewMessage, Data: m})
}

// EncodeOnlineUsers builds the onlineUsers event payload carrying the ids of
// all currently connected users.
func EncodeOnlineUsers(ids []string) ([]byte, error) {
	return json.Marshal(Event{Event: EventOnlineUsers, Data: ids})
}

package chat

import (
	"encoding/binary"
	"testing"

	"duochat/internal/app/message"
)

func TestSendDuringTeardownIsDropped(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	client := NewClient(nil, "user-a")
	registry.Register("user-a", client)

	// The read pump exits and closes the send queue before the disconnect
	// handler gets to unregister. A push in that window must not panic.
	client.closeSend()

	router.Deliver(message.Message{ID: "m1", SenderID: "user-b", ReceiverID: "user-a", Text: "late"})

	if err := client.Send([]byte("x")); err == nil {
		t.Fatal("send on a torn-down client must fail")
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	client := NewClient(nil, "user-a")

	client.Kick("Session replaced by a new connection.")
	client.Kick("Session replaced by a new connection.")
	client.closeSend()

	if err := client.Send([]byte("x")); err == nil {
		t.Fatal("send after kick must fail")
	}
}

func TestKickCloseFrameCarriesSessionKickedCode(t *testing.T) {
	client := NewClient(nil, "user-a")

	client.Kick("Session replaced by a new connection.")

	frame := client.closeMessage()
	if len(frame) < 2 {
		t.Fatalf("expected a close frame with a status code, got %d bytes", len(frame))
	}
	if code := binary.BigEndian.Uint16(frame[:2]); code != WsCloseCodeSessionKicked {
		t.Fatalf("close code = %d, want %d", code, WsCloseCodeSessionKicked)
	}
}

func TestPlainTeardownUsesEmptyCloseFrame(t *testing.T) {
	client := NewClient(nil, "user-a")

	client.closeSend()

	if frame := client.closeMessage(); len(frame) != 0 {
		t.Fatalf("plain teardown must emit an empty close frame, got %v", frame)
	}
}

func TestQueuedPayloadsSurviveTeardown(t *testing.T) {
	client := NewClient(nil, "user-a")

	if err := client.Send([]byte("queued")); err != nil {
		t.Fatalf("send: %v", err)
	}
	client.closeSend()

	// The write pump drains remaining payloads before the close frame.
	payload, ok := <-client.send
	if !ok || string(payload) != "queued" {
		t.Fatalf("expected queued payload to survive, got %q ok=%v", payload, ok)
	}
	if _, ok := <-client.send; ok {
		t.Fatal("queue must be closed after draining")
	}
}

package chat

import (
	"encoding/json"
	"testing"

	"duochat/internal/app/message"
)

func TestRouterDeliverToConnectedReceiver(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	ch := &fakeChannel{}
	registry.Register("bob", ch)

	router.Deliver(message.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi"})

	if len(ch.payloads) != 1 {
		t.Fatalf("expected 1 push, got %d", len(ch.payloads))
	}

	var ev struct {
		Event string          `json:"event"`
		Data  message.Message `json:"data"`
	}
	if err := json.Unmarshal(ch.payloads[0], &ev); err != nil {
		t.Fatalf("push payload is not valid JSON: %v", err)
	}
	if ev.Event != EventNewMessage {
		t.Errorf("expected %q event, got %q", EventNewMessage, ev.Event)
	}
	if ev.Data.ID != "m1" || ev.Data.Text != "hi" {
		t.Errorf("payload does not carry the full message record: %+v", ev.Data)
	}
}

func TestRouterDeliverToOfflineReceiverIsNoop(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	// Must not panic or error; the message waits for the pull path.
	router.Deliver(message.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"})
}

func TestRouterDeliverSwallowsSendFailure(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	registry.Register("bob", &fakeChannel{fail: true})

	// A broken channel drops the push silently; no retry, no error surfaced.
	router.Deliver(message.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"})
}

func TestRouterAnnouncePresence(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	alice := &fakeChannel{}
	bob := &fakeChannel{}
	registry.Register("alice", alice)
	registry.Register("bob", bob)

	router.AnnouncePresence()

	for name, ch := range map[string]*fakeChannel{"alice": alice, "bob": bob} {
		if len(ch.payloads) != 1 {
			t.Fatalf("%s did not receive the presence broadcast", name)
		}
		var ev struct {
			Event string   `json:"event"`
			Data  []string `json:"data"`
		}
		if err := json.Unmarshal(ch.payloads[0], &ev); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if ev.Event != EventOnlineUsers || len(ev.Data) != 2 {
			t.Errorf("unexpected presence event: %+v", ev)
		}
	}
}

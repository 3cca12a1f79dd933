package chat

import (
	"errors"
	"sort"
	"testing"
)

type fakeChannel struct {
	payloads [][]byte
	kicked   string
	fail     bool
}

func (f *fakeChannel) Send(payload []byte) error {
	if f.fail {
		return errors.New("send fail")
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeChannel) Kick(reason string) { f.kicked = reason }

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("alice"); ok {
		t.Fatal("empty registry must report offline")
	}

	ch := &fakeChannel{}
	r.Register("alice", ch)

	got, ok := r.Lookup("alice")
	if !ok || got != Channel(ch) {
		t.Fatal("expected alice's channel")
	}
}

func TestRegistryReplaceKicksOldChannel(t *testing.T) {
	r := NewRegistry()

	old := &fakeChannel{}
	fresh := &fakeChannel{}

	r.Register("alice", old)
	r.Register("alice", fresh)

	if old.kicked == "" {
		t.Error("replaced channel must be kicked")
	}
	if got, _ := r.Lookup("alice"); got != Channel(fresh) {
		t.Error("lookup must return the fresh channel")
	}
}

// A reconnect can register a new channel before the old channel's disconnect
// handler fires. The stale unregister must not remove the fresh entry.
func TestRegistryUnregisterIsIdentityGuarded(t *testing.T) {
	r := NewRegistry()

	old := &fakeChannel{}
	fresh := &fakeChannel{}

	r.Register("alice", old)
	r.Register("alice", fresh)

	r.Unregister("alice", old) // stale disconnect arrives late

	got, ok := r.Lookup("alice")
	if !ok || got != Channel(fresh) {
		t.Fatal("stale unregister must not evict the fresh channel")
	}

	r.Unregister("alice", fresh)
	if _, ok := r.Lookup("alice"); ok {
		t.Fatal("matching unregister must remove the entry")
	}
}

func TestRegistryOnlineUserIDs(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", &fakeChannel{})
	r.Register("bob", &fakeChannel{})

	ids := r.OnlineUserIDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Errorf("unexpected online ids: %v", ids)
	}
}

func TestRegistryBroadcastSurvivesFailingChannel(t *testing.T) {
	r := NewRegistry()
	bad := &fakeChannel{fail: true}
	good := &fakeChannel{}
	r.Register("alice", bad)
	r.Register("bob", good)

	r.Broadcast([]byte(`{"event":"onlineUsers","data":[]}`))

	if len(good.payloads) != 1 {
		t.Error("healthy channel must still receive the broadcast")
	}
}

package events

import (
	"testing"
	"time"
)

func recv(t *testing.T, s *Subscriber) []byte {
	t.Helper()
	select {
	case frame := <-s.C():
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func assertEmpty(t *testing.T, s *Subscriber) {
	t.Helper()
	select {
	case frame := <-s.C():
		t.Fatalf("unexpected frame: %s", frame)
	default:
	}
}

func TestJoinAndBroadcast(t *testing.T) {
	b := NewBroadcaster()
	s1 := NewSubscriber("s1")
	s2 := NewSubscriber("s2")
	b.Join("r1", s1)
	b.Join("r1", s2)

	if b.Count("r1") != 2 {
		t.Fatalf("Count = %d, want 2", b.Count("r1"))
	}

	b.Broadcast("r1", "test", []byte("hello"))
	for _, s := range []*Subscriber{s1, s2} {
		if got := recv(t, s); string(got) != "hello" {
			t.Errorf("received %q", got)
		}
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	b := NewBroadcaster()
	sender := NewSubscriber("sender")
	other := NewSubscriber("other")
	b.Join("r1", sender)
	b.Join("r1", other)

	b.BroadcastExcept("r1", sender, "test", []byte("delta"))

	if got := recv(t, other); string(got) != "delta" {
		t.Errorf("other received %q", got)
	}
	assertEmpty(t, sender)
}

func TestBroadcastScopedToRoom(t *testing.T) {
	b := NewBroadcaster()
	inRoom := NewSubscriber("in")
	elsewhere := NewSubscriber("out")
	b.Join("r1", inRoom)
	b.Join("r2", elsewhere)

	b.Broadcast("r1", "test", []byte("x"))

	recv(t, inRoom)
	assertEmpty(t, elsewhere)
}

func TestRejoinReplacesRoom(t *testing.T) {
	b := NewBroadcaster()
	s := NewSubscriber("s")
	b.Join("r1", s)
	b.Join("r2", s)

	if b.Count("r1") != 0 {
		t.Error("subscriber still counted in the old room")
	}
	if key, _ := b.RoomOf(s); key != "r2" {
		t.Errorf("RoomOf = %q, want r2", key)
	}

	b.Broadcast("r1", "test", []byte("old"))
	assertEmpty(t, s)
	b.Broadcast("r2", "test", []byte("new"))
	if got := recv(t, s); string(got) != "new" {
		t.Errorf("received %q", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	s := NewSubscriber("s")
	b.Join("r1", s)

	b.Unsubscribe(s)

	if b.Count("r1") != 0 {
		t.Error("unsubscribed member still counted")
	}
	if _, ok := b.RoomOf(s); ok {
		t.Error("unsubscribed member still has a room")
	}
	select {
	case _, open := <-s.C():
		if open {
			t.Error("channel delivered a frame instead of closing")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// A second unsubscribe must not panic.
	b.Unsubscribe(s)
}

func TestSendDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	s := NewSubscriber("s")
	b.Join("r1", s)

	// Overflow the 64-frame buffer; sends must not block.
	for i := 0; i < 100; i++ {
		b.Broadcast("r1", "test", []byte("f"))
	}

	count := 0
	for {
		select {
		case <-s.C():
			count++
		default:
			if count != 64 {
				t.Errorf("buffered frames = %d, want 64", count)
			}
			return
		}
	}
}

package history

import (
	"fmt"
	"sync"
	"testing"
)

func TestAddAndRecent(t *testing.T) {
	b := NewBuffer(5)

	b.Add("chat1", Message{From: "a", Text: "hello", Ts: 1})
	b.Add("chat1", Message{From: "b", Text: "hi", Ts: 2})
	b.Add("chat1", Message{From: "a", Text: "how is the homework going?", Ts: 3})

	msgs := b.Recent("chat1")
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" {
		t.Errorf("expected first message 'hello', got %q", msgs[0].Text)
	}
	if msgs[2].Text != "how is the homework going?" {
		t.Errorf("expected last message to be newest, got %q", msgs[2].Text)
	}
}

func TestRecent_Wraparound(t *testing.T) {
	b := NewBuffer(3)

	for i := 1; i <= 5; i++ {
		b.Add("chat1", Message{From: "a", Text: fmt.Sprintf("msg%d", i), Ts: int64(i)})
	}

	msgs := b.Recent("chat1")
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages after wraparound, got %d", len(msgs))
	}
	for i, want := range []string{"msg3", "msg4", "msg5"} {
		if msgs[i].Text != want {
			t.Errorf("msgs[%d].Text = %q, want %q", i, msgs[i].Text, want)
		}
	}
}

func TestRecent_UnknownChat(t *testing.T) {
	b := NewBuffer(5)

	msgs := b.Recent("nope")
	if len(msgs) != 0 {
		t.Errorf("expected no messages for unknown chat, got %d", len(msgs))
	}
}

func TestDrop(t *testing.T) {
	b := NewBuffer(5)

	b.Add("chat1", Message{From: "a", Text: "hello", Ts: 1})
	b.Drop("chat1")

	if msgs := b.Recent("chat1"); len(msgs) != 0 {
		t.Errorf("expected empty history after Drop, got %d messages", len(msgs))
	}
}

func TestNewBuffer_DefaultCapacity(t *testing.T) {
	b := NewBuffer(0)

	for i := 0; i < DefaultCapacity+2; i++ {
		b.Add("chat1", Message{From: "a", Text: "x", Ts: int64(i)})
	}
	if got := len(b.Recent("chat1")); got != DefaultCapacity {
		t.Errorf("expected %d retained messages, got %d", DefaultCapacity, got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	b := NewBuffer(5)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			chatID := fmt.Sprintf("chat%d", n%3)
			for j := 0; j < 100; j++ {
				b.Add(chatID, Message{From: "a", Text: "m", Ts: int64(j)})
				b.Recent(chatID)
			}
		}(i)
	}
	wg.Wait()
}

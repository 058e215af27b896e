package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		assert.True(t, ok)
		return data
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_BroadcastReachesOnlyTheRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	a1 := h.NewClient(nil, "auction-a", uuid.New())
	a2 := h.NewClient(nil, "auction-a", uuid.Nil)
	b1 := h.NewClient(nil, "auction-b", uuid.New())
	for _, c := range []*Client{a1, a2, b1} {
		h.RegisterClient(c)
	}

	h.Broadcast("auction-a", []byte(`{"type":"ping"}`))
	check.Equal(t, `{"type":"ping"}`, string(receive(t, a1)))
	check.Equal(t, `{"type":"ping"}`, string(receive(t, a2)))

	select {
	case <-b1.Send:
		t.Fatal("message leaked into another room")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_BroadcastFuncRendersPerClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	leader := uuid.New()
	mine := h.NewClient(nil, "auction-a", leader)
	other := h.NewClient(nil, "auction-a", uuid.New())
	h.RegisterClient(mine)
	h.RegisterClient(other)

	h.BroadcastFunc("auction-a", func(c *Client) []byte {
		if c.UserID == leader {
			return []byte("full")
		}
		return []byte("redacted")
	})
	check.Equal(t, "full", string(receive(t, mine)))
	check.Equal(t, "redacted", string(receive(t, other)))
}

func TestHub_UnregisterClosesSendAndShutdownClosesAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	gone := h.NewClient(nil, "auction-a", uuid.Nil)
	stays := h.NewClient(nil, "auction-a", uuid.Nil)
	h.RegisterClient(gone)
	h.RegisterClient(stays)
	h.UnregisterClient(gone)
	h.UnregisterClient(gone)

	select {
	case _, ok := <-gone.Send:
		check.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send queue not closed on unregister")
	}

	cancel()
	<-done
	_, ok := <-stays.Send
	check.False(t, ok)
}

func TestClient_ReplyAfterUnregisterIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	c := h.NewClient(nil, "auction-a", uuid.New())
	h.RegisterClient(c)
	h.UnregisterClient(c)

	select {
	case _, ok := <-c.Send:
		check.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send queue not closed on unregister")
	}
	c.Reply([]byte("late"))
}

func TestClient_ReplyRacesUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	for i := 0; i < 50; i++ {
		c := h.NewClient(nil, "auction-a", uuid.New())
		h.RegisterClient(c)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 100; j++ {
				c.Reply([]byte("reply"))
			}
		}()
		h.UnregisterClient(c)
		<-done
		for range c.Send {
		}
	}
}

package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	h := NewHub()
	connected := make(chan *Client, 1)
	h.OnConnect = func(c *Client) { connected <- c }
	go h.Run()

	c := NewClient("c1", h, nil)
	h.Register <- c

	select {
	case got := <-connected:
		assert.Same(t, c, got)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for OnConnect")
	}
	assert.Equal(t, 1, h.ClientCount())

	h.Broadcast(Message{Type: TypePing})
	select {
	case <-c.Send:
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := NewHub()
	connected := make(chan *Client, 1)
	disconnected := make(chan *Client, 1)
	h.OnConnect = func(c *Client) { connected <- c }
	h.OnDisconnect = func(c *Client) { disconnected <- c }
	go h.Run()

	c := NewClient("c1", h, nil)
	h.Register <- c
	<-connected

	h.Unregister <- c
	select {
	case got := <-disconnected:
		assert.Same(t, c, got)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for OnDisconnect")
	}
	assert.Equal(t, 0, h.ClientCount())

	_, open := <-c.Send
	assert.False(t, open, "send channel must be closed on unregister")
}

func TestHub_DisconnectHooksCanStillSend(t *testing.T) {
	h := NewHub()
	connected := make(chan *Client, 1)
	farewell := make(chan Message, 1)
	h.OnConnect = func(c *Client) { connected <- c }
	h.OnDisconnect = func(c *Client) {
		// Teardown protocols address the departing client; this must be
		// a drop at worst, never a panic.
		c.SendMessage(Message{Type: TypeChat})
		farewell <- Message{Type: TypeChat}
	}
	go h.Run()

	c := NewClient("c1", h, nil)
	h.Register <- c
	<-connected

	h.Unregister <- c
	select {
	case <-farewell:
	case <-time.After(time.Second):
		t.Fatal("OnDisconnect never ran")
	}

	c.SendMessage(Message{Type: TypePing}) // after close, still a no-op

	done := make(chan struct{})
	h.Do(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub loop died during disconnect")
	}
}

func TestHub_DoRunsOnDispatchLoop(t *testing.T) {
	h := NewHub()
	go h.Run()

	done := make(chan struct{})
	h.Do(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestHub_IncomingInvokesOnMessage(t *testing.T) {
	h := NewHub()
	received := make(chan *ClientMessage, 1)
	h.OnMessage = func(cm *ClientMessage) { received <- cm }
	go h.Run()

	c := NewClient("c1", h, nil)
	h.Incoming <- &ClientMessage{Client: c, Data: []byte(`{"type":"ping"}`)}

	select {
	case cm := <-received:
		require.Same(t, c, cm.Client)
		assert.JSONEq(t, `{"type":"ping"}`, string(cm.Data))
	case <-time.After(time.Second):
		t.Fatal("message never dispatched")
	}
}

package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// dialViewer spins up a throwaway server that registers the accepted
// connection with the hub, then dials it and returns the client side.
func dialViewer(t *testing.T, hub *Hub, roomID uint) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddConnection(roomID, conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestHub_BroadcastStaysInRoom(t *testing.T) {
	hub := NewHub()
	viewer := dialViewer(t, hub, 1)
	bystander := dialViewer(t, hub, 2)

	require.Eventually(t, func() bool {
		return hub.ViewerCount(1) == 1 && hub.ViewerCount(2) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(1, WSMessage{Type: EventHeistAnnounced, Data: "soon"})

	var msg WSMessage
	viewer.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, viewer.ReadJSON(&msg))
	assert.Equal(t, EventHeistAnnounced, msg.Type)

	bystander.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := bystander.ReadMessage()
	assert.Error(t, err, "room 2 should hear nothing")
}

func TestHub_CloseRoomNotifiesAndDrops(t *testing.T) {
	hub := NewHub()
	viewer := dialViewer(t, hub, 1)

	require.Eventually(t, func() bool { return hub.ViewerCount(1) == 1 }, time.Second, 10*time.Millisecond)

	hub.CloseRoom(1)

	var msg WSMessage
	viewer.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, viewer.ReadJSON(&msg))
	assert.Equal(t, EventRoomClosed, msg.Type)

	// The server side hung up, so the next read fails.
	viewer.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := viewer.ReadMessage()
	assert.Error(t, err)

	assert.Zero(t, hub.ViewerCount(1))
}

func TestHub_RemoveConnectionForgetsViewer(t *testing.T) {
	hub := NewHub()

	srvConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddConnection(7, conn)
		srvConns <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	serverSide := <-srvConns
	require.Equal(t, 1, hub.ViewerCount(7))

	hub.RemoveConnection(7, serverSide)
	assert.Zero(t, hub.ViewerCount(7))
}

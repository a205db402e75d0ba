package svc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/common/wsutil"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
)

func TestHistoryHubPushesEvents(t *testing.T) {
	b := historymanager.NewLocalBroadcaster()
	hub := NewHistoryHub(b)
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := wsutil.UpgradeWebSocket(w, r)
		if err != nil {
			return
		}
		hub.Register(ws, nil)
		<-ws.CloseChan()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), historymanager.Event{
		Type:         historymanager.EventUndo,
		SnapshotID:   "s1",
		CurrentIndex: 0,
		Length:       2,
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string               `json:"type"`
		Data historymanager.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, wsutil.TypeHistoryEvent, msg.Type)
	assert.Equal(t, historymanager.EventUndo, msg.Data.Type)
	assert.Equal(t, "s1", msg.Data.SnapshotID)
	assert.Equal(t, 2, msg.Data.Length)
}

func TestHistoryHubStopWithoutClients(t *testing.T) {
	hub := NewHistoryHub(historymanager.NewLocalBroadcaster())
	hub.Start()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	// 停止后注册不阻塞
	done := make(chan struct{})
	go func() {
		hub.Unregister(nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after Stop")
	}
}

func TestHistoryHubSendsInitBeforeEvents(t *testing.T) {
	b := historymanager.NewLocalBroadcaster()
	hub := NewHistoryHub(b)
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := wsutil.UpgradeWebSocket(w, r)
		if err != nil {
			return
		}
		hub.Register(ws, func() interface{} {
			return map[string]int{"currentIndex": 3}
		})
		<-ws.CloseChan()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, b.Publish(context.Background(), historymanager.Event{Type: historymanager.EventRedo, SnapshotID: "s2"}))

	var got []string
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg wsutil.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		got = append(got, msg.Type)
	}
	assert.Equal(t, []string{wsutil.TypeHistoryInit, wsutil.TypeHistoryEvent}, got)
}

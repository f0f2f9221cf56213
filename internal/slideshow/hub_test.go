// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hara/internal/slideshow"
)

// recordingNavigator records the commands a page sends.
type recordingNavigator struct {
	mu       sync.Mutex
	commands []string
}

func (navigator *recordingNavigator) record(command string) bool {
	navigator.mu.Lock()
	defer navigator.mu.Unlock()
	navigator.commands = append(navigator.commands, command)
	return true
}

func (navigator *recordingNavigator) Next(bool) bool { return navigator.record("next") }
func (navigator *recordingNavigator) Prev(bool) bool { return navigator.record("prev") }
func (navigator *recordingNavigator) JumpTo(index int) bool {
	return navigator.record("jump:" + strconv.Itoa(index))
}

func (navigator *recordingNavigator) recorded() []string {
	navigator.mu.Lock()
	defer navigator.mu.Unlock()
	return append([]string{}, navigator.commands...)
}

func dialHub(t *testing.T, hub *slideshow.Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) slideshow.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var message slideshow.Message
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

/*
TestHub_SendsLatestOnConnect verifies a new page first receives the current state and content.
*/
func TestHub_SendsLatestOnConnect(t *testing.T) {
	hub := slideshow.NewHub(&recordingNavigator{}, nil, discardLogger())
	t.Cleanup(hub.Close)

	hub.BroadcastState(slideshow.State{Seq: 4, CurrentIndex: 1, SlideCount: 3})
	hub.BroadcastContent(slideshow.Snapshot{Settings: slideshow.DefaultSettings()})

	conn := dialHub(t, hub)

	state := readMessage(t, conn)
	require.Equal(t, slideshow.MessageState, state.Type)
	assert.Equal(t, 1, state.State.CurrentIndex)

	content := readMessage(t, conn)
	require.Equal(t, slideshow.MessageContent, content.Type)
	assert.Len(t, content.Content.Slides, 2)
}

/*
TestHub_DropsStaleState verifies a state older than the last pushed one is ignored.
*/
func TestHub_DropsStaleState(t *testing.T) {
	hub := slideshow.NewHub(&recordingNavigator{}, nil, discardLogger())
	t.Cleanup(hub.Close)

	hub.BroadcastState(slideshow.State{Seq: 5, CurrentIndex: 2})
	hub.BroadcastState(slideshow.State{Seq: 3, CurrentIndex: 1})

	conn := dialHub(t, hub)
	message := readMessage(t, conn)
	assert.Equal(t, 2, message.State.CurrentIndex)
}

/*
TestHub_ForwardsCommands verifies page commands reach the navigator and bad frames are skipped.
*/
func TestHub_ForwardsCommands(t *testing.T) {
	navigator := &recordingNavigator{}
	hub := slideshow.NewHub(navigator, nil, discardLogger())
	t.Cleanup(hub.Close)

	conn := dialHub(t, hub)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteJSON(slideshow.Command{Action: "next"}))
	require.NoError(t, conn.WriteJSON(slideshow.Command{Action: "dance"}))
	require.NoError(t, conn.WriteJSON(slideshow.Command{Action: "prev"}))
	require.NoError(t, conn.WriteJSON(slideshow.Command{Action: "jump", Index: 3}))

	assert.Eventually(t, func() bool { return len(navigator.recorded()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"next", "prev", "jump:3"}, navigator.recorded())
}

/*
TestHub_BroadcastReachesClients verifies live pushes and client accounting.
*/
func TestHub_BroadcastReachesClients(t *testing.T) {
	hub := slideshow.NewHub(&recordingNavigator{}, nil, discardLogger())
	t.Cleanup(hub.Close)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastState(slideshow.State{Seq: 1, CurrentIndex: 0, Transitioning: true})
	message := readMessage(t, conn)
	assert.True(t, message.State.Transitioning)

	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

/*
TestHub_RejectsForeignOrigin verifies the handshake origin check.
*/
func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := slideshow.NewHub(&recordingNavigator{}, []string{"http://kiosk.local"}, discardLogger())
	t.Cleanup(hub.Close)
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	_, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	assert.Error(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://kiosk.local"}})
	require.NoError(t, err)
	_ = conn.Close()
}

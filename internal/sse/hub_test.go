package sse

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/testutil"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     string
		expected string
	}{
		{
			name:     "single line data",
			event:    "snapshot_written",
			data:     `{"kind":"snapshot_written"}`,
			expected: "event: snapshot_written\ndata: {\"kind\":\"snapshot_written\"}\n\n",
		},
		{
			name:     "multi-line data",
			event:    "note",
			data:     "one\ntwo",
			expected: "event: note\ndata: one\ndata: two\n\n",
		},
		{
			name:     "empty data",
			event:    "ping",
			data:     "",
			expected: "event: ping\ndata: \n\n",
		},
		{
			name:     "carriage returns",
			event:    "note",
			data:     "one\r\ntwo\r\n",
			expected: "event: note\ndata: one\ndata: two\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatMessage(tt.event, tt.data)))
		})
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testutil.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return hub
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	hub := startHub(t)
	ctx := context.Background()

	clients := []*Client{NewClient("a"), NewClient("b"), NewClient("c")}
	for _, c := range clients {
		require.True(t, hub.Register(ctx, c))
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("update", "data")

	for _, c := range clients {
		assert.Equal(t, "event: update\ndata: data\n\n", receive(t, c))
	}
}

func TestHubUnregister(t *testing.T) {
	hub := startHub(t)
	client := NewClient("a")
	require.True(t, hub.Register(context.Background(), client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok, "send channel is closed on unregister")
}

func TestHubEmitEncodesEvent(t *testing.T) {
	hub := startHub(t)
	client := NewClient("a")
	require.True(t, hub.Register(context.Background(), client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Emit(context.Background(), events.Event{
		Kind:   events.SnapshotFailed,
		Player: "Alice",
		Err:    errors.New("timeout"),
	})

	assert.Equal(t,
		"event: snapshot_failed\ndata: {\"kind\":\"snapshot_failed\",\"player\":\"Alice\",\"error\":\"timeout\"}\n\n",
		receive(t, client))
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	done := make(chan error, 1)
	go func() { done <- hub.Run(context.Background()) }()

	client := NewClient("a")
	require.True(t, hub.Register(context.Background(), client))

	hub.Close()
	hub.Close()
	require.NoError(t, <-done)

	_, ok := <-client.send
	assert.False(t, ok)
	assert.False(t, hub.Register(context.Background(), NewClient("late")))
}

func TestBroadcastWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	for i := 0; i < broadcastBuffer*2; i++ {
		hub.Emit(context.Background(), events.Event{Kind: events.SnapshotWritten, Player: "Alice"})
	}
}

func TestServeStreamsEvents(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Serve(w, r, hub, "test")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readFrame := func() string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if line == "\n" {
				return strings.Join(lines, "")
			}
			lines = append(lines, line)
		}
	}

	assert.Equal(t, "event: connected\ndata: {\"status\":\"connected\"}\n", readFrame())

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Emit(ctx, events.Event{Kind: events.LeaderboardRefreshed, Count: 25})

	assert.Equal(t, "event: leaderboard_refreshed\ndata: {\"kind\":\"leaderboard_refreshed\",\"count\":25}\n", readFrame())
}

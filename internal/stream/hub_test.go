package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHubPublish(t *testing.T) {
	h := NewHub(logger.Nop(), nil)
	conn := dial(t, h)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(&contracts.Signal{Symbol: "AAPL", Overall: contracts.LabelBuy, Strength: 0.82})
	h.Publish(nil)

	env := read(t, conn)
	assert.Equal(t, "signal", env.Type)
	assert.False(t, env.Initial)
	require.NotNil(t, env.Signal)
	assert.Equal(t, "AAPL", env.Signal.Symbol)
	assert.Equal(t, contracts.LabelBuy, env.Signal.Overall)
}

func TestHubSnapshotOnConnect(t *testing.T) {
	h := NewHub(logger.Nop(), func() []*contracts.Signal {
		return []*contracts.Signal{{Symbol: "005930", Overall: contracts.LabelNeutral}}
	})
	conn := dial(t, h)

	env := read(t, conn)
	assert.True(t, env.Initial)
	assert.Equal(t, "005930", env.Signal.Symbol)
}

func TestHubRemovesClosedClients(t *testing.T) {
	h := NewHub(logger.Nop(), nil)
	conn := dial(t, h)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubClose(t *testing.T) {
	h := NewHub(logger.Nop(), nil)
	conn := dial(t, h)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Close()
	assert.Equal(t, 0, h.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// publishing after close is a no-op
	h.Publish(&contracts.Signal{Symbol: "AAPL"})
}

package api

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

	"github.com/waveline/waveline/pkg/eventbus"
	"github.com/waveline/waveline/pkg/logger"
)

func newStreamRig(t *testing.T, cfg StreamConfig) (*httptest.Server, *eventbus.MemoryBus) {
	t.Helper()
	bus := eventbus.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Output: "stderr"})
	stream := NewStreamHandler(cfg, bus, log, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = stream.Run(ctx) }()

	server := httptest.NewServer(stream)
	t.Cleanup(server.Close)
	return server, bus
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func publishBatchEvent(t *testing.T, bus *eventbus.MemoryBus, channelID string) {
	t.Helper()
	envelope, err := eventbus.BuildEnvelope(eventbus.BuildEnvelopeInput{
		EventType: eventbus.EventBatchCommitted,
		ChannelID: channelID,
		Sequence:  1,
		Payload:   map[string]string{"channel": channelID},
	})
	require.NoError(t, err)
	payload, err := json.Marshal(envelope)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(),
		eventbus.BatchSubject(channelID), payload))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) eventbus.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var envelope eventbus.Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	return envelope
}

func TestStreamDeliversCommitEvents(t *testing.T) {
	server, bus := newStreamRig(t, StreamConfig{})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond) // let the client register

	publishBatchEvent(t, bus, "ecg")

	envelope := readEnvelope(t, conn)
	assert.Equal(t, "ecg", envelope.ChannelID)
	assert.Equal(t, eventbus.EventBatchCommitted, envelope.EventType)
}

func TestStreamChannelFilter(t *testing.T) {
	server, bus := newStreamRig(t, StreamConfig{})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, conn.WriteJSON(incomingMessage{Type: "subscribe", ChannelID: "pleth"}))
	time.Sleep(50 * time.Millisecond) // let the subscription apply

	publishBatchEvent(t, bus, "ecg")
	publishBatchEvent(t, bus, "pleth")

	envelope := readEnvelope(t, conn)
	assert.Equal(t, "pleth", envelope.ChannelID)
}

func TestStreamRejectsDisallowedOrigin(t *testing.T) {
	server, _ := newStreamRig(t, StreamConfig{
		AllowedOrigins: []string{"app.example.com"},
	})

	header := http.Header{"Origin": []string{"https://evil.example.net"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server), header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestStreamAllowsConfiguredOrigin(t *testing.T) {
	server, bus := newStreamRig(t, StreamConfig{
		AllowedOrigins: []string{"app.example.com"},
	})

	header := http.Header{"Origin": []string{"https://app.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), header)
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	publishBatchEvent(t, bus, "ecg")
	envelope := readEnvelope(t, conn)
	assert.Equal(t, "ecg", envelope.ChannelID)
}

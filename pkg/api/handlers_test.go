package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/waveline/pkg/devicemodel"
	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/waveform"
)

func newTestServer(t *testing.T) (*httptest.Server, *devicemodel.Model) {
	t.Helper()
	model := devicemodel.New()
	require.NoError(t, model.AddChannel(waveform.Descriptor{
		ChannelID:    "ecg",
		Label:        "ECG Lead II",
		Unit:         "mV",
		SamplePeriod: 10 * time.Millisecond,
	}))

	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Output: "stderr"})
	router := NewRouter(log, &Handlers{
		Channels: NewChannelHandler(model, log),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, model
}

func TestListChannels(t *testing.T) {
	server, model := newTestServer(t)

	require.NoError(t, model.WithTransaction(func(tx waveform.Transaction) error {
		record, err := tx.Record("ecg")
		if err != nil {
			return err
		}
		record.Samples = []float64{0.1, 0.2}
		record.Activation = waveform.ActivationOn
		return nil
	}))

	resp, err := http.Get(server.URL + "/api/v1/channels")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var channels []ChannelInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&channels))
	require.Len(t, channels, 1)
	assert.Equal(t, "ecg", channels[0].Descriptor.ChannelID)
	assert.Equal(t, []float64{0.1, 0.2}, channels[0].Record.Samples)
}

func TestGetChannel(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/channels/ecg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info ChannelInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "ECG Lead II", info.Descriptor.Label)
	assert.Equal(t, 10*time.Millisecond, info.Descriptor.SamplePeriod)
}

func TestGetChannelNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/channels/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "ghost")
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

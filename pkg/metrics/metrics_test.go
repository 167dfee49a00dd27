package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Manager) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestManagerRecordsWaveformMetrics(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordCycle("ok", 2*time.Millisecond)
	m.RecordCycle("error", time.Millisecond)
	m.SetActiveChannels(2)
	m.RecordSamples("ecg", 10)
	m.RecordTriggers("ecg", 1)
	m.RecordAnnotation("pleth")

	body := scrape(t, m)
	for _, want := range []string{
		`waveform_update_cycles_total{status="ok"} 1`,
		`waveform_update_cycles_total{status="error"} 1`,
		`waveform_active_channels 2`,
		`waveform_samples_emitted_total{channel="ecg"} 10`,
		`waveform_triggers_detected_total{channel="ecg"} 1`,
		`waveform_annotations_applied_total{channel="pleth"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestManagerZeroCountsNotRecorded(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordSamples("ecg", 0)
	m.RecordTriggers("ecg", 0)

	body := scrape(t, m)
	if strings.Contains(body, `channel="ecg"`) {
		t.Fatal("zero-count series created")
	}
}

func TestDisabledManagerIsInert(t *testing.T) {
	m := NewManager(Config{Enabled: false})

	// Must not panic on nil collectors.
	m.RecordCycle("ok", time.Millisecond)
	m.SetActiveChannels(1)
	m.RecordSamples("ecg", 5)
	m.RecordHTTPRequest(http.MethodGet, "/", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled handler status = %d, want 404", rec.Code)
	}
}

func TestNoOpManager(t *testing.T) {
	m := NoOpManager()
	if m.Enabled() {
		t.Fatal("NoOpManager reports enabled")
	}
	m.RecordAnnotation("ecg")
}

package waveform

import (
	"reflect"
	"testing"
	"time"
)

func TestRisingEdgeDetector(t *testing.T) {
	detector := NewRisingEdgeDetector(Annotation{Type: "trigger"}, "src", "dst")

	batch := NewSampleBatch("src", f64p(10), time.Second,
		[]float64{-1, 1, 2, -1, 3}, ActivationOn)

	got := detector.TriggerTimestamps(batch)
	want := []float64{11, 14}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("trigger timestamps = %v, want %v", got, want)
	}
}

func TestRisingEdgeDetector_StatePersistsAcrossBatches(t *testing.T) {
	detector := NewRisingEdgeDetector(Annotation{Type: "trigger"}, "src")

	// First batch ends above zero.
	first := NewSampleBatch("src", f64p(0), time.Second, []float64{-1, 2}, ActivationOn)
	if got := detector.TriggerTimestamps(first); len(got) != 1 || got[0] != 1 {
		t.Fatalf("first batch triggers = %v, want [1]", got)
	}

	// A positive opening sample is not a crossing: the previous batch already
	// ended positive.
	second := NewSampleBatch("src", f64p(2), time.Second, []float64{3, -1}, ActivationOn)
	if got := detector.TriggerTimestamps(second); len(got) != 0 {
		t.Fatalf("second batch triggers = %v, want none", got)
	}

	// Now the carried value is negative, so the next positive sample fires.
	third := NewSampleBatch("src", f64p(4), time.Second, []float64{1}, ActivationOn)
	if got := detector.TriggerTimestamps(third); len(got) != 1 || got[0] != 4 {
		t.Fatalf("third batch triggers = %v, want [4]", got)
	}
}

func TestRisingEdgeDetector_StateSurvivesEmptyBatches(t *testing.T) {
	detector := NewRisingEdgeDetector(Annotation{Type: "trigger"}, "src")

	detector.TriggerTimestamps(NewSampleBatch("src", f64p(0), time.Second,
		[]float64{-1}, ActivationOn))

	// Source deactivated for a while: empty placeholder batches.
	for i := 0; i < 3; i++ {
		empty := NewSampleBatch("src", nil, time.Second, nil, ActivationOff)
		if got := detector.TriggerTimestamps(empty); len(got) != 0 {
			t.Fatalf("empty batch triggers = %v, want none", got)
		}
	}

	// First positive sample after the gap is compared against the last value
	// seen before it.
	batch := NewSampleBatch("src", f64p(100), time.Second, []float64{0.5}, ActivationOn)
	if got := detector.TriggerTimestamps(batch); len(got) != 1 || got[0] != 100 {
		t.Fatalf("post-gap triggers = %v, want [100]", got)
	}
}

func TestRisingEdgeDetector_Accessors(t *testing.T) {
	annotation := Annotation{Type: "ecg.rwave", Label: "R-wave"}
	detector := NewRisingEdgeDetector(annotation, "ecg", "ecg", "pleth")

	if detector.SourceChannel() != "ecg" {
		t.Fatalf("source = %q", detector.SourceChannel())
	}
	if got := detector.DestinationChannels(); !reflect.DeepEqual(got, []string{"ecg", "pleth"}) {
		t.Fatalf("destinations = %v", got)
	}
	if detector.Annotation() != annotation {
		t.Fatalf("annotation = %+v", detector.Annotation())
	}
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/waveline/waveline/pkg/devicemodel"
	"github.com/waveline/waveline/pkg/waveform"
)

type failingGenerator struct {
	period time.Duration
	err    error
}

func (g *failingGenerator) SamplePeriod() time.Duration { return g.period }

func (g *failingGenerator) Produce(int) ([]float64, error) { return nil, g.err }

func newTestRig(t *testing.T, generator waveform.Generator) (*Runner, *devicemodel.Model) {
	t.Helper()
	model := devicemodel.New()
	if err := model.AddChannel(waveform.Descriptor{
		ChannelID:    "ecg",
		SamplePeriod: generator.SamplePeriod(),
	}); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	orchestrator := waveform.NewOrchestrator(model)
	if err := orchestrator.RegisterChannel("ecg", generator); err != nil {
		t.Fatalf("RegisterChannel: %v", err)
	}
	return NewRunner(orchestrator, model), model
}

func TestStepCommitsCycle(t *testing.T) {
	runner, model := newTestRig(t,
		waveform.NewSineGenerator(-1, 1, time.Second, time.Millisecond))

	time.Sleep(5 * time.Millisecond)
	if err := runner.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	record, err := model.Record("ecg")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(record.Samples) == 0 {
		t.Fatal("no samples committed")
	}
	if record.Activation != waveform.ActivationOn {
		t.Fatalf("activation = %v, want on", record.Activation)
	}
}

func TestStepDiscardsFailedCycle(t *testing.T) {
	cause := errors.New("source gone")
	runner, model := newTestRig(t,
		&failingGenerator{period: time.Millisecond, err: cause})

	time.Sleep(5 * time.Millisecond)
	if err := runner.Step(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("Step error = %v, want %v", err, cause)
	}

	record, err := model.Record("ecg")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if record.Samples != nil || record.DeterminationTime != nil {
		t.Fatalf("failed cycle leaked writes: %+v", record)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	runner, _ := newTestRig(t,
		waveform.NewSineGenerator(-1, 1, time.Second, time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRunSurvivesFailingCycles(t *testing.T) {
	runner, _ := newTestRig(t,
		&failingGenerator{period: time.Millisecond, err: errors.New("boom")})
	runner.interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := runner.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, want deadline exceeded", err)
	}
}

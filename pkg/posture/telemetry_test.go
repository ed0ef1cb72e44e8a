package posture

import (
	"context"
	"testing"
	"time"
)

// mockSink collects telemetry sends on a channel so the test can wait for
// the fire-and-forget goroutine.
type mockSink struct {
	sends chan Scores
}

func newMockSink() *mockSink {
	return &mockSink{sends: make(chan Scores, 16)}
}

func (m *mockSink) SendScores(_ context.Context, s Scores) error {
	m.sends <- s
	return nil
}

func TestScheduler_IntervalGating(t *testing.T) {
	sink := newMockSink()
	sch := NewScheduler(sink, 30*time.Second)
	agg := NewAggregator(30*time.Second, 120*time.Second)

	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	agg.Record(sampleAt(t0, 88))

	if !sch.MaybeSend(t0, agg) {
		t.Fatal("first send not dispatched")
	}
	if sch.MaybeSend(t0.Add(10*time.Second), agg) {
		t.Error("send dispatched inside interval")
	}
	if !sch.MaybeSend(t0.Add(31*time.Second), agg) {
		t.Error("send not dispatched after interval elapsed")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-sink.sends:
		case <-time.After(time.Second):
			t.Fatal("sink did not receive dispatched send")
		}
	}
}

func TestScheduler_ReadsShortWindow(t *testing.T) {
	sink := newMockSink()
	sch := NewScheduler(sink, 30*time.Second)
	agg := NewAggregator(30*time.Second, 120*time.Second)

	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	// An old sample only the long window still holds.
	agg.Record(sampleAt(t0, 40))
	// A recent one in both windows.
	agg.Record(sampleAt(t0.Add(50*time.Second), 90))

	sch.MaybeSend(t0.Add(60*time.Second), agg)

	select {
	case got := <-sink.sends:
		if !floatEquals(got.Neck, 90) {
			t.Errorf("telemetry read the wrong window: got %v, want 90", got.Neck)
		}
	case <-time.After(time.Second):
		t.Fatal("no send received")
	}
}

func TestScheduler_NilSink(t *testing.T) {
	sch := NewScheduler(nil, 30*time.Second)
	agg := NewAggregator(30*time.Second, 120*time.Second)

	if sch.MaybeSend(time.Now(), agg) {
		t.Error("nil sink reported a dispatched send")
	}
}

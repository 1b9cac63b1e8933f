package skill

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func recvSkills(t *testing.T, ch <-chan []Skill) []Skill {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for skill batch")
		return nil
	}
}

func TestSkillStreamDeliversBatchesInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := [][]Skill{
		{{ID: "s1", Name: "jazz piano", Type: TypeTeach, Level: 4}},
		{{ID: "s1", Name: "jazz piano", Type: TypeTeach, Level: 4}, {ID: "s2", Name: "spanish", Type: TypeLearn, Level: 2}},
	}
	i := 0
	next := func() ([]Skill, error) {
		if i < len(batches) {
			b := batches[i]
			i++
			return b, nil
		}
		return nil, status.Error(codes.Canceled, "listener torn down")
	}

	stopped := false
	stream := runSkillStream(ctx, cancel, "u1", next, func() { stopped = true }, zap.NewNop())
	defer stream.Stop()

	first := recvSkills(t, stream.Skills)
	if len(first) != 1 || first[0].ID != "s1" {
		t.Fatalf("unexpected first batch: %+v", first)
	}
	second := recvSkills(t, stream.Skills)
	if len(second) != 2 {
		t.Fatalf("expected the full set on the second batch, got %+v", second)
	}

	// Teardown cancellation ends the stream without surfacing an error.
	if _, open := <-stream.Skills; open {
		t.Fatal("skills channel must close after cancellation")
	}
	if err, open := <-stream.Errs; open {
		t.Fatalf("cancellation must not surface an error, got %v", err)
	}
	if !stopped {
		t.Fatal("listener must be stopped on teardown")
	}
}

func TestSkillStreamSurfacesListenerErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("listener failed")
	next := func() ([]Skill, error) { return nil, boom }

	stream := runSkillStream(ctx, cancel, "u1", next, func() {}, zap.NewNop())
	defer stream.Stop()

	select {
	case err := <-stream.Errs:
		if !errors.Is(err, boom) {
			t.Fatalf("expected listener error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for listener error")
	}
	if _, open := <-stream.Skills; open {
		t.Fatal("skills channel must close after a listener error")
	}
}

package match

import (
	"context"
	"errors"
	"testing"

	"github.com/riddleday/riddleday/internal/logging"
)

type recordingJudge struct {
	called   bool
	judgment Judgment
	err      error
}

func (j *recordingJudge) Judge(_ context.Context, _, _ string) (Judgment, error) {
	j.called = true
	return j.judgment, j.err
}

func TestServiceConsultsJudgeOnBorderlineReject(t *testing.T) {
	judge := &recordingJudge{judgment: Judgment{Equivalent: true, Confidence: 0.82}}
	svc := NewService(judge, logging.Discard())

	// 8/9 ~ 0.889 sits inside the consultation window.
	res := svc.Check(context.Background(), "sunfower", "sunflower")
	if !judge.called {
		t.Fatal("expected judge consultation")
	}
	if res.Classification != ClassFuzzyAI {
		t.Fatalf("expected fuzzy-ai, got %s", res.Classification)
	}
	if res.Confidence != 0.82 {
		t.Fatalf("expected judge confidence passed through unmodified, got %v", res.Confidence)
	}
}

func TestServiceSkipsJudgeBelowFloor(t *testing.T) {
	judge := &recordingJudge{judgment: Judgment{Equivalent: true, Confidence: 0.99}}
	svc := NewService(judge, logging.Discard())

	res := svc.Check(context.Background(), "rose", "sunflower")
	if judge.called {
		t.Fatal("judge must not be consulted for clearly different words")
	}
	if res.Classification != ClassReject {
		t.Fatalf("expected reject, got %s", res.Classification)
	}
}

func TestServiceSkipsJudgeOnAccepted(t *testing.T) {
	judge := &recordingJudge{}
	svc := NewService(judge, logging.Discard())

	res := svc.Check(context.Background(), "Sun-Flower!", "sunflower")
	if judge.called {
		t.Fatal("judge must not be consulted for accepted guesses")
	}
	if res.Classification != ClassExact {
		t.Fatalf("expected exact, got %s", res.Classification)
	}
}

func TestServiceJudgeFailureDegradesToReject(t *testing.T) {
	judge := &recordingJudge{err: errors.New("judge down")}
	svc := NewService(judge, logging.Discard())

	res := svc.Check(context.Background(), "sunfower", "sunflower")
	if res.Classification != ClassReject {
		t.Fatalf("expected reject on judge failure, got %s", res.Classification)
	}
}

func TestServiceNilJudge(t *testing.T) {
	svc := NewService(nil, logging.Discard())

	res := svc.Check(context.Background(), "sunfower", "sunflower")
	if res.Classification != ClassReject {
		t.Fatalf("expected reject without judge, got %s", res.Classification)
	}
}

package shortlist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
	"github.com/hireflow/hireflow/internal/hiring"
)

type stubGenerator struct {
	responses  []string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no stubbed response")
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

type fakeStore struct {
	job         *hiring.Job
	apps        []*hiring.Application
	transitions map[uint]hiring.Transition
}

func newFakeStore(apps ...*hiring.Application) *fakeStore {
	return &fakeStore{
		job:         &hiring.Job{ID: 1, Title: "Go Developer", Description: "Build backend services"},
		apps:        apps,
		transitions: make(map[uint]hiring.Transition),
	}
}

func (f *fakeStore) Job(_ context.Context, _ uint) (*hiring.Job, error) { return f.job, nil }

func (f *fakeStore) ApplicationsByJobAndStatus(_ context.Context, _ uint, status hiring.Status) ([]*hiring.Application, error) {
	var out []*hiring.Application
	for _, app := range f.apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, id uint, tr hiring.Transition) error {
	for _, app := range f.apps {
		if app.ID != id {
			continue
		}
		if err := tr.Validate(app.Status); err != nil {
			return err
		}
		app.Status = tr.To
		app.ShortlistReason = tr.ShortlistReason
		f.transitions[id] = tr
		return nil
	}
	return errors.New("application not found")
}

func application(id uint) *hiring.Application {
	return &hiring.Application{ID: id, JobID: 1, Status: hiring.StatusApplied, ResumeText: "Five years of Go"}
}

func TestRunShortlistsOnPositiveVerdict(t *testing.T) {
	store := newFakeStore(application(1))
	stub := &stubGenerator{responses: []string{`{"shortlisted": true, "reason": "fit"}`}}
	engine := New(store, stub, time.Second, zap.NewNop())

	summary, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Processed != 1 || summary.Shortlisted != 1 || summary.Rejected != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if store.apps[0].Status != hiring.StatusShortlisted {
		t.Fatalf("expected Shortlisted, got %s", store.apps[0].Status)
	}

	if store.apps[0].ShortlistReason == nil || *store.apps[0].ShortlistReason != "fit" {
		t.Fatalf("expected reason 'fit', got %v", store.apps[0].ShortlistReason)
	}
}

func TestRunRejectsOnNegativeVerdict(t *testing.T) {
	store := newFakeStore(application(1))
	stub := &stubGenerator{responses: []string{`{"shortlisted": false}`}}
	engine := New(store, stub, time.Second, zap.NewNop())

	summary, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Rejected != 1 || summary.Shortlisted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if store.apps[0].Status != hiring.StatusRejected {
		t.Fatalf("expected Rejected, got %s", store.apps[0].Status)
	}

	if store.apps[0].ShortlistReason == nil || *store.apps[0].ShortlistReason != defaultRejectReason {
		t.Fatalf("expected default reject reason, got %v", store.apps[0].ShortlistReason)
	}
}

func TestRunLeavesAppliedWhenDecisionKeyMissing(t *testing.T) {
	store := newFakeStore(application(1))
	stub := &stubGenerator{responses: []string{`{"reason": "no decision"}`}}
	engine := New(store, stub, time.Second, zap.NewNop())

	summary, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Processed != 1 || summary.Shortlisted != 0 || summary.Rejected != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if store.apps[0].Status != hiring.StatusApplied {
		t.Fatalf("expected application to stay Applied, got %s", store.apps[0].Status)
	}
}

func TestRunLeavesAppliedOnGeneratorError(t *testing.T) {
	store := newFakeStore(application(1), application(2))
	stub := &stubGenerator{err: errors.New("upstream down")}
	engine := New(store, stub, time.Second, zap.NewNop())

	summary, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Processed != 2 || summary.Shortlisted != 0 || summary.Rejected != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for _, app := range store.apps {
		if app.Status != hiring.StatusApplied {
			t.Fatalf("expected application %d to stay Applied, got %s", app.ID, app.Status)
		}
	}
}

func TestRunContinuesAfterPerItemFailure(t *testing.T) {
	store := newFakeStore(application(1), application(2))
	stub := &stubGenerator{responses: []string{
		"not json at all",
		`{"shortlisted": true, "reason": "strong"}`,
	}}
	engine := New(store, stub, time.Second, zap.NewNop())

	summary, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Shortlisted != 1 {
		t.Fatalf("expected one shortlisted, got %+v", summary)
	}

	if store.apps[0].Status != hiring.StatusApplied {
		t.Fatalf("expected first application to stay Applied, got %s", store.apps[0].Status)
	}

	if store.apps[1].Status != hiring.StatusShortlisted {
		t.Fatalf("expected second application Shortlisted, got %s", store.apps[1].Status)
	}
}

func TestRunFailsWithoutGenerator(t *testing.T) {
	store := newFakeStore(application(1))
	engine := New(store, nil, time.Second, zap.NewNop())

	_, err := engine.Run(context.Background(), 1)
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	if store.apps[0].Status != hiring.StatusApplied {
		t.Fatalf("expected no mutation, got %s", store.apps[0].Status)
	}
}

func TestPromptTruncatesInputs(t *testing.T) {
	store := newFakeStore(application(1))
	store.job.Description = strings.Repeat("d", 1500)
	store.apps[0].ResumeText = strings.Repeat("r", 2500)

	stub := &stubGenerator{responses: []string{`{"shortlisted": true, "reason": "ok"}`}}
	engine := New(store, stub, time.Second, zap.NewNop())

	if _, err := engine.Run(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Count(stub.lastPrompt, "d") < 1000 || strings.Contains(stub.lastPrompt, strings.Repeat("d", 1001)) {
		t.Fatalf("job description not truncated to 1000 runes")
	}

	if strings.Contains(stub.lastPrompt, strings.Repeat("r", 2001)) {
		t.Fatalf("resume not truncated to 2000 runes")
	}
}

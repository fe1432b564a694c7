package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hireflow/hireflow/internal/hiring"
)

// stubGenerator implements ai.Generator for tests.
type stubGenerator struct {
	response   string
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
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

// fakeTransitioner records applied transitions keyed by application id.
type fakeTransitioner struct {
	mu          sync.Mutex
	status      map[uint]hiring.Status
	transitions map[uint][]hiring.Transition
	err         error
}

func newFakeTransitioner(seed map[uint]hiring.Status) *fakeTransitioner {
	if seed == nil {
		seed = make(map[uint]hiring.Status)
	}
	return &fakeTransitioner{status: seed, transitions: make(map[uint][]hiring.Transition)}
}

func (f *fakeTransitioner) ApplyTransition(_ context.Context, id uint, tr hiring.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	from, ok := f.status[id]
	if !ok {
		return errors.New("application not found")
	}
	if err := tr.Validate(from); err != nil {
		return err
	}

	f.status[id] = tr.To
	f.transitions[id] = append(f.transitions[id], tr)
	return nil
}

func (f *fakeTransitioner) lastTransition(id uint) (hiring.Transition, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trs := f.transitions[id]
	if len(trs) == 0 {
		return hiring.Transition{}, false
	}
	return trs[len(trs)-1], true
}

// fakeArtifacts keeps rendered artifacts in memory.
type fakeArtifacts struct {
	saved   map[string][]byte
	saveErr error
	removed []string
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{saved: make(map[string][]byte)}
}

func (f *fakeArtifacts) Save(applicationID uint, data []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := pathFor(applicationID)
	f.saved[path] = data
	return path, nil
}

func (f *fakeArtifacts) Remove(path string) error {
	delete(f.saved, path)
	f.removed = append(f.removed, path)
	return nil
}

func pathFor(applicationID uint) string {
	return fmt.Sprintf("reports/report_application_%d.html", applicationID)
}

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

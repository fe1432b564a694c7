package interview

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/hiring"
)

func compilerFixture(t *testing.T, generator *stubGenerator) (*Compiler, *SessionStore, *fakeTransitioner, *fakeArtifacts, *Session) {
	t.Helper()

	sessions := NewSessionStore(time.Hour)
	store := newFakeTransitioner(map[uint]hiring.Status{42: hiring.StatusInvited})
	artifacts := newFakeArtifacts()

	compiler := NewCompiler(sessions, store, artifacts, generator, time.Second, zap.NewNop())
	session := sessions.Create(42, "Design distributed systems")
	return compiler, sessions, store, artifacts, session
}

func scoredAnswers(scores ...int) []hiring.ScoredAnswer {
	answers := make([]hiring.ScoredAnswer, 0, len(scores))
	for _, score := range scores {
		answers = append(answers, hiring.ScoredAnswer{
			Question: "q",
			Answer:   "a",
			Score:    score,
			Feedback: "f",
		})
	}
	return answers
}

func TestCompileRejectsEmptyBatch(t *testing.T) {
	compiler, _, _, _, session := compilerFixture(t, &stubGenerator{})

	_, err := compiler.Compile(context.Background(), session.Token, nil)
	require.Error(t, err)
}

func TestCompileRequiresSession(t *testing.T) {
	compiler, _, _, _, _ := compilerFixture(t, &stubGenerator{})

	_, err := compiler.Compile(context.Background(), "bogus", scoredAnswers(5))
	require.ErrorIs(t, err, ErrNoActiveInterview)
}

func TestCompileFallbackScorecardAverages(t *testing.T) {
	stub := &stubGenerator{err: errors.New("upstream down")}
	compiler, sessions, store, artifacts, session := compilerFixture(t, stub)

	scorecard, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(8, 6, 10))
	require.NoError(t, err)

	// [8,6,10] averages to exactly 8.0.
	require.Equal(t, "Candidate completed the interview with an average score of 8.0/10.", scorecard.OverallSummary)
	require.Equal(t, fallbackRecommendation, scorecard.FinalRecommendation)

	require.Equal(t, hiring.StatusCompleted, store.status[42])

	tr, ok := store.lastTransition(42)
	require.True(t, ok)
	require.NotNil(t, tr.ReportPath)
	require.NotNil(t, tr.InterviewResults)

	var persisted []hiring.ScoredAnswer
	require.NoError(t, json.Unmarshal([]byte(*tr.InterviewResults), &persisted))
	require.Len(t, persisted, 3)

	require.Contains(t, artifacts.saved, *tr.ReportPath)
	require.Equal(t, 0, sessions.Len(), "session must be destroyed on success")
}

func TestCompileUsesAIScorecardWhenComplete(t *testing.T) {
	stub := &stubGenerator{response: `{
		"overall_summary": "Strong showing.",
		"strengths": ["communication", "depth"],
		"areas_for_improvement": ["testing"],
		"final_recommendation": "Recommend"
	}`}
	compiler, _, _, _, session := compilerFixture(t, stub)

	scorecard, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(9, 9))
	require.NoError(t, err)

	require.Equal(t, "Strong showing.", scorecard.OverallSummary)
	require.Equal(t, []string{"communication", "depth"}, scorecard.Strengths)
	require.Equal(t, "Recommend", scorecard.FinalRecommendation)
}

func TestCompileKeepsFallbackOnPartialScorecard(t *testing.T) {
	stub := &stubGenerator{response: `{
		"overall_summary": "Strong showing.",
		"strengths": ["communication"],
		"final_recommendation": "Recommend"
	}`}
	compiler, _, _, _, session := compilerFixture(t, stub)

	scorecard, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(4))
	require.NoError(t, err)

	require.Equal(t, fallbackRecommendation, scorecard.FinalRecommendation)
	require.Equal(t, []string{"Completed all interview questions"}, scorecard.Strengths)
}

func TestCompileDeduplicatesAndSortsFlags(t *testing.T) {
	stub := &stubGenerator{err: errors.New("no ai")}
	compiler, _, _, artifacts, session := compilerFixture(t, stub)

	session.ProctoringFlags = []string{"b", "a", "a"}

	_, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(5))
	require.NoError(t, err)

	var artifact []byte
	for _, data := range artifacts.saved {
		artifact = data
	}
	require.NotNil(t, artifact)

	html := string(artifact)
	require.Contains(t, html, "Proctoring Flags")
	require.Equal(t, 1, strings.Count(html, "<li>a</li>"))
	require.Equal(t, 1, strings.Count(html, "<li>b</li>"))
	require.Less(t, strings.Index(html, "<li>a</li>"), strings.Index(html, "<li>b</li>"))
}

func TestCompileOmitsProctoringSectionWithoutFlags(t *testing.T) {
	stub := &stubGenerator{err: errors.New("no ai")}
	compiler, _, _, artifacts, session := compilerFixture(t, stub)

	_, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(5))
	require.NoError(t, err)

	for _, data := range artifacts.saved {
		require.NotContains(t, string(data), "Proctoring Flags")
	}
}

func TestCompileRollsBackArtifactOnTransitionFailure(t *testing.T) {
	stub := &stubGenerator{err: errors.New("no ai")}
	sessions := NewSessionStore(time.Hour)
	store := newFakeTransitioner(map[uint]hiring.Status{42: hiring.StatusApplied}) // Applied -> Completed is illegal
	artifacts := newFakeArtifacts()
	compiler := NewCompiler(sessions, store, artifacts, stub, time.Second, zap.NewNop())
	session := sessions.Create(42, "reqs")

	_, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(5))
	require.ErrorIs(t, err, hiring.ErrInvalidTransition)

	require.Empty(t, artifacts.saved, "artifact must not survive a failed commit")
	require.Len(t, artifacts.removed, 1)
	require.Equal(t, 1, sessions.Len(), "session survives a failed compile")
}

func TestCompileFailsWhenArtifactCannotBeWritten(t *testing.T) {
	stub := &stubGenerator{err: errors.New("no ai")}
	sessions := NewSessionStore(time.Hour)
	store := newFakeTransitioner(map[uint]hiring.Status{42: hiring.StatusInvited})
	artifacts := newFakeArtifacts()
	artifacts.saveErr = errors.New("disk full")
	compiler := NewCompiler(sessions, store, artifacts, stub, time.Second, zap.NewNop())
	session := sessions.Create(42, "reqs")

	_, err := compiler.Compile(context.Background(), session.Token, scoredAnswers(5))
	require.Error(t, err)

	require.Equal(t, hiring.StatusInvited, store.status[42], "status must not change without an artifact")
}

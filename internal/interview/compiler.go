package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
	"github.com/hireflow/hireflow/internal/hiring"
	"github.com/hireflow/hireflow/internal/report"
)

const (
	maxRequirementsRunes = 1000
	maxTranscriptRunes   = 3000

	fallbackRecommendation = "Review Required"
	reportTitle            = "Candidate Performance Report"
)

var scorecardKeys = []string{"overall_summary", "strengths", "areas_for_improvement", "final_recommendation"}

// artifacts is the slice of the report store the compiler needs.
type artifacts interface {
	Save(applicationID uint, data []byte) (string, error)
	Remove(path string) error
}

// Compiler aggregates scored answers and proctoring flags into a scorecard,
// persists the report artifact and finalizes the application.
type Compiler struct {
	sessions  *SessionStore
	store     transitioner
	artifacts artifacts
	generator ai.Generator
	logger    *zap.Logger
	timeout   time.Duration
}

// NewCompiler creates a report compiler. The generator may be nil; the
// deterministic fallback scorecard is used in that case.
func NewCompiler(sessions *SessionStore, store transitioner, artifacts artifacts, generator ai.Generator, timeout time.Duration, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Compiler{
		sessions:  sessions,
		store:     store,
		artifacts: artifacts,
		generator: generator,
		logger:    logger,
		timeout:   timeout,
	}
}

// Compile finalizes the interview behind token. The artifact reference and
// the Completed status commit together: a failed transition removes the
// freshly written artifact so neither side is observed alone. The session is
// destroyed on success.
func (c *Compiler) Compile(ctx context.Context, token string, answers []hiring.ScoredAnswer) (*hiring.Scorecard, error) {
	session, err := c.sessions.Get(token)
	if err != nil {
		return nil, err
	}

	if len(answers) == 0 {
		return nil, fmt.Errorf("no interview results provided")
	}

	session.mu.Lock()
	applicationID := session.ApplicationID
	requirements := session.JobRequirements
	flags := append([]string(nil), session.ProctoringFlags...)
	session.mu.Unlock()

	average := averageScore(answers)
	scorecard := c.buildScorecard(ctx, requirements, answers, average)

	doc := report.Document{
		Title:               reportTitle,
		OverallSummary:      scorecard.OverallSummary,
		Strengths:           scorecard.Strengths,
		AreasForImprovement: scorecard.AreasForImprovement,
		FinalRecommendation: scorecard.FinalRecommendation,
		ProctoringFlags:     normalizeFlags(flags),
	}

	artifact, err := report.Render(doc)
	if err != nil {
		return nil, err
	}

	path, err := c.artifacts.Save(applicationID, artifact)
	if err != nil {
		return nil, err
	}

	results, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("marshal interview results: %w", err)
	}

	if err := c.store.ApplyTransition(ctx, applicationID, hiring.Complete(path, string(results))); err != nil {
		if removeErr := c.artifacts.Remove(path); removeErr != nil {
			c.logger.Error("orphaned report artifact", zap.String("path", path), zap.Error(removeErr))
		}
		return nil, fmt.Errorf("complete application %d: %w", applicationID, err)
	}

	c.sessions.Destroy(token)

	c.logger.Info("interview completed",
		zap.Uint("application_id", applicationID),
		zap.Float64("average_score", average),
		zap.Int("answers", len(answers)),
		zap.String("report_path", path),
	)

	return scorecard, nil
}

// buildScorecard always computes the deterministic fallback first, then lets
// a well-formed AI response replace it. Partial responses are discarded.
func (c *Compiler) buildScorecard(ctx context.Context, requirements string, answers []hiring.ScoredAnswer, average float64) *hiring.Scorecard {
	scorecard := &hiring.Scorecard{
		OverallSummary:      fmt.Sprintf("Candidate completed the interview with an average score of %.1f/10.", average),
		Strengths:           []string{"Completed all interview questions"},
		AreasForImprovement: []string{"Further evaluation recommended"},
		FinalRecommendation: fallbackRecommendation,
	}

	if c.generator == nil {
		return scorecard
	}

	prompt := fmt.Sprintf(`Act as a senior hiring manager. Analyze this interview performance and provide a comprehensive evaluation.

**Job Requirements:**
%s

**Interview Transcript & Evaluation:**
%s

**Average Score:** %.1f/10

Provide a JSON scorecard with exactly these keys:
- "overall_summary": A 2-3 sentence summary of performance
- "strengths": Array of 2-4 key strengths demonstrated
- "areas_for_improvement": Array of 2-4 areas needing development
- "final_recommendation": One of ["Strongly Recommend", "Recommend", "Consider", "Not Recommended"]

Return only valid JSON, no markdown.`,
		ai.Truncate(requirements, maxRequirementsRunes),
		ai.Truncate(formatTranscript(answers), maxTranscriptRunes),
		average,
	)

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.generator.GenerateContent(genCtx, prompt)
	if err != nil {
		c.logger.Warn("scorecard generation failed, using fallback", zap.Error(err))
		return scorecard
	}

	data, err := ai.DecodeObject(raw)
	if err != nil {
		c.logger.Warn("scorecard response unparsable, using fallback", zap.Error(err))
		return scorecard
	}

	for _, key := range scorecardKeys {
		if _, ok := data[key]; !ok {
			c.logger.Warn("scorecard response incomplete, using fallback", zap.String("missing_key", key))
			return scorecard
		}
	}

	var generated hiring.Scorecard
	if err := mapstructure.Decode(data, &generated); err != nil {
		c.logger.Warn("scorecard response undecodable, using fallback", zap.Error(err))
		return scorecard
	}

	return &generated
}

func averageScore(answers []hiring.ScoredAnswer) float64 {
	total := 0
	for _, a := range answers {
		total += a.Score
	}
	return float64(total) / float64(len(answers))
}

func formatTranscript(answers []hiring.ScoredAnswer) string {
	var b strings.Builder
	for _, a := range answers {
		fmt.Fprintf(&b, "Q: %s\nA: %s\nScore: %d/10\nFeedback: %s\n\n", a.Question, a.Answer, a.Score, a.Feedback)
	}
	return b.String()
}

// normalizeFlags deduplicates and sorts proctoring flags for the report.
func normalizeFlags(flags []string) []string {
	seen := make(map[string]struct{}, len(flags))
	out := make([]string, 0, len(flags))
	for _, flag := range flags {
		if _, ok := seen[flag]; ok {
			continue
		}
		seen[flag] = struct{}{}
		out = append(out, flag)
	}
	sort.Strings(out)
	return out
}

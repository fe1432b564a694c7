package interview

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
	"github.com/hireflow/hireflow/internal/hiring"
)

const (
	minAnswerLength  = 10
	maxQuestionRunes = 500
	maxAnswerRunes   = 1000

	shortAnswerScore    = 2
	shortAnswerFeedback = "Answer is too short. Please provide more detail."
)

// AnswerScorer evaluates a single question/answer pair. Unlike the other AI
// call sites it does not fall back on failure: a score that cannot be
// produced is reported as an error rather than fabricated.
type AnswerScorer struct {
	generator ai.Generator
	logger    *zap.Logger
	timeout   time.Duration
}

// NewAnswerScorer creates an answer scorer.
func NewAnswerScorer(generator ai.Generator, timeout time.Duration, logger *zap.Logger) *AnswerScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnswerScorer{generator: generator, logger: logger, timeout: timeout}
}

// Score evaluates one answer. Degenerate answers (fewer than 10 characters
// after trimming) short-circuit to a fixed score without touching the
// generator.
func (s *AnswerScorer) Score(ctx context.Context, question, answer string) (*hiring.ScoredAnswer, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)

	if question == "" || answer == "" {
		return nil, fmt.Errorf("both question and answer are required")
	}

	if utf8.RuneCountInString(answer) < minAnswerLength {
		return &hiring.ScoredAnswer{
			Question: question,
			Answer:   answer,
			Score:    shortAnswerScore,
			Feedback: shortAnswerFeedback,
		}, nil
	}

	if s.generator == nil {
		return nil, ai.ErrNotConfigured
	}

	prompt := fmt.Sprintf(`As an expert technical interviewer, evaluate the following answer for the given question.
Provide a score from 0 to 10 (integer) and concise, constructive feedback (2-3 sentences).

Question: "%s"
Candidate's Answer: "%s"

Return ONLY valid JSON with exactly two keys: "score" (integer 0-10) and "feedback" (string).
No markdown formatting.`,
		ai.Truncate(question, maxQuestionRunes),
		ai.Truncate(answer, maxAnswerRunes),
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("score answer: %w", err)
	}

	data, err := ai.DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	rawScore, scoreOK := data["score"]
	feedback, feedbackOK := data["feedback"].(string)
	if !scoreOK || !feedbackOK {
		return nil, fmt.Errorf("%w: score and feedback keys are required", ai.ErrBadResponse)
	}

	score, err := coerceScore(rawScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrBadResponse, err)
	}

	return &hiring.ScoredAnswer{
		Question: question,
		Answer:   answer,
		Score:    clampScore(score),
		Feedback: feedback,
	}, nil
}

func coerceScore(v any) (int, error) {
	switch val := v.(type) {
	case float64:
		return int(math.Round(val)), nil
	case int:
		return val, nil
	default:
		return 0, fmt.Errorf("score has unexpected type %T", v)
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

package interview

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
)

const questionCount = 5

// defaultQuestions is the deterministic fallback set used whenever question
// generation cannot produce a usable result.
var defaultQuestions = []string{
	"Could you please tell me about your relevant experience?",
	"What is your biggest strength and how does it apply to this role?",
	"Describe a challenging project you worked on and how you overcame obstacles.",
	"Why are you interested in this position?",
	"Where do you see yourself in 5 years?",
}

// QuestionGenerator produces interview questions from the job description
// and the candidate's resume. It never fails: any problem with the generator
// or its response degrades to the default question set.
type QuestionGenerator struct {
	generator ai.Generator
	logger    *zap.Logger
	timeout   time.Duration
}

// NewQuestionGenerator creates a question generator. A nil ai.Generator is
// allowed and always yields the defaults.
func NewQuestionGenerator(generator ai.Generator, timeout time.Duration, logger *zap.Logger) *QuestionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QuestionGenerator{generator: generator, logger: logger, timeout: timeout}
}

// Generate returns exactly five questions.
func (q *QuestionGenerator) Generate(ctx context.Context, jobDescription, resumeText string) []string {
	if q.generator == nil {
		q.logger.Debug("question generator not configured, using defaults")
		return defaults()
	}

	prompt := fmt.Sprintf(`Act as an expert technical hiring manager. Generate 5 targeted interview questions based on the job requirements and candidate's background.

**Job Requirements:**
%s

**Candidate's Skills:**
%s

Provide a valid JSON response with a key "questions" containing an array of exactly 5 interview question strings. Make questions specific, relevant, and professional.`, jobDescription, resumeText)

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	raw, err := q.generator.GenerateContent(ctx, prompt)
	if err != nil {
		q.logger.Warn("question generation failed, using defaults", zap.Error(err))
		return defaults()
	}

	data, err := ai.DecodeObject(raw)
	if err != nil {
		q.logger.Warn("question response unparsable, using defaults", zap.Error(err))
		return defaults()
	}

	items, ok := data["questions"].([]any)
	if !ok || len(items) < questionCount {
		q.logger.Warn("question response incomplete, using defaults",
			zap.Int("received", len(items)),
		)
		return defaults()
	}

	questions := make([]string, 0, questionCount)
	for _, item := range items {
		text, ok := item.(string)
		if !ok {
			q.logger.Warn("question response contains non-string item, using defaults")
			return defaults()
		}
		questions = append(questions, text)
		if len(questions) == questionCount {
			break
		}
	}

	return questions
}

func defaults() []string {
	return append([]string(nil), defaultQuestions...)
}

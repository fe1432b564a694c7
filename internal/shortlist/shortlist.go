package shortlist

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
	"github.com/hireflow/hireflow/internal/hiring"
)

const (
	maxJobDescriptionRunes = 1000
	maxResumeRunes         = 2000

	defaultShortlistReason = "Candidate profile matches job requirements."
	defaultRejectReason    = "Profile does not match requirements."
)

// applications is the slice of the store the engine needs.
type applications interface {
	Job(ctx context.Context, id uint) (*hiring.Job, error)
	ApplicationsByJobAndStatus(ctx context.Context, jobID uint, status hiring.Status) ([]*hiring.Application, error)
	ApplyTransition(ctx context.Context, applicationID uint, tr hiring.Transition) error
}

// Summary aggregates the outcome of one shortlisting run.
type Summary struct {
	Processed   int `json:"total_processed"`
	Shortlisted int `json:"shortlisted"`
	Rejected    int `json:"rejected"`
}

// verdict is the response shape expected from the classification prompt.
type verdict struct {
	Shortlisted bool   `mapstructure:"shortlisted"`
	Reason      string `mapstructure:"reason"`
}

// Engine batch-classifies applied candidates for a job. A failed or
// malformed classification leaves the application in Applied so the run can
// be repeated later; only well-formed verdicts commit a transition.
type Engine struct {
	store     applications
	generator ai.Generator
	logger    *zap.Logger
	timeout   time.Duration
}

// New creates a shortlisting engine. The generator may be nil when AI is not
// configured; Run then fails without touching any application.
func New(store applications, generator ai.Generator, timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{store: store, generator: generator, logger: logger, timeout: timeout}
}

// Run classifies every Applied application for the job and returns aggregate
// counts. Per-application failures are absorbed: the row stays Applied and
// the run continues with the next candidate.
func (e *Engine) Run(ctx context.Context, jobID uint) (*Summary, error) {
	if e.generator == nil {
		return nil, ai.ErrNotConfigured
	}

	job, err := e.store.Job(ctx, jobID)
	if err != nil {
		return nil, err
	}

	apps, err := e.store.ApplicationsByJobAndStatus(ctx, jobID, hiring.StatusApplied)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Processed: len(apps)}

	for _, app := range apps {
		v, err := e.classify(ctx, job.Description, app.ResumeText)
		if err != nil {
			e.logger.Warn("classification failed, application stays Applied",
				zap.Uint("application_id", app.ID),
				zap.Error(err),
			)
			continue
		}

		tr := hiring.Shortlist(reasonOrDefault(v.Reason, defaultShortlistReason))
		if !v.Shortlisted {
			tr = hiring.RejectApplied(reasonOrDefault(v.Reason, defaultRejectReason))
		}

		if err := e.store.ApplyTransition(ctx, app.ID, tr); err != nil {
			e.logger.Warn("shortlist transition failed",
				zap.Uint("application_id", app.ID),
				zap.Error(err),
			)
			continue
		}

		if v.Shortlisted {
			summary.Shortlisted++
		} else {
			summary.Rejected++
		}

		e.logger.Info("application classified",
			zap.Uint("application_id", app.ID),
			zap.Bool("shortlisted", v.Shortlisted),
		)
	}

	return summary, nil
}

func (e *Engine) classify(ctx context.Context, jobDescription, resumeText string) (*verdict, error) {
	prompt := buildPrompt(jobDescription, resumeText)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	data, err := ai.DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	// A verdict without the decision key is not trusted either way.
	if _, ok := data["shortlisted"]; !ok {
		return nil, fmt.Errorf("%w: missing shortlisted key", ai.ErrBadResponse)
	}

	var v verdict
	if err := mapstructure.Decode(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrBadResponse, err)
	}

	return &v, nil
}

func buildPrompt(jobDescription, resumeText string) string {
	return fmt.Sprintf(`Analyze if the candidate's resume is a good fit for the job description.
Provide a JSON response with exactly two keys: "shortlisted" (boolean) and "reason" (a brief explanation in 1-2 sentences).

**Job Description:**
%s

**Candidate Resume:**
%s

Return only valid JSON, no markdown formatting.`,
		ai.Truncate(jobDescription, maxJobDescriptionRunes),
		ai.Truncate(resumeText, maxResumeRunes),
	)
}

func reasonOrDefault(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

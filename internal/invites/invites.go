package invites

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/hiring"
	"github.com/hireflow/hireflow/internal/mailer"
	"github.com/hireflow/hireflow/internal/store"
)

// applications is the slice of the store the invite flows need.
type applications interface {
	ApplicationsByJobAndStatus(ctx context.Context, jobID uint, status hiring.Status) ([]*hiring.Application, error)
	ApplyTransition(ctx context.Context, applicationID uint, tr hiring.Transition) error
	InviteDetailsFor(ctx context.Context, applicationID uint) (*store.InviteDetails, error)
	Application(ctx context.Context, id uint) (*hiring.Application, error)
}

// ItemResult reports the outcome for one application of a bulk run.
type ItemResult struct {
	ApplicationID uint   `json:"application_id"`
	Email         string `json:"email,omitempty"`
	Sent          bool   `json:"sent"`
	Error         string `json:"error,omitempty"`
}

// Sender drives invite and decision notifications. Status commits before
// mail goes out; notification delivery is at-least-once and a lost mail is
// recovered by re-running the invite for the application.
type Sender struct {
	store     applications
	mailer    mailer.Mailer
	webAppURL string
	logger    *zap.Logger
}

// NewSender creates an invite sender. webAppURL is the public base URL used
// to build interview links.
func NewSender(st applications, m mailer.Mailer, webAppURL string, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{store: st, mailer: m, webAppURL: webAppURL, logger: logger}
}

// Invite moves one shortlisted application to Invited and mails the
// interview link. Calling it again for an already invited application only
// resends the mail, which makes delivery retryable without a second
// transition.
func (s *Sender) Invite(ctx context.Context, applicationID uint) error {
	if s.mailer == nil {
		return mailer.ErrNotConfigured
	}

	app, err := s.store.Application(ctx, applicationID)
	if err != nil {
		return err
	}

	switch app.Status {
	case hiring.StatusShortlisted:
		if err := s.store.ApplyTransition(ctx, applicationID, hiring.Invite()); err != nil {
			return err
		}
	case hiring.StatusInvited:
		// Resend only.
	default:
		return fmt.Errorf("%w: %s -> %s", hiring.ErrInvalidTransition, app.Status, hiring.StatusInvited)
	}

	details, err := s.store.InviteDetailsFor(ctx, applicationID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/interview/%d", s.webAppURL, applicationID)
	subject := fmt.Sprintf("Interview Invitation - %s at %s", details.JobTitle, details.CompanyName)

	if err := s.mailer.Send(details.CandidateEmail, subject, inviteBody(details, link)); err != nil {
		return fmt.Errorf("invite mail for application %d (already Invited, resend to retry): %w", applicationID, err)
	}

	return nil
}

// InviteAll processes every shortlisted application for a job
// independently. A failure on one application is recorded in its item
// result and does not stop the others; there is no retry.
func (s *Sender) InviteAll(ctx context.Context, jobID uint) ([]ItemResult, error) {
	apps, err := s.store.ApplicationsByJobAndStatus(ctx, jobID, hiring.StatusShortlisted)
	if err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(apps))
	for _, app := range apps {
		item := ItemResult{ApplicationID: app.ID}

		err := s.Invite(ctx, app.ID)
		if err != nil {
			item.Error = err.Error()
			s.logger.Warn("bulk invite failed for application",
				zap.Uint("application_id", app.ID),
				zap.Error(err),
			)
			results = append(results, item)
			continue
		}

		if details, derr := s.store.InviteDetailsFor(ctx, app.ID); derr == nil {
			item.Email = details.CandidateEmail
		}
		item.Sent = true
		results = append(results, item)
	}

	s.logger.Info("bulk invite finished",
		zap.Uint("job_id", jobID),
		zap.Int("total", len(results)),
		zap.Int("sent", countSent(results)),
	)

	return results, nil
}

// Decide finalizes a completed interview as Accepted or Rejected. The
// status commits first; for acceptances a congratulation mail follows and a
// delivery failure is reported without undoing the decision.
func (s *Sender) Decide(ctx context.Context, applicationID uint, accepted bool) error {
	tr := hiring.RejectCompleted()
	if accepted {
		tr = hiring.Accept()
	}

	if err := s.store.ApplyTransition(ctx, applicationID, tr); err != nil {
		return err
	}

	if !accepted || s.mailer == nil {
		return nil
	}

	details, err := s.store.InviteDetailsFor(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("decision committed, loading mail details failed: %w", err)
	}

	subject := fmt.Sprintf("Congratulations! Next Steps for %s", details.JobTitle)
	if err := s.mailer.Send(details.CandidateEmail, subject, acceptBody(details)); err != nil {
		return fmt.Errorf("decision committed, notification failed: %w", err)
	}

	return nil
}

func countSent(results []ItemResult) int {
	sent := 0
	for _, r := range results {
		if r.Sent {
			sent++
		}
	}
	return sent
}

package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hireflow/hireflow/internal/hiring"
)

// ApplyTransition applies a lifecycle transition to one application inside a
// single transaction. The row is locked, the edge is validated against the
// current status, and the new status commits together with any companion
// fields. The row is never observed partially updated.
func (s *Store) ApplyTransition(ctx context.Context, applicationID uint, tr hiring.Transition) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app hiring.Application
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&app, applicationID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
			}
			return fmt.Errorf("lock application %d: %w", applicationID, err)
		}

		if err := tr.Validate(app.Status); err != nil {
			return err
		}

		updates := map[string]any{"status": tr.To}
		if tr.ShortlistReason != nil {
			updates["shortlist_reason"] = *tr.ShortlistReason
		}
		if tr.ReportPath != nil {
			updates["report_path"] = *tr.ReportPath
		}
		if tr.InterviewResults != nil {
			updates["interview_results"] = *tr.InterviewResults
		}

		if err := tx.Model(&app).Updates(updates).Error; err != nil {
			return fmt.Errorf("update application %d: %w", applicationID, err)
		}

		s.logger.Info("application status changed",
			zap.Uint("application_id", applicationID),
			zap.String("from", string(app.Status)),
			zap.String("to", string(tr.To)),
		)
		return nil
	})
	return err
}

// InterviewContext holds the job description and resume needed to run an
// interview for one application.
type InterviewContext struct {
	ApplicationID  uint
	Status         hiring.Status
	JobDescription string
	ResumeText     string
}

// InterviewContextFor loads the interview inputs for an application.
func (s *Store) InterviewContextFor(ctx context.Context, applicationID uint) (*InterviewContext, error) {
	var row InterviewContext
	err := s.db.WithContext(ctx).
		Table("applications").
		Select("applications.id AS application_id, applications.status, jobs.description AS job_description, applications.resume_text").
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("applications.id = ?", applicationID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
		}
		return nil, fmt.Errorf("load interview context for application %d: %w", applicationID, err)
	}
	return &row, nil
}

// InviteDetails carries the addressing data for candidate notifications.
type InviteDetails struct {
	ApplicationID  uint
	CandidateName  string
	CandidateEmail string
	JobTitle       string
	CompanyName    string
}

// InviteDetailsFor loads the candidate and job data used by invite and
// decision mail.
func (s *Store) InviteDetailsFor(ctx context.Context, applicationID uint) (*InviteDetails, error) {
	var row InviteDetails
	err := s.db.WithContext(ctx).
		Table("applications").
		Select("applications.id AS application_id, candidates.name AS candidate_name, candidates.email AS candidate_email, jobs.title AS job_title, admins.company_name").
		Joins("JOIN candidates ON candidates.id = applications.candidate_id").
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Joins("JOIN admins ON admins.id = jobs.admin_id").
		Where("applications.id = ?", applicationID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application %d: %w", applicationID, ErrNotFound)
		}
		return nil, fmt.Errorf("load invite details for application %d: %w", applicationID, err)
	}
	return &row, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hireflow/hireflow/internal/hiring"
	"github.com/hireflow/hireflow/internal/utils"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateApplication is returned when a candidate applies to the same
// job twice. Backed by the unique (candidate_id, job_id) index.
var ErrDuplicateApplication = errors.New("candidate already applied to this job")

// Store wraps the relational database. All status changes go through
// ApplyTransition so a status and its companion fields commit atomically.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

const (
	openAttempts     = 5
	openInitialDelay = 2 * time.Second
)

// Open connects to MySQL and migrates the schema. The database may still be
// starting alongside the service, so connection attempts back off and retry.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	delay := openInitialDelay

	for attempt := 1; attempt <= openAttempts; attempt++ {
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
			TranslateError: true,
		})
		if err == nil {
			if err = db.AutoMigrate(
				&hiring.Admin{},
				&hiring.Candidate{},
				&hiring.Job{},
				&hiring.Application{},
			); err != nil {
				return nil, fmt.Errorf("migrate schema: %w", err)
			}
			return New(db, logger), nil
		}

		lastErr = err
		logger.Warn("database connection failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		if attempt == openAttempts {
			break
		}
		if err := utils.WaitFor(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return nil, fmt.Errorf("connect database after %d attempts: %w", openAttempts, lastErr)
}

// New wraps an existing gorm handle. Used by Open and by tests.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Application loads one application by id.
func (s *Store) Application(ctx context.Context, id uint) (*hiring.Application, error) {
	var app hiring.Application
	if err := s.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load application %d: %w", id, err)
	}
	return &app, nil
}

// ApplicationsByJobAndStatus lists the applications for a job in the given
// lifecycle state, ordered by id.
func (s *Store) ApplicationsByJobAndStatus(ctx context.Context, jobID uint, status hiring.Status) ([]*hiring.Application, error) {
	var apps []*hiring.Application
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND status = ?", jobID, status).
		Order("id").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications for job %d: %w", jobID, err)
	}
	return apps, nil
}

// Job loads one job by id.
func (s *Store) Job(ctx context.Context, id uint) (*hiring.Job, error) {
	var job hiring.Job
	if err := s.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load job %d: %w", id, err)
	}
	return &job, nil
}

// CreateApplication inserts a new application in the Applied state. The
// unique (candidate, job) constraint rejects duplicates.
func (s *Store) CreateApplication(ctx context.Context, app *hiring.Application) error {
	app.Status = hiring.StatusApplied
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateApplication
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

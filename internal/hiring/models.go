package hiring

import "time"

// Admin owns jobs. Authentication is handled elsewhere; the engine only needs
// the company name for outgoing mail.
type Admin struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyName string `gorm:"size:255;not null"`
	Email       string `gorm:"size:255;uniqueIndex;not null"`
	Phone       string `gorm:"size:20"`
	Password    string `gorm:"size:255;not null"`
	Jobs        []Job  `gorm:"constraint:OnDelete:CASCADE"`
}

func (Admin) TableName() string { return "admins" }

type Candidate struct {
	ID           uint          `gorm:"primaryKey"`
	Name         string        `gorm:"size:255;not null"`
	Email        string        `gorm:"size:255;uniqueIndex;not null"`
	Password     string        `gorm:"size:255;not null"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE"`
}

func (Candidate) TableName() string { return "candidates" }

type Job struct {
	ID           uint   `gorm:"primaryKey"`
	AdminID      uint   `gorm:"index;not null"`
	Title        string `gorm:"size:255;not null"`
	Description  string `gorm:"type:text;not null"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE"`
}

func (Job) TableName() string { return "jobs" }

// Application is one candidate's run through the lifecycle for one job.
// At most one row exists per (candidate, job). Status and its companion
// fields are mutated only through Transition values.
type Application struct {
	ID               uint    `gorm:"primaryKey"`
	CandidateID      uint    `gorm:"index;not null;uniqueIndex:unique_application"`
	JobID            uint    `gorm:"index;not null;uniqueIndex:unique_application"`
	ResumeText       string  `gorm:"type:text;not null"`
	Status           Status  `gorm:"size:50;index;not null;default:Applied"`
	ShortlistReason  *string `gorm:"type:text"`
	ReportPath       *string `gorm:"size:500"`
	InterviewResults *string `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Application) TableName() string { return "applications" }

// ScoredAnswer is one evaluated question/answer pair from an interview.
type ScoredAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Scorecard summarises a completed interview.
type Scorecard struct {
	OverallSummary      string   `json:"overall_summary" mapstructure:"overall_summary"`
	Strengths           []string `json:"strengths" mapstructure:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement" mapstructure:"areas_for_improvement"`
	FinalRecommendation string   `json:"final_recommendation" mapstructure:"final_recommendation"`
}

// TerminationSnapshot is stored as interview_results when proctoring ends an
// interview early.
type TerminationSnapshot struct {
	TerminationReason string   `json:"termination_reason"`
	ProctoringFlags   []string `json:"proctoring_flags"`
}

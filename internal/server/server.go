package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/ai"
	"github.com/hireflow/hireflow/internal/hiring"
	"github.com/hireflow/hireflow/internal/interview"
	"github.com/hireflow/hireflow/internal/mailer"
	"github.com/hireflow/hireflow/internal/report"
	"github.com/hireflow/hireflow/internal/shortlist"
	"github.com/hireflow/hireflow/internal/store"
)

const tokenHeader = "X-Interview-Token"

// applications is the slice of the store the handlers use directly. Status
// transitions stay inside the domain packages.
type applications interface {
	Application(ctx context.Context, id uint) (*hiring.Application, error)
	CreateApplication(ctx context.Context, app *hiring.Application) error
	InterviewContextFor(ctx context.Context, applicationID uint) (*store.InterviewContext, error)
}

type shortlister interface {
	Run(ctx context.Context, jobID uint) (*shortlist.Summary, error)
}

type inviter interface {
	Invite(ctx context.Context, applicationID uint) error
	Decide(ctx context.Context, applicationID uint, accepted bool) error
}

type proctor interface {
	RecordTabSwitch(ctx context.Context, token string, now time.Time) (*interview.TabSwitchResult, error)
}

type scorer interface {
	Score(ctx context.Context, question, answer string) (*hiring.ScoredAnswer, error)
}

type compiler interface {
	Compile(ctx context.Context, token string, answers []hiring.ScoredAnswer) (*hiring.Scorecard, error)
}

type questionSource interface {
	Generate(ctx context.Context, jobDescription, resumeText string) []string
}

type artifactReader interface {
	Open(path string) ([]byte, error)
}

// Server exposes the interview lifecycle over HTTP.
type Server struct {
	store     applications
	sessions  *interview.SessionStore
	shortlist shortlister
	invites   inviter
	questions questionSource
	proctor   proctor
	scorer    scorer
	compiler  compiler
	reports   artifactReader
	logger    *zap.Logger
}

// Deps bundles everything the server needs.
type Deps struct {
	Store     applications
	Sessions  *interview.SessionStore
	Shortlist shortlister
	Invites   inviter
	Questions questionSource
	Proctor   proctor
	Scorer    scorer
	Compiler  compiler
	Reports   artifactReader
	Logger    *zap.Logger
}

// New assembles the HTTP server from its dependencies.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     deps.Store,
		sessions:  deps.Sessions,
		shortlist: deps.Shortlist,
		invites:   deps.Invites,
		questions: deps.Questions,
		proctor:   deps.Proctor,
		scorer:    deps.Scorer,
		compiler:  deps.Compiler,
		reports:   deps.Reports,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		api.POST("/apply/:job_id", s.apply)
		api.POST("/start_interview", s.startInterview)
		api.GET("/download_report/:application_id", s.downloadReport)

		admin := api.Group("/admin")
		{
			admin.POST("/shortlist/:job_id", s.runShortlist)
			admin.POST("/send_invite/:application_id", s.sendInvite)
			admin.POST("/update_status/:application_id", s.updateStatus)
		}

		live := api.Group("/", s.requireToken)
		{
			live.POST("proctor/tab_switch", s.tabSwitch)
			live.POST("score_answer", s.scoreAnswer)
			live.POST("generate_final_report", s.finalReport)
		}
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireToken gates the live interview routes. The token itself is validated
// against the session store by each handler; here only presence is checked.
func (s *Server) requireToken(c *gin.Context) {
	if c.GetHeader(tokenHeader) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "interview token required"})
		return
	}
	c.Next()
}

func (s *Server) runShortlist(c *gin.Context) {
	jobID, ok := idParam(c, "job_id")
	if !ok {
		return
	}

	summary, err := s.shortlist.Run(c.Request.Context(), jobID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) sendInvite(c *gin.Context) {
	applicationID, ok := idParam(c, "application_id")
	if !ok {
		return
	}

	if err := s.invites.Invite(c.Request.Context(), applicationID); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invitation sent"})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateStatus(c *gin.Context) {
	applicationID, ok := idParam(c, "application_id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	var accepted bool
	switch hiring.Status(req.Status) {
	case hiring.StatusAccepted:
		accepted = true
	case hiring.StatusRejected:
		accepted = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be Accepted or Rejected"})
		return
	}

	if err := s.invites.Decide(c.Request.Context(), applicationID, accepted); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (s *Server) downloadReport(c *gin.Context) {
	applicationID, ok := idParam(c, "application_id")
	if !ok {
		return
	}

	app, err := s.store.Application(c.Request.Context(), applicationID)
	if err != nil {
		s.fail(c, err)
		return
	}

	if app.ReportPath == nil || (app.Status != hiring.StatusCompleted && app.Status != hiring.StatusAccepted && app.Status != hiring.StatusRejected) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report available for this application"})
		return
	}

	data, err := s.reports.Open(*app.ReportPath)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

type applyRequest struct {
	CandidateID uint   `json:"candidate_id" binding:"required"`
	ResumeText  string `json:"resume_text" binding:"required"`
}

func (s *Server) apply(c *gin.Context) {
	jobID, ok := idParam(c, "job_id")
	if !ok {
		return
	}

	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate_id and resume_text are required"})
		return
	}

	app := &hiring.Application{
		CandidateID: req.CandidateID,
		JobID:       jobID,
		ResumeText:  req.ResumeText,
	}

	if err := s.store.CreateApplication(c.Request.Context(), app); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"application_id": app.ID,
		"status":         app.Status,
	})
}

type startInterviewRequest struct {
	ApplicationID uint `json:"application_id" binding:"required"`
}

func (s *Server) startInterview(c *gin.Context) {
	var req startInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application_id is required"})
		return
	}

	ictx, err := s.store.InterviewContextFor(c.Request.Context(), req.ApplicationID)
	if err != nil {
		s.fail(c, err)
		return
	}

	if ictx.Status != hiring.StatusInvited {
		c.JSON(http.StatusConflict, gin.H{"error": "application is not invited to interview"})
		return
	}

	session := s.sessions.Create(ictx.ApplicationID, ictx.JobDescription)
	questions := s.questions.Generate(c.Request.Context(), ictx.JobDescription, ictx.ResumeText)

	s.logger.Info("interview started",
		zap.Uint("application_id", ictx.ApplicationID),
	)

	c.JSON(http.StatusOK, gin.H{
		"token":     session.Token,
		"questions": questions,
	})
}

func (s *Server) tabSwitch(c *gin.Context) {
	result, err := s.proctor.RecordTabSwitch(c.Request.Context(), c.GetHeader(tokenHeader), time.Now())
	if err != nil {
		s.fail(c, err)
		return
	}

	if result.Terminated {
		c.JSON(http.StatusOK, gin.H{
			"terminated": true,
			"count":      result.Count,
			"message":    "Interview terminated due to excessive tab switching",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"terminated": false,
		"count":      result.Count,
		"duplicate":  result.Duplicate,
		"warning":    result.Count > 0,
	})
}

type scoreAnswerRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *Server) scoreAnswer(c *gin.Context) {
	// The token must belong to a live session even though scoring itself is
	// stateless.
	if _, err := s.sessions.Get(c.GetHeader(tokenHeader)); err != nil {
		s.fail(c, err)
		return
	}

	var req scoreAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and answer are required"})
		return
	}

	scored, err := s.scorer.Score(c.Request.Context(), req.Question, req.Answer)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, scored)
}

type finalReportRequest struct {
	Results []hiring.ScoredAnswer `json:"results"`
}

func (s *Server) finalReport(c *gin.Context) {
	var req finalReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if len(req.Results) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no interview results provided"})
		return
	}

	scorecard, err := s.compiler.Compile(c.Request.Context(), c.GetHeader(tokenHeader), req.Results)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Report generated successfully",
		"scorecard": scorecard,
	})
}

// fail maps domain errors to HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, interview.ErrNoActiveInterview):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, report.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateApplication):
		status = http.StatusConflict
	case errors.Is(err, hiring.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, report.ErrOutsideRoot):
		status = http.StatusForbidden
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, mailer.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrBadResponse):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

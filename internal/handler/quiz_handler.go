package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/model"
	"github.com/stemsi/exstem-quiz-client/internal/response"
	"github.com/stemsi/exstem-quiz-client/internal/service"
	"github.com/stemsi/exstem-quiz-client/internal/validator"
)

// QuizHandler exposes the quiz client as a JSON API.
type QuizHandler struct {
	client *service.QuizClient
	log    zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(client *service.QuizClient, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		client: client,
		log:    log.With().Str("component", "quiz_handler").Logger(),
	}
}

// GetView godoc
// GET /api/v1/quiz
// Returns the freshly rendered view.
func (h *QuizHandler) GetView(c *gin.Context) {
	response.Success(c, http.StatusOK, h.client.Render(c.Request.Context()))
}

// LoadQuestions godoc
// POST /api/v1/quiz/load
// Fetches the question set again, keeping the current server session.
func (h *QuizHandler) LoadQuestions(c *gin.Context) {
	if err := h.client.LoadQuestions(c.Request.Context()); err != nil && !errors.Is(err, service.ErrStale) {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.client.Render(c.Request.Context()))
}

// SelectOption godoc
// POST /api/v1/quiz/answers
// Records one option as the answer to a question.
func (h *QuizHandler) SelectOption(c *gin.Context) {
	var req model.SelectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	progress, err := h.client.SelectOption(c.Request.Context(), req.QuestionID, *req.Choice)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// Submit godoc
// POST /api/v1/quiz/submit
// Submits every loaded question's answer and returns the score.
func (h *QuizHandler) Submit(c *gin.Context) {
	result, err := h.client.Submit(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result": result,
		"view":   h.client.Render(c.Request.Context()).Result,
	})
}

// Reload godoc
// POST /api/v1/quiz/reload
// Runs the reload control: a new session in reset mode, instructions in relaunch mode.
func (h *QuizHandler) Reload(c *gin.Context) {
	outcome, err := h.client.Reload(c.Request.Context())
	if err != nil && !errors.Is(err, service.ErrStale) {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/model"
	"github.com/stemsi/exstem-quiz-client/internal/service"
	"github.com/stemsi/exstem-quiz-client/internal/validator"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplate parses the quiz page template for gin's HTML renderer.
func PageTemplate() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
}

const modalRelaunch = "relaunch"

type pageData struct {
	View         model.QuizView
	FormError    string
	ShowModal    bool
	Instructions string
}

// PageHandler serves the quiz as a server-rendered page. Every POST redirects
// back to the page, which is rebuilt from scratch on each GET.
type PageHandler struct {
	client *service.QuizClient
	log    zerolog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(client *service.QuizClient, log zerolog.Logger) *PageHandler {
	return &PageHandler{
		client: client,
		log:    log.With().Str("component", "page_handler").Logger(),
	}
}

// Index godoc
// GET /
// Renders the quiz. An unloaded client tries to load first, like opening the page.
func (h *PageHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.client.Render(ctx).Loaded {
		if err := h.client.LoadQuestions(ctx); err != nil && !errors.Is(err, service.ErrStale) {
			h.log.Warn().Err(err).Msg("Initial load failed")
		}
	}

	data := pageData{View: h.client.Render(ctx)}
	if c.Query("modal") == modalRelaunch {
		data.ShowModal = true
		data.Instructions = service.RelaunchInstructions
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// Select godoc
// POST /select
// Form fields question_id and choice.
func (h *PageHandler) Select(c *gin.Context) {
	var req model.SelectRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		data := pageData{View: h.client.Render(c.Request.Context()), FormError: firstField(fields)}
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}

	progress, err := h.client.SelectOption(c.Request.Context(), req.QuestionID, *req.Choice)
	if err != nil {
		h.log.Warn().Err(err).Str("question_id", req.QuestionID).Msg("Select failed")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	h.log.Debug().Str("progress", progress.Text()).Msg("Answer saved")
	c.Redirect(http.StatusSeeOther, "/#"+cardAnchor(req.QuestionID))
}

// Submit godoc
// POST /submit
func (h *PageHandler) Submit(c *gin.Context) {
	if _, err := h.client.Submit(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Submit failed")
	}
	c.Redirect(http.StatusSeeOther, "/#result")
}

// Reload godoc
// POST /reload
func (h *PageHandler) Reload(c *gin.Context) {
	outcome, err := h.client.Reload(c.Request.Context())
	if err != nil && !errors.Is(err, service.ErrStale) {
		h.log.Warn().Err(err).Msg("Reload failed")
	}

	if outcome.Instructions != "" {
		c.Redirect(http.StatusSeeOther, "/?modal="+modalRelaunch)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func cardAnchor(questionID string) string {
	return "q-" + template.URLQueryEscaper(questionID)
}

func firstField(fields map[string]string) string {
	for _, key := range []string{"question_id", "choice", "detail"} {
		if msg, ok := fields[key]; ok {
			return msg
		}
	}
	for _, msg := range fields {
		return msg
	}
	return ""
}

var templateFuncs = template.FuncMap{
	"anchor": cardAnchor,
	"itoa":   strconv.Itoa,
}

// Package api talks to the quiz server: the question bank at GET /api/questions
// and the grader at POST /api/submit.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/model"
)

const (
	questionsPath = "/api/questions"
	submitPath    = "/api/submit"

	maxBodyBytes = 4 << 20
)

var (
	// ErrUnavailable wraps transport failures: the server could not be reached.
	ErrUnavailable = errors.New("quiz server unavailable")
	// ErrMalformedResponse wraps bodies that do not decode into the expected shape.
	ErrMalformedResponse = errors.New("malformed response from quiz server")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("quiz server returned %d: %s", e.StatusCode, e.Message)
}

// Client is the HTTP client for the quiz server. It replays the server's
// session cookie the way a browser would, so repeated loads reuse the same
// session. Cookies from a question fetch are only kept once AdoptSession is
// called with the fetched set.
type Client struct {
	baseURL      string
	questionsURL *url.URL
	http         *http.Client
	jar          *resettableJar
	log          zerolog.Logger
}

// NewClient creates a Client. A zero timeout means no per-request timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	questionsURL, err := url.Parse(baseURL + questionsPath)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	jar, err := newResettableJar()
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL:      baseURL,
		questionsURL: questionsURL,
		http:         &http.Client{Timeout: timeout},
		jar:          jar,
		log:          log.With().Str("component", "api_client").Logger(),
	}, nil
}

// FetchQuestions loads the session id and its ordered questions.
func (c *Client) FetchQuestions(ctx context.Context) (model.QuestionSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+questionsPath, nil)
	if err != nil {
		return model.QuestionSet{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var set model.QuestionSet
	cookies, err := c.do(req, &set)
	if err != nil {
		return model.QuestionSet{}, err
	}
	set.Cookies = cookies

	if set.Session == "" {
		return model.QuestionSet{}, fmt.Errorf("%w: missing session", ErrMalformedResponse)
	}
	if set.Questions == nil {
		set.Questions = []model.Question{}
	}

	c.log.Info().
		Str("session", set.Session).
		Int("questions", len(set.Questions)).
		Msg("Questions fetched")

	return set, nil
}

type scoreWire struct {
	Score *float64 `json:"score"`
	Flag  string   `json:"flag"`
}

// Submit posts the final answers and returns the grader's result.
func (c *Client) Submit(ctx context.Context, payload model.SubmissionPayload) (model.ScoreResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.ScoreResult{}, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return model.ScoreResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var wire scoreWire
	cookies, err := c.do(req, &wire)
	if err != nil {
		return model.ScoreResult{}, err
	}
	c.jar.SetCookies(req.URL, cookies)
	if wire.Score == nil {
		return model.ScoreResult{}, fmt.Errorf("%w: missing score", ErrMalformedResponse)
	}

	result := model.ScoreResult{Score: *wire.Score, Flag: wire.Flag}

	c.log.Info().
		Str("session", payload.Session).
		Float64("score", result.Score).
		Bool("flag", result.HasFlag()).
		Msg("Answers submitted")

	return result, nil
}

// AdoptSession stores the cookies of a fetched set, making its session the one
// replayed on later requests.
func (c *Client) AdoptSession(set model.QuestionSet) {
	if len(set.Cookies) == 0 {
		return
	}
	c.jar.SetCookies(c.questionsURL, set.Cookies)
	c.log.Debug().Str("session", set.Session).Msg("Session adopted")
}

// ResetSession forgets the server's session cookie so the next fetch is issued
// a new session.
func (c *Client) ResetSession() error {
	return c.jar.reset()
}

// do sends req with the jar's cookies and decodes a 2xx body into out. The
// response cookies are returned, not stored.
func (c *Client) do(req *http.Request, out interface{}) ([]*http.Cookie, error) {
	c.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("Upstream request")

	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", req.URL.String()).Msg("Upstream unreachable")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("url", req.URL.String()).
			Str("error", statusErr.Message).
			Msg("Upstream rejected request")
		return nil, statusErr
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		c.log.Error().Err(err).Str("url", req.URL.String()).Msg("Upstream response did not decode")
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return resp.Cookies(), nil
}

// errorMessage extracts {"error": "..."} or {"detail": "..."} from an error body.
func errorMessage(body io.Reader, status int) string {
	var payload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			return detail
		}
	}
	return http.StatusText(status)
}

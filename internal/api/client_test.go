package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-quiz-client/internal/model"
	"github.com/stemsi/exstem-quiz-client/internal/quiztest"
)

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(baseURL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestFetchQuestionsReusesSessionCookie(t *testing.T) {
	srv := quiztest.NewServer(quiztest.NumberedQuestions(3), nil)
	defer srv.Close()
	c := newClient(t, srv.URL)

	first, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Questions, 3)
	assert.Equal(t, "1", first.Questions[0].ID.Key())
	assert.Equal(t, []string{"A1", "B1", "C1", "D1"}, first.Questions[0].Options)

	require.NotEmpty(t, first.Cookies)
	c.AdoptSession(first)

	second, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Session, second.Session)

	require.NoError(t, c.ResetSession())
	third, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Session, third.Session)
}

func TestFetchQuestionsDoesNotKeepCookiesUntilAdopted(t *testing.T) {
	srv := quiztest.NewServer(quiztest.NumberedQuestions(1), nil)
	defer srv.Close()
	c := newClient(t, srv.URL)

	first, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)
	second, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Session, second.Session)

	c.AdoptSession(second)
	third, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.Session, third.Session)
}

func TestFetchQuestionsNullQuestionsBecomesEmpty(t *testing.T) {
	srv := quiztest.NewServer(nil, nil)
	defer srv.Close()
	srv.QuestionsBody = `{"session":"s1","questions":null}`

	set, err := newClient(t, srv.URL).FetchQuestions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, set.Questions)
	assert.Empty(t, set.Questions)
}

func TestFetchQuestionsMalformed(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing session", `{"questions":[]}`},
		{"bad id", `{"session":"s1","questions":[{"id":null,"question":"q","options":[]}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := quiztest.NewServer(nil, nil)
			defer srv.Close()
			srv.QuestionsBody = tc.body

			_, err := newClient(t, srv.URL).FetchQuestions(context.Background())
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestFetchQuestionsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url).FetchQuestions(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchQuestionsServerError(t *testing.T) {
	srv := quiztest.NewServer(nil, nil)
	defer srv.Close()
	srv.BeforeQuestions = func(int) bool { return false }

	_, err := newClient(t, srv.URL).FetchQuestions(context.Background())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Message)
}

func TestSubmitScoresAndFlags(t *testing.T) {
	srv := quiztest.NewServer(quiztest.NumberedQuestions(2), map[string]int{"1": 0, "2": 3})
	defer srv.Close()
	c := newClient(t, srv.URL)

	set, err := c.FetchQuestions(context.Background())
	require.NoError(t, err)

	result, err := c.Submit(context.Background(), model.BuildSubmission(set.Session, set.Questions, model.AnswerMap{"1": 0, "2": 3}))
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, "FLAG{test}", result.Flag)

	result, err = c.Submit(context.Background(), model.BuildSubmission(set.Session, set.Questions, model.AnswerMap{"1": 0}))
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)
	assert.False(t, result.HasFlag())

	assert.JSONEq(t, `{"session":"`+set.Session+`","answers":[{"id":1,"choice":0},{"id":2,"choice":null}]}`, srv.LastSubmissionJSON())
}

func TestSubmitInvalidSession(t *testing.T) {
	srv := quiztest.NewServer(quiztest.NumberedQuestions(1), nil)
	defer srv.Close()

	_, err := newClient(t, srv.URL).Submit(context.Background(), model.SubmissionPayload{Session: "ghost"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "invalid session", statusErr.Message)
}

func TestSubmitMissingScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"flag": "x"})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Submit(context.Background(), model.SubmissionPayload{Session: "s"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestErrorMessageFallsBackToDetailAndStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/questions" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"field required"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	_, err := c.FetchQuestions(context.Background())
	assert.EqualError(t, err, "quiz server returned 422: field required")

	_, err = c.Submit(context.Background(), model.SubmissionPayload{Session: "s"})
	assert.EqualError(t, err, "quiz server returned 502: Bad Gateway")
}

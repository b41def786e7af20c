// Package quiztest provides an in-process quiz server for tests. It mirrors the
// behaviour the client relies on: a session_id cookie that keeps the same
// session across fetches, 400 {"error":"invalid session"} for unknown sessions,
// and a percentage score with a flag at or above the pass mark.
package quiztest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/stemsi/exstem-quiz-client/internal/model"
)

const cookieName = "session_id"

// Server is a fake quiz server.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	questions   []model.Question
	correct     map[string]int
	sessions    map[string]bool
	nextSession int
	fetches     int
	submissions []model.SubmissionPayload

	// Flag is returned when the score reaches PassPercent.
	Flag        string
	PassPercent int

	// BeforeQuestions, when set, runs before a question fetch is answered with
	// the 1-based fetch number. Returning false makes the server answer 500.
	BeforeQuestions func(fetch int) bool
	// QuestionsBody, when set, replaces the question fetch response body.
	QuestionsBody string
}

// NewServer starts a server holding questions. correct maps a question id key
// to its correct option index.
func NewServer(questions []model.Question, correct map[string]int) *Server {
	s := &Server{
		questions:   questions,
		correct:     correct,
		sessions:    make(map[string]bool),
		Flag:        "FLAG{test}",
		PassPercent: 90,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/questions", s.handleQuestions)
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	s.Server = httptest.NewServer(mux)
	return s
}

// NumberedQuestions builds n questions with numeric ids 1..n and options A-D.
func NumberedQuestions(n int) []model.Question {
	var b strings.Builder
	b.WriteString("[")
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":%d,"question":"Question %d?","options":["A%d","B%d","C%d","D%d"]}`, i, i, i, i, i, i)
	}
	b.WriteString("]")

	var qs []model.Question
	if err := json.Unmarshal([]byte(b.String()), &qs); err != nil {
		panic(err)
	}
	return qs
}

// Fetches returns how many question fetches were served.
func (s *Server) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Submissions returns the payloads received so far.
func (s *Server) Submissions() []model.SubmissionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SubmissionPayload(nil), s.submissions...)
}

// LastSubmissionJSON returns the last received payload re-encoded.
func (s *Server) LastSubmissionJSON() string {
	subs := s.Submissions()
	if len(subs) == 0 {
		return ""
	}
	data, _ := json.Marshal(subs[len(subs)-1])
	return string(data)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.fetches++
	fetch := s.fetches
	hook := s.BeforeQuestions
	body := s.QuestionsBody

	// The session is issued in arrival order, before any hook delays the reply.
	session := ""
	if c, err := r.Cookie(cookieName); err == nil && s.sessions[c.Value] {
		session = c.Value
	} else {
		s.nextSession++
		session = fmt.Sprintf("session-%d", s.nextSession)
		s.sessions[session] = true
	}
	s.mu.Unlock()

	if hook != nil && !hook(fetch) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		return
	}

	if body != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: session, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   session,
		"questions": s.questions,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload model.SubmissionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessions[payload.Session] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session"})
		return
	}
	s.submissions = append(s.submissions, payload)

	correct := 0
	for _, a := range payload.Answers {
		want, ok := s.correct[a.ID.Key()]
		if ok && a.Choice != nil && *a.Choice == want {
			correct++
		}
	}

	percent := 0
	if total := len(s.questions); total > 0 {
		percent = int(math.Round(float64(correct) / float64(total) * 100))
	}

	result := map[string]interface{}{"score": percent}
	if percent >= s.PassPercent {
		result["flag"] = s.Flag
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

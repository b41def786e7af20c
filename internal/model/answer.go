package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AnswerMap maps a question id key to the selected option index.
// An absent entry means the question is unanswered.
type AnswerMap map[string]int

// DecodeAnswerMap parses stored answers. Content that is not a JSON object
// yields an empty map; entries whose value is not a non-negative integer
// (number or numeric string) are dropped.
func DecodeAnswerMap(data []byte) AnswerMap {
	answers := AnswerMap{}
	if len(bytes.TrimSpace(data)) == 0 {
		return answers
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return answers
	}

	for id, v := range raw {
		if choice, ok := parseChoice(v); ok {
			answers[id] = choice
		}
	}
	return answers
}

func parseChoice(v json.RawMessage) (int, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil && n >= 0
	}

	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, false
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Encode serializes the map for storage.
func (a AnswerMap) Encode() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]int(a))
}

// Choice returns the stored choice for a question.
func (a AnswerMap) Choice(id QuestionID) (int, bool) {
	choice, ok := a[id.Key()]
	return choice, ok
}

// IsSelected reports whether option index is the stored choice for the question.
// Stored values decode to ints (numeric strings included), so string-equal
// indices compare equal here.
func (a AnswerMap) IsSelected(id QuestionID, index int) bool {
	choice, ok := a.Choice(id)
	return ok && choice == index
}

// AnswerEntry is one question's slot in a submission. Choice is nil when unanswered.
type AnswerEntry struct {
	ID     QuestionID `json:"id"`
	Choice *int       `json:"choice"`
}

// SubmissionPayload is posted to the grader.
type SubmissionPayload struct {
	Session string        `json:"session"`
	Answers []AnswerEntry `json:"answers"`
}

// BuildSubmission produces one entry per question, in fetch order.
func BuildSubmission(session string, questions []Question, answers AnswerMap) SubmissionPayload {
	entries := make([]AnswerEntry, 0, len(questions))
	for _, q := range questions {
		entry := AnswerEntry{ID: q.ID}
		if choice, ok := answers.Choice(q.ID); ok {
			c := choice
			entry.Choice = &c
		}
		entries = append(entries, entry)
	}
	return SubmissionPayload{Session: session, Answers: entries}
}

// ScoreResult is the grader's answer to a submission. Not persisted.
type ScoreResult struct {
	Score float64 `json:"score"`
	Flag  string  `json:"flag,omitempty"`
}

// HasFlag reports whether the server issued a flag.
func (r ScoreResult) HasFlag() bool { return r.Flag != "" }

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// QuestionID identifies a question. The question bank may send ids as JSON
// strings or numbers; the raw literal is kept so submissions echo it back
// unchanged, while Key gives the string form used for AnswerMap entries.
type QuestionID struct {
	key string
	raw json.RawMessage
}

// NewQuestionID builds a string-typed id.
func NewQuestionID(key string) QuestionID {
	raw, _ := json.Marshal(key)
	return QuestionID{key: key, raw: raw}
}

// Key returns the id as used in storage keys and form values.
func (id QuestionID) Key() string { return id.key }

func (id QuestionID) String() string { return id.key }

// UnmarshalJSON accepts a JSON string or number.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("question id is null")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id.key = s
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("question id must be a string or number")
		}
		id.key = n.String()
	}

	id.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the id exactly as it was received.
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return json.Marshal(id.key)
	}
	return id.raw, nil
}

// Question is a single multiple-choice question. Immutable once fetched.
type Question struct {
	ID       QuestionID `json:"id"`
	Question string     `json:"question"`
	Options  []string   `json:"options"`
}

// QuestionSet is the question bank response: a session id and the ordered questions bound to it.
type QuestionSet struct {
	Session   string     `json:"session"`
	Questions []Question `json:"questions"`

	// Cookies set by the response. They reach the client's jar only when the
	// set is adopted, so a discarded response cannot switch the session.
	Cookies []*http.Cookie `json:"-"`
}

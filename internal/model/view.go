package model

import (
	"fmt"
	"strconv"
)

// QuizView is the fully rebuilt presentation of the client state.
// Both front ends render from it.
type QuizView struct {
	Session    string      `json:"session"`
	Phase      Phase       `json:"phase"`
	Loaded     bool        `json:"loaded"`
	Status     string      `json:"status"`
	Cards      []Card      `json:"cards"`
	Progress   Progress    `json:"progress"`
	Result     *ResultView `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	ReloadMode string      `json:"reload_mode"`
}

// Card is one rendered question.
type Card struct {
	Number     int          `json:"number"`
	QuestionID string       `json:"question_id"`
	Title      string       `json:"title"`
	Options    []OptionView `json:"options"`
}

// OptionView is one selectable option.
type OptionView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// Progress counts answered questions against the loaded total.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

func (p Progress) Text() string {
	return fmt.Sprintf("Answered %d/%d", p.Answered, p.Total)
}

// ResultView is the rendered outcome of the last submission.
type ResultView struct {
	Score     float64 `json:"score"`
	ScoreText string  `json:"score_text"`
	Flag      string  `json:"flag,omitempty"`
	Hint      string  `json:"hint,omitempty"`
}

// NewResultView renders a score result. passPercent is quoted in the hint shown
// when no flag was issued.
func NewResultView(r ScoreResult, passPercent int) *ResultView {
	v := &ResultView{
		Score:     r.Score,
		ScoreText: "Score: " + strconv.FormatFloat(r.Score, 'f', -1, 64) + "%",
	}
	if r.HasFlag() {
		v.Flag = r.Flag
	} else {
		v.Hint = fmt.Sprintf("Below %d%%, no flag awarded. Answer again or review the questions.", passPercent)
	}
	return v
}

// ReloadOutcome reports what the reload control did.
type ReloadOutcome struct {
	Mode         string `json:"mode"`
	Reloaded     bool   `json:"reloaded"`
	Instructions string `json:"instructions,omitempty"`
}

// SelectRequest is the payload for choosing an option.
type SelectRequest struct {
	QuestionID string `json:"question_id" form:"question_id" binding:"required,max=256"`
	Choice     *int   `json:"choice" form:"choice" binding:"required,min=0"`
}

// Phase is where the client is in unloaded → loaded → answering* → submitted.
// Submitted is not terminal: selecting again returns to answering.
type Phase string

const (
	PhaseUnloaded  Phase = "unloaded"
	PhaseLoaded    Phase = "loaded"
	PhaseAnswering Phase = "answering"
	PhaseSubmitted Phase = "submitted"
)

// Package store persists in-progress answers per session, the way the browser
// client kept them in local storage under answers_<session>.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/stemsi/exstem-quiz-client/internal/model"
)

// ErrInvalidSession is returned for session ids that cannot name a storage key.
var ErrInvalidSession = errors.New("invalid session id")

// AnswerStore loads and saves a session's AnswerMap.
// Load never fails on corrupt content: it yields an empty map instead.
type AnswerStore interface {
	Load(ctx context.Context, session string) (model.AnswerMap, error)
	Save(ctx context.Context, session string, answers model.AnswerMap) error
	Clear(ctx context.Context, session string) error
}

func validateSession(session string) error {
	if session == "" || strings.ContainsAny(session, `/\`) || session == "." || session == ".." {
		return ErrInvalidSession
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/config"
	"github.com/stemsi/exstem-quiz-client/internal/model"
)

// FileStore writes one JSON file per session under dir.
type FileStore struct {
	dir string
	log zerolog.Logger
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{
		dir: dir,
		log: log.With().Str("component", "file_store").Logger(),
	}, nil
}

func (s *FileStore) path(session string) string {
	return filepath.Join(s.dir, config.StorageKey.Answers(session)+".json")
}

func (s *FileStore) Load(_ context.Context, session string) (model.AnswerMap, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(session))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("session", session).Msg("Unreadable answers file, starting empty")
		}
		return model.AnswerMap{}, nil
	}
	return model.DecodeAnswerMap(data), nil
}

func (s *FileStore) Save(_ context.Context, session string, answers model.AnswerMap) error {
	if err := validateSession(session); err != nil {
		return err
	}

	data, err := answers.Encode()
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".answers-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write answers: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close answers: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(session)); err != nil {
		return fmt.Errorf("replace answers: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context, session string) error {
	if err := validateSession(session); err != nil {
		return err
	}
	if err := os.Remove(s.path(session)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove answers: %w", err)
	}
	return nil
}

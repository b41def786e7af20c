package store

import (
	"context"
	"sync"

	"github.com/stemsi/exstem-quiz-client/internal/config"
	"github.com/stemsi/exstem-quiz-client/internal/model"
)

// MemoryStore keeps encoded answers in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, session string) (model.AnswerMap, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.DecodeAnswerMap(s.data[config.StorageKey.Answers(session)]), nil
}

func (s *MemoryStore) Save(_ context.Context, session string, answers model.AnswerMap) error {
	if err := validateSession(session); err != nil {
		return err
	}
	data, err := answers.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[config.StorageKey.Answers(session)] = data
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, session string) error {
	if err := validateSession(session); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, config.StorageKey.Answers(session))
	return nil
}

// Put stores raw bytes under a session key, bypassing encoding.
func (s *MemoryStore) Put(session string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[config.StorageKey.Answers(session)] = raw
}

package config

import (
	"fmt"
)

type StorageKeyStruct struct{}

func NewStorageKeyStruct() *StorageKeyStruct {
	return &StorageKeyStruct{}
}

// Answers returns the storage key for a session's in-progress answers
func (r *StorageKeyStruct) Answers(session string) string {
	return fmt.Sprintf("answers_%s", session)
}

var StorageKey = NewStorageKeyStruct()

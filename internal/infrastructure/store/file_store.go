package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"shopify-product-editor/internal/domain"
)

// fileDoc mirrors the on-disk layout: one JSON document holding the whole
// shop → token mapping.
type fileDoc struct {
	Tokens map[string]string `json:"tokens"`
}

// FileStore persists shop tokens in a single flat JSON file. The mapping
// is held in memory and written through on every Set; writes go to a temp
// file first and are renamed into place.
type FileStore struct {
	path   string
	mu     sync.Mutex
	tokens map[string]string
}

// NewFileStore opens or creates the token file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, tokens: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	if doc.Tokens != nil {
		s.tokens = doc.Tokens
	}
	return s, nil
}

// Get returns the stored token for shop, or domain.ErrTokenNotFound.
func (s *FileStore) Get(ctx context.Context, shop string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[shop]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	return token, nil
}

// Set stores the token for shop, replacing any previous value.
func (s *FileStore) Set(ctx context.Context, shop string, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[shop] = accessToken
	return s.flush()
}

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(fileDoc{Tokens: s.tokens}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

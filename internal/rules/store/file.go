package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"affirm/internal/rules/models"
)

// File persists rules as a JSON document. Writes go through a temp file and
// rename so readers never observe a torn write, and a process-level mutex
// serializes read-modify-write cycles.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

type fileDoc struct {
	Rules []models.MatchingRule `json:"matching_rules"`
}

func (s *File) load() (fileDoc, error) {
	var doc fileDoc
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read rules file: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode rules file: %w", err)
	}
	return doc, nil
}

func (s *File) save(doc fileDoc) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rules file: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "rules-*.json")
	if err != nil {
		return fmt.Errorf("create temp rules file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp rules file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp rules file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace rules file: %w", err)
	}
	return nil
}

func (s *File) List(_ context.Context) ([]models.MatchingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

func (s *File) Replace(_ context.Context, rules []models.MatchingRule) error {
	if _, err := models.NewRuleSet(rules); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(fileDoc{Rules: rules})
}

func (s *File) Snapshot(_ context.Context) (*models.RuleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return models.NewRuleSet(doc.Rules)
}

// Package quizfile reads quiz records and the conference reference data
// from disk. The current-quiz directory is expected to hold exactly one
// JSON file at a time; the rotate command maintains that invariant.
package quizfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"starting5-service/internal/domain"
)

type Store struct {
	currentDir   string
	preloadedDir string
	confsPath    string
}

func NewStore(currentDir, preloadedDir, confsPath string) *Store {
	return &Store{currentDir: currentDir, preloadedDir: preloadedDir, confsPath: confsPath}
}

// Conferences loads the school -> conference reference map and the sorted
// list of school names used to populate the guess form. The file is read on
// every call so edits land without a restart.
func (s *Store) Conferences() (map[string]string, []string, error) {
	data, err := os.ReadFile(s.confsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read conference map: %w", err)
	}
	confs := map[string]string{}
	if err := json.Unmarshal(data, &confs); err != nil {
		return nil, nil, fmt.Errorf("parse conference map: %w", err)
	}
	names := make([]string, 0, len(confs))
	for name := range confs {
		names = append(names, name)
	}
	sort.Strings(names)
	return confs, names, nil
}

// Current returns the record in the current slot.
func (s *Store) Current(ctx context.Context) (domain.QuizRecord, error) {
	if err := os.MkdirAll(s.currentDir, 0o755); err != nil {
		return domain.QuizRecord{}, fmt.Errorf("ensure current dir: %w", err)
	}
	entries, err := os.ReadDir(s.currentDir)
	if err != nil {
		return domain.QuizRecord{}, fmt.Errorf("read current dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return domain.QuizRecord{}, domain.ErrNoCurrentQuiz
	}
	sort.Strings(names)
	return s.Load(ctx, filepath.Join(s.currentDir, names[0]))
}

// Load reads one record by path. The path must resolve inside the current
// or preloaded quiz directory; anything else is treated as not found.
func (s *Store) Load(_ context.Context, path string) (domain.QuizRecord, error) {
	clean, err := filepath.Abs(path)
	if err != nil {
		return domain.QuizRecord{}, domain.ErrQuizNotFound
	}
	if !s.allowed(clean) {
		return domain.QuizRecord{}, domain.ErrQuizNotFound
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return domain.QuizRecord{}, domain.ErrQuizNotFound
	}
	var record domain.QuizRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.QuizRecord{}, fmt.Errorf("parse quiz record %s: %w", filepath.Base(clean), err)
	}
	record.ID = filepath.Base(clean)
	record.Path = clean

	confs, _, err := s.Conferences()
	if err != nil {
		return domain.QuizRecord{}, err
	}
	for i := range record.Players {
		normalizeUSC(&record.Players[i], confs)
	}
	return record, nil
}

// Promote moves a preloaded record into the current slot, clearing whatever
// was there before.
func (s *Store) Promote(path string) error {
	record, err := s.Load(context.Background(), path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.currentDir, 0o755); err != nil {
		return fmt.Errorf("ensure current dir: %w", err)
	}
	entries, err := os.ReadDir(s.currentDir)
	if err != nil {
		return fmt.Errorf("read current dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			if err := os.Remove(filepath.Join(s.currentDir, e.Name())); err != nil {
				return fmt.Errorf("clear current slot: %w", err)
			}
		}
	}
	data, err := os.ReadFile(record.Path)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	dest := filepath.Join(s.currentDir, record.ID)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write current record: %w", err)
	}
	return nil
}

// Preloaded lists the record files available for promotion.
func (s *Store) Preloaded() ([]string, error) {
	entries, err := os.ReadDir(s.preloadedDir)
	if err != nil {
		return nil, fmt.Errorf("read preloaded dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			paths = append(paths, filepath.Join(s.preloadedDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Store) allowed(abs string) bool {
	for _, dir := range []string{s.currentDir, s.preloadedDir} {
		base, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if filepath.Dir(abs) == base {
			return true
		}
	}
	return false
}

// The stats feed reports USC as "Southern California"; display and grading
// both use the short name.
func normalizeUSC(p *domain.Player, confs map[string]string) {
	if p.School != "Southern California" {
		return
	}
	p.School = "USC"
	if conf, ok := confs["USC"]; ok {
		p.Conference = conf
	} else {
		p.Conference = "P12"
	}
}

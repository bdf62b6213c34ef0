// FILE: store.go
// Package main – JSON persistence for finished runs.
//
// One document per run under the results directory (<id>.json). Writes go to
// a tmp file first and are renamed into place so a crash never leaves a
// half-written document. List returns newest-first by CreatedAt.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResultStore persists Results under one directory.
type ResultStore struct {
	dir string
}

func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("results dir: %w", err)
	}
	return &ResultStore{dir: dir}, nil
}

func (s *ResultStore) path(id string) (string, error) {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("bad result id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save writes r atomically (tmp + rename).
func (s *ResultStore) Save(r *Result) error {
	path, err := s.path(r.ID)
	if err != nil {
		return err
	}
	bs, err := json.MarshalIndent(r, "", " ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bs, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads one run document by id.
func (s *ResultStore) Load(id string) (*Result, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(bs, &r); err != nil {
		return nil, fmt.Errorf("result %s: %w", id, err)
	}
	return &r, nil
}

// List returns all stored runs, newest first. Unreadable documents are
// skipped rather than failing the whole listing.
func (s *ResultStore) List() ([]*Result, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []*Result
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		r, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// Delete removes one run document.
func (s *ResultStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

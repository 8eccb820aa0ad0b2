// Package inventory persists the per-standalone-igniter availability
// flags. The configuration is the master for how many igniters exist;
// the store file only remembers availability. The file grows when the
// configured count grows and is never truncated, so history survives a
// count reduction.
package inventory

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
)

// Entry is one igniter's persisted record.
type Entry struct {
	Nr        int  `json:"nr"`
	Available bool `json:"available"`
}

// Store is a JSON-file-backed availability store. Safe for concurrent
// use within one process; no cross-process locking is provided.
type Store struct {
	mu    sync.Mutex
	path  string
	count int
}

// Open loads or initializes the store at path, extending it to count
// entries if it holds fewer. New entries default to available.
func Open(path string, count int) (*Store, error) {
	s := &Store{path: path, count: count}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the first count entries, in igniter order.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(entries) > s.count {
		entries = entries[:s.count]
	}
	return entries, nil
}

// Available reports whether igniter nr may be fired. Unknown numbers
// are unavailable.
func (s *Store) Available(nr int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Nr == nr {
			return e.Available, nil
		}
	}
	return false, nil
}

// SetAvailable updates one igniter's availability and persists it.
func (s *Store) SetAvailable(nr int, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].Nr == nr {
			entries[i].Available = available
			if err := s.save(entries); err != nil {
				return err
			}
			log.Printf("inventory: igniter %d available=%v", nr, available)
			return nil
		}
	}
	return fmt.Errorf("igniter %d not in store", nr)
}

// load reads the full entry list, extending it to the configured count
// if needed. A corrupt file is logged and rebuilt rather than treated
// as fatal.
func (s *Store) load() ([]Entry, error) {
	var entries []Entry
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(data, &entries); jerr != nil {
			log.Printf("inventory: %s corrupt (%v), rebuilding", s.path, jerr)
			entries = nil
		}
	case os.IsNotExist(err):
		// First run; initialized below.
	default:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(entries) < s.count {
		prev := len(entries)
		for nr := prev + 1; nr <= s.count; nr++ {
			entries = append(entries, Entry{Nr: nr, Available: true})
		}
		if err := s.save(entries); err != nil {
			return nil, err
		}
		log.Printf("inventory: extended %d -> %d entries", prev, len(entries))
	}
	return entries, nil
}

func (s *Store) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

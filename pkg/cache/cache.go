// Package cache persists the small set of IP candidates that have most
// recently answered the health probe successfully, so a restart can retry
// them before falling back to a full discovery sweep.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MaxEntries bounds the cache to the most recently successful candidates,
// matching the original controller's save_ok_ip truncation to 5.
const MaxEntries = 5

// Entry is one remembered candidate IP and when it was last confirmed up.
type Entry struct {
	IP     string    `json:"ip"`
	LastOK time.Time `json:"last_ok"`
}

type document struct {
	Candidates []Entry `json:"candidates"`
}

// Store guards the on-disk cache file with a mutex. It keeps no copy in
// memory: every Load and RecordSuccess reads the file again.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store backed by path. The containing directory is created
// lazily on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the cache file, returning an empty slice (not an error) if it
// does not exist yet.
func (s *Store) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing cache %s: %w", s.path, err)
	}
	return doc.Candidates, nil
}

// IPs returns just the ordered list of candidate addresses, most recently
// successful first.
func (s *Store) IPs() ([]string, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	ips := make([]string, len(entries))
	for i, e := range entries {
		ips[i] = e.IP
	}
	return ips, nil
}

// RecordSuccess moves ip to the front of the cache with the current
// timestamp, dedupes it against any earlier entry, truncates to MaxEntries
// and atomically writes the result to disk (tempfile in the same directory,
// then rename), mirroring atomic_write_text in the original controller.
func (s *Store) RecordSuccess(ip string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		entries = nil
	}

	filtered := entries[:0:0]
	for _, e := range entries {
		if e.IP != ip {
			filtered = append(filtered, e)
		}
	}
	entries = append([]Entry{{IP: ip, LastOK: now}}, filtered...)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastOK.After(entries[j].LastOK)
	})
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	return s.writeAtomic(entries)
}

// Clear removes the cache file entirely.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) writeAtomic(entries []Entry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(document{Candidates: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// Package announcement keeps the rotating notice list shown alongside the table.
package announcement

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wonny/bigorder/pkg/logger"
)

// Defaults is shown when nothing has been configured
var Defaults = []string{
	"系统公告：所有数据来源于公开市场信息，仅供参考，不构成投资建议。",
}

// ErrEmpty is returned when saving a list with no non-blank entry
var ErrEmpty = errors.New("announcements must not be empty")

type file struct {
	Announcements []string `yaml:"announcements"`
}

// Store persists announcements as YAML and rotates through them in order
type Store struct {
	path   string
	logger *logger.Logger

	mu    sync.Mutex
	items []string
	next  int
}

// NewStore loads path; a missing, unreadable or empty file yields the defaults
func NewStore(path string, log *logger.Logger) *Store {
	s := &Store{
		path:   path,
		logger: log.WithModule("announcement"),
	}
	s.items = s.load()
	return s
}

func (s *Store) load() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WithError(err).Warn("Failed to read announcements, using defaults")
		}
		return clone(Defaults)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		s.logger.WithError(err).Warn("Malformed announcements file, using defaults")
		return clone(Defaults)
	}

	items := clean(f.Announcements)
	if len(items) == 0 {
		return clone(Defaults)
	}
	return items
}

// List returns the current announcements
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items)
}

// Next returns the announcement due for display and advances the rotation
func (s *Store) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return ""
	}
	item := s.items[s.next%len(s.items)]
	s.next = (s.next + 1) % len(s.items)
	return item
}

// Save trims items, drops blanks and persists the rest; the rotation restarts
func (s *Store) Save(items []string) ([]string, error) {
	cleaned := clean(items)
	if len(cleaned) == 0 {
		return nil, ErrEmpty
	}

	if err := s.write(cleaned); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.items = cleaned
	s.next = 0
	s.mu.Unlock()

	s.logger.WithField("count", len(cleaned)).Info("Announcements saved")
	return clone(cleaned), nil
}

// SaveText saves one announcement per non-blank line of text
func (s *Store) SaveText(text string) ([]string, error) {
	return s.Save(strings.Split(text, "\n"))
}

// Reset restores and persists the defaults
func (s *Store) Reset() ([]string, error) {
	return s.Save(Defaults)
}

func (s *Store) write(items []string) error {
	data, err := yaml.Marshal(file{Announcements: items})
	if err != nil {
		return fmt.Errorf("encode announcements: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func clone(items []string) []string {
	return append([]string(nil), items...)
}

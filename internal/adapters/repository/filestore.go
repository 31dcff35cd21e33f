package repository

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/metrics"
)

// File-backed, in-memory dual leaderboard.
//
// Both boards are kept sorted and truncated to the configured size on every
// insert: threat orders score DESC (highest threat first), nice orders score
// ASC (lowest threat first). Every mutation is flushed to disk atomically via
// a temp file and rename, so a crash never leaves a torn snapshot.

const (
	defaultSize    = 5
	defaultDataDir = "./data"
	defaultName    = "Unknown"

	niceFile   = "nice.json"
	threatFile = "threat.json"

	boardNice   = "nice"
	boardThreat = "threat"

	fileMode = 0o600
	dirMode  = 0o750
)

// FileStore implements Store with JSON snapshot persistence.
type FileStore struct {
	mu      sync.RWMutex
	nice    []model.Entry
	threat  []model.Entry
	size    int
	dataDir string
}

// NewFileStore creates a store and loads any existing snapshots from the
// data directory. A missing or unreadable snapshot yields an empty board.
func NewFileStore(opts ...Option) (*FileStore, error) {
	s := &FileStore{
		size:    defaultSize,
		dataDir: defaultDataDir,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, s.size)
	}

	if err := os.MkdirAll(s.dataDir, dirMode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	s.nice = loadBoard(filepath.Join(s.dataDir, niceFile))
	s.threat = loadBoard(filepath.Join(s.dataDir, threatFile))
	s.sortBoards()
	metrics.UpdateLeaderboardSize(boardNice, len(s.nice))
	metrics.UpdateLeaderboardSize(boardThreat, len(s.threat))

	return s, nil
}

// Consider offers a capture to both boards and persists any change.
func (s *FileStore) Consider(_ context.Context, image []byte, score float64, capturedAt time.Time) (bool, error) {
	if len(image) == 0 {
		return false, ErrEmptyImage
	}

	entry := model.Entry{
		ID:    entryID(image, capturedAt),
		Image: model.DataURI(image),
		Name:  defaultName,
		Score: score,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := false
	if kept := insert(&s.threat, entry, s.size, func(a, b model.Entry) bool {
		return a.Score > b.Score
	}); kept {
		accepted = true
		metrics.RecordLeaderboardInsert(boardThreat)
	}
	if kept := insert(&s.nice, entry, s.size, func(a, b model.Entry) bool {
		return a.Score < b.Score
	}); kept {
		accepted = true
		metrics.RecordLeaderboardInsert(boardNice)
	}

	if !accepted {
		return false, nil
	}

	metrics.UpdateLeaderboardSize(boardNice, len(s.nice))
	metrics.UpdateLeaderboardSize(boardThreat, len(s.threat))

	if err := s.persistLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Rename updates the display name on every board holding the id.
func (s *FileStore) Rename(_ context.Context, id string, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, board := range [][]model.Entry{s.nice, s.threat} {
		for i := range board {
			if board[i].ID == id {
				board[i].Name = name
				found = true
			}
		}
	}

	if !found {
		return false, nil
	}

	metrics.RecordLeaderboardRename()
	if err := s.persistLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Snapshot returns rank-ordered copies of both boards.
func (s *FileStore) Snapshot(_ context.Context) ([]model.Entry, []model.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nice := make([]model.Entry, len(s.nice))
	copy(nice, s.nice)
	threat := make([]model.Entry, len(s.threat))
	copy(threat, s.threat)
	return nice, threat
}

// insert places entry into the board kept sorted by less, then truncates to
// size. Returns true when the entry survived truncation.
func insert(board *[]model.Entry, entry model.Entry, size int, less func(a, b model.Entry) bool) bool {
	b := append(*board, entry)
	sort.SliceStable(b, func(i, j int) bool { return less(b[i], b[j]) })
	if len(b) > size {
		b = b[:size]
	}
	*board = b

	for i := range b {
		if b[i].ID == entry.ID {
			return true
		}
	}
	return false
}

// persistLocked flushes both boards. Caller must hold the write lock.
func (s *FileStore) persistLocked() error {
	errNice := saveBoard(filepath.Join(s.dataDir, niceFile), s.nice)
	errThreat := saveBoard(filepath.Join(s.dataDir, threatFile), s.threat)

	if err := errors.Join(errNice, errThreat); err != nil {
		metrics.RecordLeaderboardSaveError()
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	metrics.RecordLeaderboardSave()
	return nil
}

// saveBoard writes the board snapshot atomically: temp file in the same
// directory, fsync-free rename over the target.
func saveBoard(path string, board []model.Entry) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// loadBoard reads a board snapshot, tolerating absence and corruption.
func loadBoard(path string) []model.Entry {
	data, err := os.ReadFile(path) //nolint:gosec // path is under the configured data dir
	if err != nil {
		return nil
	}
	var board []model.Entry
	if err := json.Unmarshal(data, &board); err != nil {
		return nil
	}
	return board
}

// sortBoards restores rank order after loading snapshots from disk.
func (s *FileStore) sortBoards() {
	sort.SliceStable(s.threat, func(i, j int) bool { return s.threat[i].Score > s.threat[j].Score })
	sort.SliceStable(s.nice, func(i, j int) bool { return s.nice[i].Score < s.nice[j].Score })
}

// entryID derives a stable identifier from the capture instant and the image
// content so retries of the same capture collapse to one id.
func entryID(image []byte, capturedAt time.Time) string {
	digest := sha256.Sum256(image)
	return fmt.Sprintf("%d-%x", capturedAt.UnixNano(), digest[:8])
}

package repository

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithSize sets the maximum number of entries kept per board.
func WithSize(n int) Option {
	return func(s *FileStore) {
		s.size = n
	}
}

// WithDataDir sets the directory holding the board snapshots.
func WithDataDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

package endpoints

import "sync"

// MemoryStore keeps Config in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	cfg Config
}

// Ensure MemoryStore implements Store at compile time.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with cfg.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{cfg: cfg}
}

func (s *MemoryStore) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, nil
}

func (s *MemoryStore) SaveLoginPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.CachedLoginPath = path
	return nil
}

func (s *MemoryStore) SaveBaseURL(baseURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.BaseURL = baseURL
	return nil
}

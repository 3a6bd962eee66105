package health

import "jobtracker/internal/shared/storage/db"

// Report is the health payload.
type Report struct {
	OK              bool   `json:"ok"`
	Storage         string `json:"storage"`
	OpenConnections int    `json:"open_connections"`
}

// Service encapsulates health-related checks.
type Service struct {
	cache *db.Cache
}

// NewService constructs a new health service. cache is nil when in-memory storage is used.
func NewService(cache *db.Cache) *Service {
	return &Service{cache: cache}
}

// Status reports the storage state without opening a connection.
func (s *Service) Status() Report {
	if s.cache == nil {
		return Report{OK: true, Storage: "memory"}
	}
	if !s.cache.Connected() {
		return Report{OK: true, Storage: "disconnected"}
	}
	return Report{OK: true, Storage: "connected", OpenConnections: s.cache.Stats().OpenConnections}
}

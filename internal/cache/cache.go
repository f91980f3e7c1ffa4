// Package cache holds generated report artifacts so a report produced by one
// request can be downloaded by a later one. Live dashboard and report numbers
// are never cached; they are recomputed from the store on every request.
package cache

import (
	"context"
	"sync"
	"time"

	"tokomaju/backend/internal/domain"
)

type ReportStore interface {
	Get(ctx context.Context, id string) (*domain.GeneratedReport, bool, error)
	Set(ctx context.Context, report *domain.GeneratedReport, ttl time.Duration) error
}

// MemoryReportStore is the fallback when no Redis address is configured.
// Artifacts live in process memory and expire lazily on read.
type MemoryReportStore struct {
	mu      sync.Mutex
	reports map[string]memoryEntry
}

type memoryEntry struct {
	report    domain.GeneratedReport
	expiresAt time.Time
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{reports: make(map[string]memoryEntry)}
}

func (s *MemoryReportStore) Get(_ context.Context, id string) (*domain.GeneratedReport, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.reports[id]
	if !exists {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.reports, id)
		return nil, false, nil
	}
	report := entry.report
	return &report, true, nil
}

func (s *MemoryReportStore) Set(_ context.Context, report *domain.GeneratedReport, ttl time.Duration) error {
	if report == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{report: *report}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.reports[report.ID] = entry
	return nil
}

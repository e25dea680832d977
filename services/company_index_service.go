package services

import (
	"context"
	"sync"
	"time"

	"github.com/brandrank/audit-backend/platform"
	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

// CompanyIndexService maintains a process-wide, time-bounded index of the
// distinct company names seen across stored audits. The index is what the
// matcher resolves free-text queries against; the TTL keeps the list fetch
// from running on every keystroke-driven search.
type CompanyIndexService struct {
	store platform.AuditStore
	clock shared.Clock
	ttl   time.Duration

	mutex     sync.RWMutex
	names     []string
	fetchedAt time.Time
}

// NewCompanyIndexService creates a company-name index over the audit store
// with the given staleness bound.
func NewCompanyIndexService(store platform.AuditStore, clock shared.Clock, ttl time.Duration) *CompanyIndexService {
	return &CompanyIndexService{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// KnownCompanyNames returns the cached index when it is younger than the TTL,
// otherwise rebuilds it from the store. Failed rebuilds never overwrite the
// cache. Concurrent callers racing a stale cache may both fetch; the result
// is idempotent-equivalent so the duplicate call is accepted.
func (s *CompanyIndexService) KnownCompanyNames(ctx context.Context) ([]string, error) {
	if names, ok := s.cached(); ok {
		return names, nil
	}

	audits, err := s.store.List(ctx, "")
	if err != nil {
		if shared.IsRateLimited(err) {
			logrus.WithField("component", "CompanyIndexService").Warn("Rate limit hit while refreshing company name index. Will try again later.")
		} else {
			logrus.WithField("component", "CompanyIndexService").WithError(err).Error("Failed to refresh company name index")
		}
		return nil, err
	}

	// Distinct, first-seen order, case-sensitive as stored.
	seen := make(map[string]struct{}, len(audits))
	names := make([]string, 0, len(audits))
	for _, audit := range audits {
		if _, ok := seen[audit.CompanyName]; ok {
			continue
		}
		seen[audit.CompanyName] = struct{}{}
		names = append(names, audit.CompanyName)
	}

	s.mutex.Lock()
	s.names = names
	s.fetchedAt = s.clock.Now()
	s.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":      "CompanyIndexService",
		"distinct_names": len(names),
	}).Debug("Company name index refreshed")

	return copyNames(names), nil
}

// Invalidate drops the cached index so the next call rebuilds it.
func (s *CompanyIndexService) Invalidate() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.names = nil
	s.fetchedAt = time.Time{}
}

func (s *CompanyIndexService) cached() ([]string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.fetchedAt.IsZero() {
		return nil, false
	}
	if s.clock.Now().Sub(s.fetchedAt) >= s.ttl {
		return nil, false
	}
	return copyNames(s.names), true
}

func copyNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

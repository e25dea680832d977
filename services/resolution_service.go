package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

// ResolutionService routes a free-text brand search to the Results view,
// resolving the input against known audited company names so a typo or
// partial name lands on the existing report instead of spawning a duplicate
// audit.
type ResolutionService struct {
	index   *CompanyIndexService
	matcher *MatcherService
	metrics *shared.ServiceMetrics
}

// NewResolutionService creates a new resolution workflow over the company
// index and matcher.
func NewResolutionService(index *CompanyIndexService, matcher *MatcherService) *ResolutionService {
	return &ResolutionService{
		index:   index,
		matcher: matcher,
		metrics: shared.NewServiceMetrics("Resolution_Service"),
	}
}

// Metrics exposes the service counters.
func (s *ResolutionService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// ResolveAndRoute resolves rawInput to a navigation target for the Results
// view. A session that is known to be unauthenticated (not still loading) is
// rejected with an authentication error so the caller can show the login
// interstitial and re-enter with the same input afterwards. Index failures
// degrade to the raw input; they never block the search.
func (s *ResolutionService) ResolveAndRoute(ctx context.Context, session models.Session, rawInput string) (*models.NavigationTarget, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "EMPTY_QUERY", "company name is required", "ResolutionService", "ResolveAndRoute", false, nil)
	}

	if !session.IsAuthenticated && !session.IsLoading {
		return nil, shared.NewServiceError(shared.ErrorCategoryAuthentication, "LOGIN_REQUIRED", "authentication required to run an audit", "ResolutionService", "ResolveAndRoute", false, nil)
	}

	candidates, err := s.index.KnownCompanyNames(ctx)
	if err != nil {
		// Best-effort: smart matching just uses the original input.
		logrus.WithField("component", "ResolutionService").WithError(err).Warn("Proceeding without company name index")
		candidates = nil
	}

	finalName := trimmed
	if match, ok := s.matcher.FindBestMatch(trimmed, candidates); ok {
		finalName = match
	}

	logrus.WithFields(logrus.Fields{
		"component":  "ResolutionService",
		"raw_input":  trimmed,
		"final_name": finalName,
	}).Debug("Resolved search input")

	return &models.NavigationTarget{
		Page:    "Results",
		Company: finalName,
		URL:     "/Results?company=" + url.QueryEscape(finalName),
	}, nil
}

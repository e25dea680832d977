package services

import (
	"context"
	"testing"
	"time"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolutionFixture(names []string, listErr error) *ResolutionService {
	store := &fakeAuditStore{
		listFn: func(ctx context.Context, sort string) ([]models.BrandAudit, error) {
			if listErr != nil {
				return nil, listErr
			}
			audits := make([]models.BrandAudit, len(names))
			for i, name := range names {
				audits[i] = models.BrandAudit{CompanyName: name}
			}
			return audits, nil
		},
	}
	clock := shared.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	index := NewCompanyIndexService(store, clock, 5*time.Minute)
	return NewResolutionService(index, NewMatcherService())
}

func TestResolveAndRouteMatchesKnownCompany(t *testing.T) {
	resolution := newResolutionFixture([]string{"Nike", "McDonald's"}, nil)
	session := models.Session{IsAuthenticated: true}

	target, err := resolution.ResolveAndRoute(context.Background(), session, "Mcdonalds")
	require.NoError(t, err)
	assert.Equal(t, "Results", target.Page)
	assert.Equal(t, "McDonald's", target.Company)
	assert.Equal(t, "/Results?company=McDonald%27s", target.URL)
}

func TestResolveAndRouteUnknownCompanyKeepsInput(t *testing.T) {
	resolution := newResolutionFixture([]string{"Nike"}, nil)
	session := models.Session{IsAuthenticated: true}

	target, err := resolution.ResolveAndRoute(context.Background(), session, "  Patagonia  ")
	require.NoError(t, err)
	assert.Equal(t, "Patagonia", target.Company)
	assert.Equal(t, "/Results?company=Patagonia", target.URL)
}

func TestResolveAndRouteRejectsUnauthenticated(t *testing.T) {
	resolution := newResolutionFixture([]string{"Nike"}, nil)

	_, err := resolution.ResolveAndRoute(context.Background(), models.Session{}, "Nike")
	require.Error(t, err)
	assert.True(t, shared.IsUnauthenticated(err))
}

func TestResolveAndRouteAllowsLoadingSession(t *testing.T) {
	resolution := newResolutionFixture([]string{"Nike"}, nil)
	session := models.Session{IsLoading: true}

	target, err := resolution.ResolveAndRoute(context.Background(), session, "nike")
	require.NoError(t, err)
	assert.Equal(t, "Nike", target.Company)
}

func TestResolveAndRouteRejectsEmptyInput(t *testing.T) {
	resolution := newResolutionFixture(nil, nil)
	session := models.Session{IsAuthenticated: true}

	_, err := resolution.ResolveAndRoute(context.Background(), session, "   ")
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, shared.ErrorCategoryValidation, serviceErr.Category)
}

func TestResolveAndRouteDegradesWhenIndexFails(t *testing.T) {
	listErr := shared.NewServiceError(shared.ErrorCategoryRateLimit, "429", "too many requests", "fake", "List", true, nil)
	resolution := newResolutionFixture(nil, listErr)
	session := models.Session{IsAuthenticated: true}

	target, err := resolution.ResolveAndRoute(context.Background(), session, "Nike")
	require.NoError(t, err)
	assert.Equal(t, "Nike", target.Company)
}

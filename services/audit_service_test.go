package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditFixture(store *fakeAuditStore, ranker *fakeRanker, auth *fakeAuth) (*AuditService, *ProgressService, *shared.ManualClock) {
	clock := shared.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	index := NewCompanyIndexService(store, clock, 5*time.Minute)
	progress := NewProgressService(clock)
	return NewAuditService(store, ranker, auth, progress, index, clock), progress, clock
}

func rateLimitErr() error {
	return shared.NewServiceError(shared.ErrorCategoryRateLimit, "429", "429 too many requests", "fake", "Filter", true, nil)
}

func TestLoadExistingAuditsRetriesOnceOnRateLimit(t *testing.T) {
	calls := 0
	store := &fakeAuditStore{
		filterFn: func(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error) {
			calls++
			if calls == 1 {
				return nil, rateLimitErr()
			}
			return []models.BrandAudit{{ID: "audit-1", CompanyName: filters["company_name"]}}, nil
		},
	}
	service, _, clock := newAuditFixture(store, &fakeRanker{}, &fakeAuth{})

	audits, err := service.LoadExistingAudits(context.Background(), "Nike")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "Nike", audits[0].CompanyName)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{3 * time.Second}, clock.Sleeps())
}

func TestLoadExistingAuditsBusyAfterSecondRateLimit(t *testing.T) {
	store := &fakeAuditStore{
		filterFn: func(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error) {
			return nil, rateLimitErr()
		},
	}
	service, _, _ := newAuditFixture(store, &fakeRanker{}, &fakeAuth{})

	_, err := service.LoadExistingAudits(context.Background(), "Nike")
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, shared.UserFacingBusyMessage, serviceErr.Message)
	assert.Equal(t, shared.ErrorCategoryRateLimit, serviceErr.Category)
}

func TestLoadExistingAuditsNoRetryOnOtherErrors(t *testing.T) {
	calls := 0
	store := &fakeAuditStore{
		filterFn: func(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error) {
			calls++
			return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "REQUEST_FAILED", "connection reset", "fake", "Filter", true, nil)
		},
	}
	service, _, clock := newAuditFixture(store, &fakeRanker{}, &fakeAuth{})

	_, err := service.LoadExistingAudits(context.Background(), "Nike")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Sleeps())
}

func TestStartGenerationRequiresAuth(t *testing.T) {
	auth := &fakeAuth{
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return nil, shared.NewServiceError(shared.ErrorCategoryAuthentication, "401", "unauthorized", "fake", "Me", false, nil)
		},
	}
	service, _, _ := newAuditFixture(&fakeAuditStore{}, &fakeRanker{}, auth)

	_, err := service.StartGeneration(context.Background(), "", "Nike", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, shared.IsUnauthenticated(err))
}

func TestStartGenerationCompletesProgressRun(t *testing.T) {
	generated, _ := json.Marshal(models.BrandAudit{
		OverallScore:          74,
		AIVisibilityScore:     70,
		ContentReadinessScore: 78,
	})
	ranker := &fakeRanker{
		invokeFn: func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
			return generated, nil
		},
	}
	var created *models.BrandAudit
	store := &fakeAuditStore{
		createFn: func(ctx context.Context, audit *models.BrandAudit) (*models.BrandAudit, error) {
			copied := *audit
			copied.ID = "audit-9"
			created = &copied
			return &copied, nil
		},
	}
	service, progress, _ := newAuditFixture(store, ranker, &fakeAuth{})

	runID, err := service.StartGeneration(context.Background(), "token", "Nike", []string{"best shoes"}, nil, []string{"Adidas"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, ok := progress.Snapshot(runID)
		return ok && snapshot.State == ProgressComplete
	}, time.Second, 2*time.Millisecond)

	snapshot, _ := progress.Snapshot(runID)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, "audit-9", snapshot.AuditID)

	require.NotNil(t, created)
	assert.Equal(t, "Nike", created.CompanyName)
	assert.Equal(t, 74.0, created.OverallScore)
}

func TestStartGenerationFailureResetsProgressWithBusyMessage(t *testing.T) {
	ranker := &fakeRanker{
		invokeFn: func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
			return nil, rateLimitErr()
		},
	}
	service, progress, _ := newAuditFixture(&fakeAuditStore{}, ranker, &fakeAuth{})

	runID, err := service.StartGeneration(context.Background(), "token", "Nike", nil, nil, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, ok := progress.Snapshot(runID)
		return ok && snapshot.State == ProgressIdle
	}, time.Second, 2*time.Millisecond)

	snapshot, _ := progress.Snapshot(runID)
	assert.Zero(t, snapshot.Progress)
	assert.Equal(t, shared.UserFacingBusyMessage, snapshot.ErrorMessage)
}

func TestUpdateVisibilityPromptSplicesAndRecomputes(t *testing.T) {
	audit := &models.BrandAudit{
		ID:                    "audit-1",
		CompanyName:           "Nike",
		ContentReadinessScore: 80,
		AIVisibilityDetails: &models.AIVisibilityDetails{
			SearchPrompts: []models.SearchPrompt{
				{Prompt: "best running shoes", Score: 60},
				{Prompt: "top athletic brands", Score: 40},
			},
		},
	}
	store := &fakeAuditStore{
		getFn: func(ctx context.Context, id string) (*models.BrandAudit, error) {
			return audit, nil
		},
	}
	scored, _ := json.Marshal(models.SearchPrompt{Prompt: "best trail shoes", Score: 80})
	ranker := &fakeRanker{
		invokeFn: func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
			return scored, nil
		},
	}
	service, _, _ := newAuditFixture(store, ranker, &fakeAuth{})

	_, err := service.UpdateVisibilityPrompt(context.Background(), "audit-1", 1, "best trail shoes")
	require.NoError(t, err)

	assert.Equal(t, "best trail shoes", audit.AIVisibilityDetails.SearchPrompts[1].Prompt)
	assert.Equal(t, 70.0, audit.AIVisibilityScore)
	assert.Equal(t, 75.0, audit.OverallScore)

	require.Len(t, store.updates, 1)
	assert.Contains(t, store.updates[0], "ai_visibility_score")
}

func TestUpdateVisibilityPromptRejectsBadIndex(t *testing.T) {
	store := &fakeAuditStore{
		getFn: func(ctx context.Context, id string) (*models.BrandAudit, error) {
			return &models.BrandAudit{ID: id, AIVisibilityDetails: &models.AIVisibilityDetails{
				SearchPrompts: []models.SearchPrompt{{Prompt: "only one"}},
			}}, nil
		},
	}
	service, _, _ := newAuditFixture(store, &fakeRanker{}, &fakeAuth{})

	_, err := service.UpdateVisibilityPrompt(context.Background(), "audit-1", 3, "new prompt")
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, shared.ErrorCategoryValidation, serviceErr.Category)
}

func TestUpdateCompetitorScoresRescoresEveryPrompt(t *testing.T) {
	audit := &models.BrandAudit{
		ID:          "audit-1",
		CompanyName: "Nike",
		AIVisibilityDetails: &models.AIVisibilityDetails{
			CompetitorSearchPrompts: []models.CompetitorPrompt{
				{Prompt: "best shoes"},
				{Prompt: "best apparel"},
			},
		},
	}
	store := &fakeAuditStore{
		getFn: func(ctx context.Context, id string) (*models.BrandAudit, error) {
			return audit, nil
		},
	}
	scores, _ := json.Marshal(map[string]interface{}{
		"company_scores": map[string]float64{"Nike": 80, "Puma": 60},
	})
	ranker := &fakeRanker{
		invokeFn: func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
			return scores, nil
		},
	}
	service, _, _ := newAuditFixture(store, ranker, &fakeAuth{})

	_, err := service.UpdateCompetitorScores(context.Background(), "audit-1", []string{"Puma", " ", ""})
	require.NoError(t, err)

	calls := ranker.recordedCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"Nike", "Puma"}, calls[0].payload["companyNames"])
	assert.Equal(t, []string{"Puma"}, audit.Competitors)
	assert.Equal(t, 80.0, audit.AIVisibilityDetails.CompetitorSearchPrompts[0].CompanyScores["Nike"])
}

func TestUpdateCompetitorScoresRejectsTooMany(t *testing.T) {
	service, _, _ := newAuditFixture(&fakeAuditStore{}, &fakeRanker{}, &fakeAuth{})

	_, err := service.UpdateCompetitorScores(context.Background(), "audit-1", []string{"a", "b", "c", "d", "e", "f"})
	require.Error(t, err)
}

func TestIndustryOverviewGroupsLatestPerCompany(t *testing.T) {
	store := &fakeAuditStore{
		listFn: func(ctx context.Context, sort string) ([]models.BrandAudit, error) {
			return []models.BrandAudit{
				{ID: "a3", CompanyName: "Nike", OverallScore: 80},
				{ID: "a2", CompanyName: "nike", OverallScore: 40},
				{ID: "a4", CompanyName: "Adidas", OverallScore: 85},
				{ID: "a1", CompanyName: "Acme Tools", OverallScore: 60},
			}, nil
		},
	}
	industries, _ := json.Marshal(map[string]string{"Nike": "Apparel", "Adidas": "Apparel"})
	ranker := &fakeRanker{
		invokeFn: func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
			return industries, nil
		},
	}
	service, _, _ := newAuditFixture(store, ranker, &fakeAuth{})

	groups, err := service.IndustryOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Apparel", groups[0].Industry)
	require.Len(t, groups[0].Companies, 2)
	assert.Equal(t, "Adidas", groups[0].Companies[0].CompanyName)
	assert.Equal(t, "a3", groups[0].Companies[1].AuditID)

	// Unclassified companies land in the fallback bucket.
	assert.Equal(t, "General", groups[1].Industry)
	assert.Equal(t, "Acme Tools", groups[1].Companies[0].CompanyName)
}

func TestIndustryOverviewFallsBackWhenClassificationFails(t *testing.T) {
	store := &fakeAuditStore{
		listFn: func(ctx context.Context, sort string) ([]models.BrandAudit, error) {
			return []models.BrandAudit{{ID: "a1", CompanyName: "Nike", OverallScore: 80}}, nil
		},
	}
	ranker := &fakeRanker{
		invokeFn: func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
			return nil, rateLimitErr()
		},
	}
	service, _, _ := newAuditFixture(store, ranker, &fakeAuth{})

	groups, err := service.IndustryOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "General", groups[0].Industry)
}

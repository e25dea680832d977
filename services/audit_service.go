package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/platform"
	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	// auditRetryDelay is how long to back off before the single automatic
	// retry after a rate-limited audit load.
	auditRetryDelay = 3 * time.Second

	// maxCompetitors bounds the competitor comparison set.
	maxCompetitors = 5

	fallbackIndustry = "General"
)

// PromptSet is the generated starting prompts for a new audit.
type PromptSet struct {
	UnbrandedPrompts  []string `json:"unbranded_prompts"`
	CompetitorPrompts []string `json:"competitor_prompts"`
}

// IndustrySummary is one company's latest audit, flattened for the industry
// overview.
type IndustrySummary struct {
	AuditID      string    `json:"audit_id"`
	CompanyName  string    `json:"company_name"`
	OverallScore float64   `json:"overall_score"`
	LogoURL      string    `json:"logo_url,omitempty"`
	AuditDate    time.Time `json:"audit_date"`
}

// IndustryGroup is one industry bucket of the overview, companies ordered by
// overall score descending.
type IndustryGroup struct {
	Industry  string            `json:"industry"`
	Companies []IndustrySummary `json:"companies"`
}

// AuditService owns the audit lifecycle: loading stored audits for a company,
// kicking off generation of a new one with simulated progress, and the
// post-generation edits (prompt swap, competitor refresh).
type AuditService struct {
	store    platform.AuditStore
	ranker   platform.Ranker
	auth     platform.AuthProvider
	progress *ProgressService
	index    *CompanyIndexService
	clock    shared.Clock
	metrics  *shared.ServiceMetrics
}

// NewAuditService creates a new audit service.
func NewAuditService(store platform.AuditStore, ranker platform.Ranker, auth platform.AuthProvider, progress *ProgressService, index *CompanyIndexService, clock shared.Clock) *AuditService {
	return &AuditService{
		store:    store,
		ranker:   ranker,
		auth:     auth,
		progress: progress,
		index:    index,
		clock:    clock,
		metrics:  shared.NewServiceMetrics("Audit_Service"),
	}
}

// Metrics exposes the service counters.
func (s *AuditService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// LoadExistingAudits returns the stored audits for a company, newest first.
// A rate-limited fetch is retried once after a fixed delay; if the retry is
// rate limited too the caller gets the user-facing busy error instead of the
// raw platform message.
func (s *AuditService) LoadExistingAudits(ctx context.Context, companyName string) ([]models.BrandAudit, error) {
	started := s.clock.Now()
	audits, err := s.store.Filter(ctx, map[string]string{"company_name": companyName}, "-created_date")
	if err != nil && shared.IsRateLimited(err) {
		logrus.WithFields(logrus.Fields{
			"component": "AuditService",
			"company":   companyName,
		}).Warn("Rate limited loading audits, retrying once")

		if sleepErr := s.clock.Sleep(ctx, auditRetryDelay); sleepErr != nil {
			return nil, sleepErr
		}
		audits, err = s.store.Filter(ctx, map[string]string{"company_name": companyName}, "-created_date")
	}
	s.metrics.RecordRequest(err == nil, s.clock.Now().Sub(started))

	if err != nil {
		if shared.IsRateLimited(err) {
			return nil, shared.NewServiceError(shared.ErrorCategoryRateLimit, "429", shared.UserFacingBusyMessage, "AuditService", "LoadExistingAudits", true, err)
		}
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "LOAD_FAILED", "AuditService", "LoadExistingAudits", true)
	}

	return audits, nil
}

// GetAudit returns one stored audit by ID.
func (s *AuditService) GetAudit(ctx context.Context, auditID string) (*models.BrandAudit, error) {
	return s.store.Get(ctx, auditID)
}

// StartGeneration verifies the session, starts a progress run and launches
// the full-audit generation in the background. The returned run ID is what
// the caller polls. Only the external call resolving moves the run to
// complete; a failure resets it to idle with a user-facing message.
func (s *AuditService) StartGeneration(ctx context.Context, token, companyName string, unbrandedPrompts, competitorPrompts, competitors []string) (string, error) {
	if strings.TrimSpace(companyName) == "" {
		return "", shared.NewServiceError(shared.ErrorCategoryValidation, "EMPTY_COMPANY", "company name is required", "AuditService", "StartGeneration", false, nil)
	}

	if _, err := s.auth.Me(ctx, token); err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryAuthentication, "LOGIN_REQUIRED", "authentication required to run an audit", "AuditService", "StartGeneration", false, err)
	}

	runID := s.progress.Begin(companyName)

	// Generation keeps running after the HTTP request that started it ends.
	go s.generate(context.Background(), runID, companyName, unbrandedPrompts, competitorPrompts, competitors)

	return runID, nil
}

func (s *AuditService) generate(ctx context.Context, runID, companyName string, unbrandedPrompts, competitorPrompts, competitors []string) {
	started := s.clock.Now()
	data, err := s.ranker.Invoke(ctx, platform.TaskGenerateFullAudit, map[string]interface{}{
		"companyName":       companyName,
		"unbrandedPrompts":  unbrandedPrompts,
		"competitorPrompts": competitorPrompts,
		"competitors":       competitors,
	})
	if err != nil {
		s.metrics.RecordRequest(false, s.clock.Now().Sub(started))
		s.failGeneration(runID, companyName, err)
		return
	}

	var audit models.BrandAudit
	if err := json.Unmarshal(data, &audit); err != nil {
		s.metrics.RecordRequest(false, s.clock.Now().Sub(started))
		s.failGeneration(runID, companyName, shared.WrapError(err, shared.ErrorCategoryProcessing, "DECODE_FAILED", "AuditService", "generate", false))
		return
	}

	audit.CompanyName = companyName
	audit.AuditDate = s.clock.Now()

	created, err := s.store.Create(ctx, &audit)
	if err != nil {
		s.metrics.RecordRequest(false, s.clock.Now().Sub(started))
		s.failGeneration(runID, companyName, err)
		return
	}
	s.metrics.RecordRequest(true, s.clock.Now().Sub(started))

	// A new audit may introduce a company name the matcher has not seen.
	s.index.Invalidate()

	logrus.WithFields(logrus.Fields{
		"component": "AuditService",
		"company":   companyName,
		"audit_id":  created.ID,
	}).Info("Audit generated")

	s.progress.Complete(runID, created.ID)
}

func (s *AuditService) failGeneration(runID, companyName string, err error) {
	logrus.WithFields(logrus.Fields{
		"component": "AuditService",
		"company":   companyName,
		"run_id":    runID,
	}).WithError(err).Error("Audit generation failed")

	message := "Audit generation failed. Please try again."
	switch {
	case shared.IsRateLimited(err):
		message = shared.UserFacingBusyMessage
	case shared.IsUnauthenticated(err):
		message = "Your session has expired. Please log in again."
	}

	s.progress.Fail(runID, message)
}

// GeneratePrompts asks the ranking function for starting prompts for a
// company that has no stored audit yet.
func (s *AuditService) GeneratePrompts(ctx context.Context, companyName string) (*PromptSet, error) {
	data, err := s.ranker.Invoke(ctx, platform.TaskGeneratePrompts, map[string]interface{}{
		"companyName": companyName,
	})
	if err != nil {
		return nil, err
	}

	var prompts PromptSet
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "DECODE_FAILED", "AuditService", "GeneratePrompts", false)
	}
	return &prompts, nil
}

// UpdateVisibilityPrompt replaces one unbranded prompt on a stored audit with
// a freshly scored one and recomputes the dependent scores on the record.
func (s *AuditService) UpdateVisibilityPrompt(ctx context.Context, auditID string, promptIndex int, newPromptText string) (*models.BrandAudit, error) {
	if strings.TrimSpace(newPromptText) == "" {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "EMPTY_PROMPT", "prompt text is required", "AuditService", "UpdateVisibilityPrompt", false, nil)
	}

	audit, err := s.store.Get(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit.AIVisibilityDetails == nil || promptIndex < 0 || promptIndex >= len(audit.AIVisibilityDetails.SearchPrompts) {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "PROMPT_INDEX_OUT_OF_RANGE", "no search prompt at that position", "AuditService", "UpdateVisibilityPrompt", false, nil)
	}

	data, err := s.ranker.Invoke(ctx, platform.TaskUpdateAIVisibilityPrompt, map[string]interface{}{
		"newPromptText": newPromptText,
		"companyName":   audit.CompanyName,
	})
	if err != nil {
		return nil, err
	}

	var scored models.SearchPrompt
	if err := json.Unmarshal(data, &scored); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "DECODE_FAILED", "AuditService", "UpdateVisibilityPrompt", false)
	}
	if scored.Prompt == "" {
		scored.Prompt = newPromptText
	}

	audit.AIVisibilityDetails.SearchPrompts[promptIndex] = scored
	audit.AIVisibilityScore = meanPromptScore(audit.AIVisibilityDetails.SearchPrompts)
	audit.OverallScore = (audit.AIVisibilityScore + audit.ContentReadinessScore) / 2

	return s.store.Update(ctx, auditID, map[string]interface{}{
		"ai_visibility_details": audit.AIVisibilityDetails,
		"ai_visibility_score":   audit.AIVisibilityScore,
		"overall_score":         audit.OverallScore,
	})
}

// UpdateCompetitorScores replaces the competitor set on a stored audit and
// re-scores every competitor prompt against the new set.
func (s *AuditService) UpdateCompetitorScores(ctx context.Context, auditID string, competitors []string) (*models.BrandAudit, error) {
	cleaned := make([]string, 0, len(competitors))
	for _, name := range competitors {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "EMPTY_COMPETITORS", "at least one competitor is required", "AuditService", "UpdateCompetitorScores", false, nil)
	}
	if len(cleaned) > maxCompetitors {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "TOO_MANY_COMPETITORS", "at most five competitors are supported", "AuditService", "UpdateCompetitorScores", false, nil)
	}

	audit, err := s.store.Get(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit.AIVisibilityDetails == nil || len(audit.AIVisibilityDetails.CompetitorSearchPrompts) == 0 {
		return nil, shared.NewServiceError(shared.ErrorCategoryNotFound, "NO_COMPETITOR_PROMPTS", "this audit has no competitor prompts to re-score", "AuditService", "UpdateCompetitorScores", false, nil)
	}

	// The audited company is always part of the comparison.
	names := append([]string{audit.CompanyName}, cleaned...)

	for i, prompt := range audit.AIVisibilityDetails.CompetitorSearchPrompts {
		data, err := s.ranker.Invoke(ctx, platform.TaskUpdateCompetitorScores, map[string]interface{}{
			"promptText":   prompt.Prompt,
			"companyNames": names,
		})
		if err != nil {
			return nil, err
		}

		var payload struct {
			CompanyScores map[string]float64 `json:"company_scores"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "DECODE_FAILED", "AuditService", "UpdateCompetitorScores", false)
		}
		audit.AIVisibilityDetails.CompetitorSearchPrompts[i].CompanyScores = payload.CompanyScores
	}

	audit.Competitors = cleaned

	return s.store.Update(ctx, auditID, map[string]interface{}{
		"competitors":           audit.Competitors,
		"ai_visibility_details": audit.AIVisibilityDetails,
	})
}

// IndustryOverview groups the latest audit of every company by industry. The
// industry labels come from a single batched call to the ranking function;
// companies it cannot classify, or the whole set when the call fails, fall
// back to the General bucket.
func (s *AuditService) IndustryOverview(ctx context.Context) ([]IndustryGroup, error) {
	audits, err := s.store.List(ctx, "-created_date")
	if err != nil {
		return nil, err
	}

	// Newest first, so the first record per name is the latest audit.
	seen := make(map[string]struct{}, len(audits))
	latest := make([]models.BrandAudit, 0, len(audits))
	for _, audit := range audits {
		key := strings.ToLower(strings.TrimSpace(audit.CompanyName))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		latest = append(latest, audit)
	}

	if len(latest) == 0 {
		return []IndustryGroup{}, nil
	}

	names := make([]string, len(latest))
	for i, audit := range latest {
		names[i] = audit.CompanyName
	}

	industries := s.lookupIndustries(ctx, names)

	buckets := make(map[string][]IndustrySummary)
	for _, audit := range latest {
		industry := industries[audit.CompanyName]
		if industry == "" {
			industry = fallbackIndustry
		}
		buckets[industry] = append(buckets[industry], IndustrySummary{
			AuditID:      audit.ID,
			CompanyName:  audit.CompanyName,
			OverallScore: audit.OverallScore,
			LogoURL:      audit.CompanyLogoURL,
			AuditDate:    audit.AuditDate,
		})
	}

	groups := make([]IndustryGroup, 0, len(buckets))
	for industry, companies := range buckets {
		sort.SliceStable(companies, func(i, j int) bool {
			return companies[i].OverallScore > companies[j].OverallScore
		})
		groups = append(groups, IndustryGroup{Industry: industry, Companies: companies})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Industry < groups[j].Industry
	})

	return groups, nil
}

func (s *AuditService) lookupIndustries(ctx context.Context, names []string) map[string]string {
	data, err := s.ranker.Invoke(ctx, platform.TaskGetCompanyIndustries, map[string]interface{}{
		"companyNames": names,
	})
	if err != nil {
		logrus.WithField("component", "AuditService").WithError(err).Warn("Industry classification unavailable, using fallback")
		return map[string]string{}
	}

	var industries map[string]string
	if err := json.Unmarshal(data, &industries); err != nil {
		logrus.WithField("component", "AuditService").WithError(err).Warn("Industry classification unreadable, using fallback")
		return map[string]string{}
	}
	return industries
}

func meanPromptScore(prompts []models.SearchPrompt) float64 {
	if len(prompts) == 0 {
		return 0
	}
	var total float64
	for _, prompt := range prompts {
		total += prompt.Score
	}
	return total / float64(len(prompts))
}

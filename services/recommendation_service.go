package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/platform"
	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	// recommendationCallGap is the minimum spacing between consecutive
	// recommendation calls. The generation function is rate limited; this
	// loop never exceeds one call per gap.
	recommendationCallGap = 2 * time.Second

	// FailurePlaceholder is recorded for a sub-metric whose recommendation
	// could not be generated. It is never persisted, so a later retry can
	// attempt the sub-metric again.
	FailurePlaceholder = "Unable to generate recommendation."
)

// SubMetricDef names one of the ten content-readiness sub-metrics. Name is
// the display form sent to the generation function; Category/Key address the
// sub-metric inside the detail tree.
type SubMetricDef struct {
	Name     string
	Category string
	Key      string
}

// SubMetricOrder is the fixed processing order of the backfill loop. It is
// declaration order, not data order.
var SubMetricOrder = []SubMetricDef{
	{Name: "Content Liquidity", Category: "availability", Key: "content_liquidity"},
	{Name: "Search Capital", Category: "availability", Key: "search_capital"},
	{Name: "Algorithmic Anchors", Category: "availability", Key: "algorithmic_anchors"},
	{Name: "Authoritative Content", Category: "depth", Key: "authoritative_content"},
	{Name: "Technical Content", Category: "depth", Key: "technical_content"},
	{Name: "Statistics with Citations", Category: "depth", Key: "statistics_with_citations"},
	{Name: "Quotation Addition", Category: "depth", Key: "quotation_addition"},
	{Name: "Relevant Content Updates", Category: "depth", Key: "relevant_content_updates"},
	{Name: "Easy to Understand Content", Category: "clarity", Key: "easy_to_understand_content"},
	{Name: "Fluency Optimization", Category: "clarity", Key: "fluency_optimization"},
}

// RecommendationStatus is the streaming state of one sub-metric during a
// backfill run.
type RecommendationStatus struct {
	SubMetric string `json:"sub_metric"`
	Text      string `json:"text,omitempty"`
	Pending   bool   `json:"pending"`
	Failed    bool   `json:"failed"`
}

// BackfillSnapshot is the polling view of a backfill run for one audit.
type BackfillSnapshot struct {
	AuditID         string                          `json:"audit_id"`
	InProgress      bool                            `json:"in_progress"`
	Recommendations map[string]RecommendationStatus `json:"recommendations"`
}

// BackfillResult summarizes one completed backfill invocation.
type BackfillResult struct {
	Generated map[string]string `json:"generated"`
	Failed    []string          `json:"failed"`
	Persisted int               `json:"persisted"`
}

// RecommendationService fills in missing sub-metric recommendations for an
// audit, one external call at a time with an enforced gap, streaming each
// result as it lands and persisting only the successes.
type RecommendationService struct {
	store   platform.AuditStore
	ranker  platform.Ranker
	clock   shared.Clock
	metrics *shared.ServiceMetrics

	mutex sync.Mutex
	runs  map[string]*backfillRun
}

// NewRecommendationService creates a new backfill service.
func NewRecommendationService(store platform.AuditStore, ranker platform.Ranker, clock shared.Clock) *RecommendationService {
	return &RecommendationService{
		store:   store,
		ranker:  ranker,
		clock:   clock,
		metrics: shared.NewServiceMetrics("Recommendation_Service"),
		runs:    make(map[string]*backfillRun),
	}
}

// Metrics exposes the service counters.
func (s *RecommendationService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

type backfillRun struct {
	mutex      sync.Mutex
	inProgress bool
	statuses   map[string]RecommendationStatus
}

// StartBackfill loads the audit and runs the backfill in the background. When
// retryFor names a sub-metric, only that one is regenerated regardless of its
// cache state; otherwise every sub-metric missing a stored recommendation is
// processed. Returns a not-found error when the audit or its content detail
// tree is missing.
func (s *RecommendationService) StartBackfill(ctx context.Context, auditID, retryFor string) error {
	audit, err := s.store.Get(ctx, auditID)
	if err != nil {
		return err
	}
	if audit.ContentReadinessDetails == nil {
		return shared.NewServiceError(shared.ErrorCategoryNotFound, "NO_READINESS_DATA", "Content readiness data is not available for this audit.", "RecommendationService", "StartBackfill", false, nil)
	}

	run := s.run(auditID)
	needed := neededSubMetrics(audit.ContentReadinessDetails, retryFor)

	run.mutex.Lock()
	if run.inProgress {
		run.mutex.Unlock()
		return shared.NewServiceError(shared.ErrorCategoryValidation, "BACKFILL_RUNNING", "a recommendation backfill is already running for this audit", "RecommendationService", "StartBackfill", false, nil)
	}
	run.inProgress = true
	for _, def := range SubMetricOrder {
		if metric := audit.ContentReadinessDetails.SubMetricByKey(def.Category, def.Key); metric != nil && metric.StoredRecommendation != "" {
			run.statuses[def.Name] = RecommendationStatus{SubMetric: def.Name, Text: metric.StoredRecommendation}
		}
	}
	for _, def := range needed {
		run.statuses[def.Name] = RecommendationStatus{SubMetric: def.Name, Pending: true}
	}
	run.mutex.Unlock()

	// The loop outlives the HTTP request that started it.
	go func() {
		defer func() {
			run.mutex.Lock()
			run.inProgress = false
			run.mutex.Unlock()
		}()

		_, err := s.Backfill(context.Background(), audit, retryFor, func(status RecommendationStatus) {
			run.mutex.Lock()
			run.statuses[status.SubMetric] = status
			run.mutex.Unlock()
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "RecommendationService",
				"audit_id":  auditID,
			}).WithError(err).Error("Recommendation backfill failed")
		}
	}()

	return nil
}

// Status returns the streaming state of the backfill for an audit.
func (s *RecommendationService) Status(auditID string) BackfillSnapshot {
	run := s.run(auditID)

	run.mutex.Lock()
	defer run.mutex.Unlock()

	statuses := make(map[string]RecommendationStatus, len(run.statuses))
	for name, status := range run.statuses {
		statuses[name] = status
	}
	return BackfillSnapshot{
		AuditID:         auditID,
		InProgress:      run.inProgress,
		Recommendations: statuses,
	}
}

// Backfill processes the needed sub-metrics in declaration order. Every call
// after the first waits out the rate-limit gap first. Successes stream
// through onUpdate and are persisted together in a single update at the end;
// failures stream a placeholder and stay un-cached.
func (s *RecommendationService) Backfill(ctx context.Context, audit *models.BrandAudit, retryFor string, onUpdate func(RecommendationStatus)) (*BackfillResult, error) {
	if onUpdate == nil {
		onUpdate = func(RecommendationStatus) {}
	}

	details := audit.ContentReadinessDetails
	if details == nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNotFound, "NO_READINESS_DATA", "Content readiness data is not available for this audit.", "RecommendationService", "Backfill", false, nil)
	}

	needed := neededSubMetrics(details, retryFor)
	result := &BackfillResult{Generated: make(map[string]string)}
	if len(needed) == 0 {
		return result, nil
	}

	limiter := shared.NewRequestRateLimiter(recommendationCallGap, s.clock)

	for _, def := range needed {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		started := s.clock.Now()
		text, err := s.generateRecommendation(ctx, audit.CompanyName, def.Name)
		s.metrics.RecordRequest(err == nil, s.clock.Now().Sub(started))

		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component":  "RecommendationService",
				"company":    audit.CompanyName,
				"sub_metric": def.Name,
			}).WithError(err).Error("Failed to fetch recommendation")

			result.Failed = append(result.Failed, def.Name)
			onUpdate(RecommendationStatus{SubMetric: def.Name, Text: FailurePlaceholder, Failed: true})
			continue
		}

		result.Generated[def.Name] = text
		onUpdate(RecommendationStatus{SubMetric: def.Name, Text: text})
	}

	if len(result.Generated) == 0 {
		return result, nil
	}

	for _, def := range needed {
		text, ok := result.Generated[def.Name]
		if !ok {
			continue
		}
		if metric := details.SubMetricByKey(def.Category, def.Key); metric != nil {
			metric.StoredRecommendation = text
			result.Persisted++
		}
	}

	if _, err := s.store.Update(ctx, audit.ID, map[string]interface{}{"content_readiness_details": details}); err != nil {
		// The recommendations were still shown; only the cache write failed.
		logrus.WithFields(logrus.Fields{
			"component": "RecommendationService",
			"audit_id":  audit.ID,
		}).WithError(err).Error("Failed to store recommendations")
		return result, err
	}

	return result, nil
}

func (s *RecommendationService) generateRecommendation(ctx context.Context, companyName, subMetricName string) (string, error) {
	data, err := s.ranker.Invoke(ctx, platform.TaskGenerateSubRecommendation, map[string]interface{}{
		"companyName":     companyName,
		"subcategoryName": subMetricName,
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		Recommendation string `json:"recommendation"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", shared.WrapError(err, shared.ErrorCategoryProcessing, "DECODE_FAILED", "RecommendationService", "generateRecommendation", false)
	}
	return payload.Recommendation, nil
}

func (s *RecommendationService) run(auditID string) *backfillRun {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	run, ok := s.runs[auditID]
	if !ok {
		run = &backfillRun{statuses: make(map[string]RecommendationStatus)}
		s.runs[auditID] = run
	}
	return run
}

// neededSubMetrics partitions the declared order into sub-metrics to process:
// the one named by retryFor (regardless of cache state), or every present
// sub-metric without a stored recommendation. Sub-metrics absent from the
// detail tree are skipped.
func neededSubMetrics(details *models.ContentReadinessDetails, retryFor string) []SubMetricDef {
	var needed []SubMetricDef
	for _, def := range SubMetricOrder {
		metric := details.SubMetricByKey(def.Category, def.Key)
		if metric == nil {
			continue
		}
		if retryFor != "" {
			if def.Name == retryFor {
				needed = append(needed, def)
			}
			continue
		}
		if metric.StoredRecommendation == "" {
			needed = append(needed, def)
		}
	}
	return needed
}

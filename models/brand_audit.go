package models

import (
	"time"
)

// BrandAudit is one completed audit run for a company. Records are created by
// the server-side brandRanker function and stored in the hosted record store;
// this backend mutates them only to attach sub-metric recommendations or
// refreshed competitor comparisons. Records are never deleted.
type BrandAudit struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	CreatedDate time.Time `json:"created_date"`
	AuditDate   time.Time `json:"audit_date"`

	OverallScore          float64 `json:"overall_score"`
	AIVisibilityScore     float64 `json:"ai_visibility_score"`
	ContentReadinessScore float64 `json:"content_readiness_score"`

	CompanyLogoURL string   `json:"company_logo_url,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Competitors    []string `json:"competitors,omitempty"`

	AIVisibilityDetails     *AIVisibilityDetails     `json:"ai_visibility_details,omitempty"`
	ContentReadinessDetails *ContentReadinessDetails `json:"content_readiness_details,omitempty"`
}

// AIVisibilityDetails holds the per-prompt evidence behind the AI visibility
// score.
type AIVisibilityDetails struct {
	SearchPrompts           []SearchPrompt     `json:"search_prompts,omitempty"`
	CompetitorSearchPrompts []CompetitorPrompt `json:"competitor_search_prompts,omitempty"`
}

// SearchPrompt is one unbranded prompt run against the answer engine.
type SearchPrompt struct {
	Prompt       string      `json:"prompt"`
	Score        float64     `json:"score"`
	Note         string      `json:"note,omitempty"`
	Source       string      `json:"source,omitempty"`
	SourceURL    string      `json:"source_url,omitempty"`
	AIResponse   string      `json:"ai_response,omitempty"`
	FullResponse string      `json:"full_response,omitempty"`
	Top10Ranking []RankEntry `json:"top_10_ranking,omitempty"`
}

// RankEntry is one row of a prompt's top-10 brand ranking.
type RankEntry struct {
	Rank    int    `json:"rank"`
	Company string `json:"company"`
}

// CompetitorPrompt is one prompt scored across the audited company and its
// competitors.
type CompetitorPrompt struct {
	Prompt        string             `json:"prompt"`
	CompanyScores map[string]float64 `json:"company_scores,omitempty"`
}

// ContentReadinessDetails groups the ten content sub-metrics under their
// availability, depth and clarity dimensions.
type ContentReadinessDetails struct {
	Availability       *AvailabilityDetails      `json:"availability,omitempty"`
	Depth              *DepthDetails             `json:"depth,omitempty"`
	Clarity            *ClarityDetails           `json:"clarity,omitempty"`
	KeyFindings        []string                  `json:"key_findings,omitempty"`
	KeyRecommendations []string                  `json:"key_recommendations,omitempty"`
	CompetitorAnalysis []CompetitorContentScores `json:"competitor_analysis,omitempty"`
}

type AvailabilityDetails struct {
	Summary            string     `json:"summary,omitempty"`
	ContentLiquidity   *SubMetric `json:"content_liquidity,omitempty"`
	SearchCapital      *SubMetric `json:"search_capital,omitempty"`
	AlgorithmicAnchors *SubMetric `json:"algorithmic_anchors,omitempty"`
}

type DepthDetails struct {
	Summary                 string     `json:"summary,omitempty"`
	AuthoritativeContent    *SubMetric `json:"authoritative_content,omitempty"`
	TechnicalContent        *SubMetric `json:"technical_content,omitempty"`
	StatisticsWithCitations *SubMetric `json:"statistics_with_citations,omitempty"`
	QuotationAddition       *SubMetric `json:"quotation_addition,omitempty"`
	RelevantContentUpdates  *SubMetric `json:"relevant_content_updates,omitempty"`
}

type ClarityDetails struct {
	Summary                 string     `json:"summary,omitempty"`
	EasyToUnderstandContent *SubMetric `json:"easy_to_understand_content,omitempty"`
	FluencyOptimization     *SubMetric `json:"fluency_optimization,omitempty"`
}

// SubMetric is one leaf content measurement. StoredRecommendation is cached
// on the record once generated; it is only regenerated on an explicit retry
// after a failure.
type SubMetric struct {
	Score                float64 `json:"score"`
	Summary              string  `json:"summary,omitempty"`
	StoredRecommendation string  `json:"stored_recommendation,omitempty"`
}

// CompetitorContentScores maps a competitor to its per-sub-metric scores,
// keyed by the sub-metric's snake_case key.
type CompetitorContentScores struct {
	CompanyName string             `json:"company_name"`
	Scores      map[string]float64 `json:"scores,omitempty"`
}

// SubMetricByKey returns the sub-metric for a category/key pair, or nil when
// the detail tree does not carry it.
func (d *ContentReadinessDetails) SubMetricByKey(category, key string) *SubMetric {
	if d == nil {
		return nil
	}

	switch category {
	case "availability":
		if d.Availability == nil {
			return nil
		}
		switch key {
		case "content_liquidity":
			return d.Availability.ContentLiquidity
		case "search_capital":
			return d.Availability.SearchCapital
		case "algorithmic_anchors":
			return d.Availability.AlgorithmicAnchors
		}
	case "depth":
		if d.Depth == nil {
			return nil
		}
		switch key {
		case "authoritative_content":
			return d.Depth.AuthoritativeContent
		case "technical_content":
			return d.Depth.TechnicalContent
		case "statistics_with_citations":
			return d.Depth.StatisticsWithCitations
		case "quotation_addition":
			return d.Depth.QuotationAddition
		case "relevant_content_updates":
			return d.Depth.RelevantContentUpdates
		}
	case "clarity":
		if d.Clarity == nil {
			return nil
		}
		switch key {
		case "easy_to_understand_content":
			return d.Clarity.EasyToUnderstandContent
		case "fluency_optimization":
			return d.Clarity.FluencyOptimization
		}
	}

	return nil
}

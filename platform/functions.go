package platform

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

// Task tags understood by the brandRanker function.
const (
	TaskGenerateFullAudit         = "generate_full_audit"
	TaskGeneratePrompts           = "generate_prompts"
	TaskUpdateAIVisibilityPrompt  = "update_ai_visibility_prompt"
	TaskUpdateCompetitorScores    = "update_competitor_scores"
	TaskGenerateSubRecommendation = "generate_subcategory_recommendation"
	TaskGetCompanyIndustries      = "get_company_industries"
)

// BrandRanker implements Ranker against the platform function endpoint. The
// function answers a {data, error} envelope; error carries a message that may
// embed an HTTP-status-like code ("429", "401") which callers pattern-match.
type BrandRanker struct {
	client *Client
}

func NewBrandRanker(client *Client) *BrandRanker {
	return &BrandRanker{client: client}
}

type rankerRequest struct {
	Task    string                 `json:"task"`
	Payload map[string]interface{} `json:"payload"`
}

type rankerEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *rankerError    `json:"error"`
}

type rankerError struct {
	Error string `json:"error"`
}

func (r *BrandRanker) Invoke(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
	logrus.WithFields(logrus.Fields{
		"component": "BrandRanker",
		"task":      task,
	}).Debug("Invoking brandRanker function")

	var envelope rankerEnvelope
	body := rankerRequest{Task: task, Payload: payload}
	if err := r.client.do(ctx, http.MethodPost, "/functions/brandRanker", nil, body, "", &envelope); err != nil {
		return nil, err
	}

	if envelope.Error != nil && envelope.Error.Error != "" {
		return nil, classifyFunctionError(envelope.Error.Error, task)
	}

	return envelope.Data, nil
}

// classifyFunctionError maps the function's embedded message codes onto the
// shared taxonomy so callers can apply their retry policies.
func classifyFunctionError(message, task string) error {
	operation := "brandRanker:" + task

	switch {
	case shared.IsRateLimited(errString(message)):
		return shared.NewServiceError(shared.ErrorCategoryRateLimit, "429", message, "BrandRanker", operation, true, nil)
	case shared.IsUnauthenticated(errString(message)):
		return shared.NewServiceError(shared.ErrorCategoryAuthentication, "401", message, "BrandRanker", operation, false, nil)
	default:
		return shared.NewServiceError(shared.ErrorCategoryProcessing, "FUNCTION_ERROR", message, "BrandRanker", operation, false, nil)
	}
}

type errString string

func (e errString) Error() string {
	return string(e)
}

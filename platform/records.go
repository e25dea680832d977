package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/shared"
)

// AuditRecords implements AuditStore against the platform entity API.
type AuditRecords struct {
	client *Client
}

func NewAuditRecords(client *Client) *AuditRecords {
	return &AuditRecords{client: client}
}

func (r *AuditRecords) List(ctx context.Context, sort string) ([]models.BrandAudit, error) {
	query := url.Values{}
	if sort != "" {
		query.Set("sort", sort)
	}

	var audits []models.BrandAudit
	if err := r.client.do(ctx, http.MethodGet, "/entities/BrandAudit", query, nil, "", &audits); err != nil {
		return nil, err
	}
	return audits, nil
}

func (r *AuditRecords) Filter(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error) {
	query := url.Values{}
	for field, value := range filters {
		query.Set(field, value)
	}
	if sort != "" {
		query.Set("sort", sort)
	}

	var audits []models.BrandAudit
	if err := r.client.do(ctx, http.MethodGet, "/entities/BrandAudit", query, nil, "", &audits); err != nil {
		return nil, err
	}
	return audits, nil
}

func (r *AuditRecords) Get(ctx context.Context, id string) (*models.BrandAudit, error) {
	var audit models.BrandAudit
	if err := r.client.do(ctx, http.MethodGet, "/entities/BrandAudit/"+url.PathEscape(id), nil, nil, "", &audit); err != nil {
		return nil, err
	}
	return &audit, nil
}

func (r *AuditRecords) Create(ctx context.Context, audit *models.BrandAudit) (*models.BrandAudit, error) {
	var saved models.BrandAudit
	if err := r.client.do(ctx, http.MethodPost, "/entities/BrandAudit", nil, audit, "", &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Update applies a partial-field update. The store has no conditional-update
// support; concurrent writers are last-writer-wins.
func (r *AuditRecords) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.BrandAudit, error) {
	var saved models.BrandAudit
	if err := r.client.do(ctx, http.MethodPut, "/entities/BrandAudit/"+url.PathEscape(id), nil, fields, "", &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// CompanyRecords implements CompanyStore against the platform entity API.
type CompanyRecords struct {
	client *Client
}

func NewCompanyRecords(client *Client) *CompanyRecords {
	return &CompanyRecords{client: client}
}

func (r *CompanyRecords) List(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := r.client.do(ctx, http.MethodGet, "/entities/Company", nil, nil, "", &companies); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "COMPANY_LIST_FAILED", "CompanyRecords", "List", true)
	}
	return companies, nil
}

package platform

import (
	"context"
	"encoding/json"

	"github.com/brandrank/audit-backend/models"
)

// AuditStore is the BrandAudit record store contract. sort follows the
// platform convention: field name, "-" prefix for descending.
type AuditStore interface {
	List(ctx context.Context, sort string) ([]models.BrandAudit, error)
	Filter(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error)
	Get(ctx context.Context, id string) (*models.BrandAudit, error)
	Create(ctx context.Context, audit *models.BrandAudit) (*models.BrandAudit, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.BrandAudit, error)
}

// CompanyStore lists the display-only Company records (name to logo URL).
type CompanyStore interface {
	List(ctx context.Context) ([]models.Company, error)
}

// Ranker invokes the server-side LLM-backed brandRanker function.
type Ranker interface {
	Invoke(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error)
}

// AuthProvider is the hosted authentication contract.
type AuthProvider interface {
	Me(ctx context.Context, token string) (*models.User, error)
	LoginRedirectURL(returnURL string) string
	Logout(ctx context.Context, token string) error
}

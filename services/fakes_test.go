package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/shared"
)

type fakeAuditStore struct {
	mu        sync.Mutex
	listCalls int

	listFn   func(ctx context.Context, sort string) ([]models.BrandAudit, error)
	filterFn func(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error)
	getFn    func(ctx context.Context, id string) (*models.BrandAudit, error)
	createFn func(ctx context.Context, audit *models.BrandAudit) (*models.BrandAudit, error)
	updateFn func(ctx context.Context, id string, fields map[string]interface{}) (*models.BrandAudit, error)

	updates []map[string]interface{}
}

func (f *fakeAuditStore) List(ctx context.Context, sort string) ([]models.BrandAudit, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, sort)
}

func (f *fakeAuditStore) Filter(ctx context.Context, filters map[string]string, sort string) ([]models.BrandAudit, error) {
	if f.filterFn == nil {
		return nil, nil
	}
	return f.filterFn(ctx, filters, sort)
}

func (f *fakeAuditStore) Get(ctx context.Context, id string) (*models.BrandAudit, error) {
	if f.getFn == nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNotFound, "404", "audit not found", "fakeAuditStore", "Get", false, nil)
	}
	return f.getFn(ctx, id)
}

func (f *fakeAuditStore) Create(ctx context.Context, audit *models.BrandAudit) (*models.BrandAudit, error) {
	if f.createFn == nil {
		created := *audit
		created.ID = "audit-1"
		return &created, nil
	}
	return f.createFn(ctx, audit)
}

func (f *fakeAuditStore) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.BrandAudit, error) {
	f.mu.Lock()
	f.updates = append(f.updates, fields)
	f.mu.Unlock()

	if f.updateFn == nil {
		return &models.BrandAudit{ID: id}, nil
	}
	return f.updateFn(ctx, id, fields)
}

func (f *fakeAuditStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type rankerCall struct {
	task    string
	payload map[string]interface{}
}

type fakeRanker struct {
	mu    sync.Mutex
	calls []rankerCall

	invokeFn func(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error)
}

func (f *fakeRanker) Invoke(ctx context.Context, task string, payload map[string]interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rankerCall{task: task, payload: payload})
	f.mu.Unlock()

	if f.invokeFn == nil {
		return json.RawMessage(`{}`), nil
	}
	return f.invokeFn(ctx, task, payload)
}

func (f *fakeRanker) recordedCalls() []rankerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rankerCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeAuth struct {
	meFn func(ctx context.Context, token string) (*models.User, error)
}

func (f *fakeAuth) Me(ctx context.Context, token string) (*models.User, error) {
	if f.meFn == nil {
		return &models.User{ID: "user-1", Email: "user@example.com"}, nil
	}
	return f.meFn(ctx, token)
}

func (f *fakeAuth) LoginRedirectURL(returnURL string) string {
	return "https://auth.example.com/login?from_url=" + returnURL
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	return nil
}

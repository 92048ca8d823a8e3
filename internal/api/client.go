// Package api provides the HTTP client for the floor-plan backend. It is the
// only path to the server; every other component consumes it through the sync
// engine.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/planwise/floorsync/internal/errors"
	"github.com/planwise/floorsync/internal/models"
)

// TokenSource supplies the current bearer token. The session store is
// external; the core only asks whether a token exists right now.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a TokenSource for a fixed token. Handy for tests and CLI use.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() (string, bool) {
	return string(s), s != ""
}

// Client talks to the floor-plan backend. It never retries: the sync engine's
// conflict policy requires every request to resolve to exactly one outcome.
type Client struct {
	httpClient *resty.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient creates a backend client. The timeout bounds every request so a
// hung save resolves to an error instead of deadlocking the save state.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		tokens:     tokens,
		logger:     logger,
	}
}

// request builds a request with auth attached when a token is available.
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().SetContext(ctx).ForceContentType("application/json")
	if token, ok := c.tokens.Token(); ok {
		req.SetAuthToken(token)
	}
	return req
}

// wrap maps a resty outcome to the core error taxonomy. A 409 is the only
// conflict signal; everything else that is not success is a transport error,
// because the local version token can no longer be trusted.
func wrap(op string, resp *resty.Response, err error) error {
	if err != nil {
		return errors.Wrap(errors.ErrTransport, op+" failed", err)
	}
	switch resp.StatusCode() {
	case http.StatusConflict:
		return errors.New(errors.ErrVersionConflict, op+" rejected: version token is stale")
	case http.StatusNotFound:
		return errors.New(errors.ErrNotFound, op+" failed: not found")
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.New(errors.ErrNotAuthenticated, op+" failed: not authenticated")
	}
	if resp.IsError() {
		return errors.New(errors.ErrTransport, op+" failed: "+resp.Status())
	}
	return nil
}

// ListFloorPlans fetches all floor plans for the caller's company.
func (c *Client) ListFloorPlans(ctx context.Context) ([]models.FloorPlan, error) {
	var plans []models.FloorPlan
	resp, err := c.request(ctx).
		SetResult(&plans).
		Get("/admin/floorplans")
	if werr := wrap("list floor plans", resp, err); werr != nil {
		return nil, werr
	}
	return plans, nil
}

// GetFloorPlan fetches a single floor plan with its rooms.
func (c *Client) GetFloorPlan(ctx context.Context, id models.UUID) (*models.FloorPlan, error) {
	var plan models.FloorPlan
	resp, err := c.request(ctx).
		SetResult(&plan).
		Get("/admin/floorplans/" + id.String())
	if werr := wrap("get floor plan", resp, err); werr != nil {
		return nil, werr
	}
	return &plan, nil
}

// GetFloorPlanStatus fetches a floor plan with each room annotated with its
// live booking status. Display-only data, never written back to the layout.
func (c *Client) GetFloorPlanStatus(ctx context.Context, id models.UUID) (*models.FloorPlan, error) {
	var plan models.FloorPlan
	resp, err := c.request(ctx).
		SetResult(&plan).
		Get("/admin/floorplans/" + id.String() + "/status")
	if werr := wrap("get floor plan status", resp, err); werr != nil {
		return nil, werr
	}
	return &plan, nil
}

// CreateFloorPlan uploads a brand-new floor plan with its initial room set.
func (c *Client) CreateFloorPlan(ctx context.Context, plan *models.FloorPlan) (*models.FloorPlan, error) {
	var created models.FloorPlan
	resp, err := c.request(ctx).
		SetBody(plan).
		SetResult(&created).
		Post("/admin/floorplans/upload")
	if werr := wrap("create floor plan", resp, err); werr != nil {
		return nil, werr
	}
	return &created, nil
}

// UpdateFloorPlan sends one batched room-set mutation guarded by the
// client's last-known version token. The response carries the new token.
func (c *Client) UpdateFloorPlan(ctx context.Context, payload *models.UpdatePayload) (*models.FloorPlan, error) {
	var updated models.FloorPlan
	resp, err := c.request(ctx).
		SetBody(payload).
		SetResult(&updated).
		Post("/admin/floorplans/update")
	if werr := wrap("update floor plan", resp, err); werr != nil {
		return nil, werr
	}

	c.logger.Debug("Floor plan update accepted",
		zap.String("floor_plan_id", payload.FloorPlanID.String()),
		zap.Time("last_modified_at", updated.LastModifiedAt),
	)
	return &updated, nil
}

// CommitChanges flushes an offline batch. Semantically identical to
// UpdateFloorPlan; the backend exposes it as the offline-sync endpoint.
func (c *Client) CommitChanges(ctx context.Context, payload *models.UpdatePayload) (*models.FloorPlan, error) {
	var updated models.FloorPlan
	resp, err := c.request(ctx).
		SetBody(payload).
		SetResult(&updated).
		Post("/sync/commit-changes")
	if werr := wrap("commit offline changes", resp, err); werr != nil {
		return nil, werr
	}
	return &updated, nil
}

// RestoreFloorPlan asks the server to replace the aggregate with its most
// recent backup snapshot.
func (c *Client) RestoreFloorPlan(ctx context.Context, id models.UUID) (*models.FloorPlan, error) {
	var restored models.FloorPlan
	resp, err := c.request(ctx).
		SetResult(&restored).
		Post("/admin/floorplans/" + id.String() + "/restore")
	if werr := wrap("restore floor plan", resp, err); werr != nil {
		return nil, werr
	}
	return &restored, nil
}

// ListVersions fetches the historical snapshot markers for a floor plan.
func (c *Client) ListVersions(ctx context.Context, id models.UUID) ([]models.VersionRecord, error) {
	var versions []models.VersionRecord
	resp, err := c.request(ctx).
		SetResult(&versions).
		Get("/admin/floorplans/" + id.String() + "/versions")
	if werr := wrap("list versions", resp, err); werr != nil {
		return nil, werr
	}
	return versions, nil
}

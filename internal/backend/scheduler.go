package backend

import (
	"context"

	"stockdash/internal/domain"
)

// SchedulerStatus returns the backend job scheduler state.
func (c *Client) SchedulerStatus(ctx context.Context) (*domain.SchedulerStatus, error) {
	var out domain.SchedulerStatus
	if err := c.get(ctx, "/api/scheduler/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerSync starts the backend's full quote sync job.
func (c *Client) TriggerSync(ctx context.Context) (string, error) {
	return c.trigger(ctx, "/api/scheduler/trigger-sync")
}

// TriggerTrendSync starts the backend's trend sync job.
func (c *Client) TriggerTrendSync(ctx context.Context) (string, error) {
	return c.trigger(ctx, "/api/scheduler/trigger-trend-sync")
}

func (c *Client) trigger(ctx context.Context, path string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.sync(ctx, path, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (*domain.HealthStatus, error) {
	var out domain.HealthStatus
	if err := c.get(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

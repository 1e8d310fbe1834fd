package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"landedcost/internal/jobs"
)

// Job mirrors the server's job view.
type Job struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	Priority         string          `json:"priority"`
	OriginalPriority string          `json:"original_priority"`
	WorkspaceID      string          `json:"workspace_id"`
	Progress         int             `json:"progress"`
	Parameters       json.RawMessage `json:"parameters,omitempty"`
	RetryCount       int             `json:"retry_count"`
	MaxRetries       int             `json:"max_retries"`
	Error            string          `json:"error,omitempty"`
	ErrorCode        string          `json:"error_code,omitempty"`
	NextRunAt        *time.Time      `json:"next_run_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	Detail           *jobs.Metadata  `json:"detail,omitempty"`
}

func (j Job) Header() []string {
	return []string{"ID", "TYPE", "STATUS", "PRIORITY", "PROGRESS", "RETRIES", "CREATED"}
}

func (j Job) Columns() []string {
	return []string{
		j.ID,
		j.Type,
		j.Status,
		j.Priority,
		strconv.Itoa(j.Progress) + "%",
		fmt.Sprintf("%d/%d", j.RetryCount, j.MaxRetries),
		j.CreatedAt.Format(time.RFC3339),
	}
}

type ListJobsOptions struct {
	Type        string
	Statuses    []string
	WorkspaceID string
	Limit       int
	Offset      int
}

func (c *Client) SubmitJob(ctx context.Context, req jobs.SubmitRequest) (*Job, error) {
	var out Job
	if _, err := c.Call(ctx, http.MethodPost, "/api/v1/jobs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var out Job
	if _, err := c.Call(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JobResult(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if _, err := c.Call(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(id)+"/result", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListJobs returns one page and the server's total count.
func (c *Client) ListJobs(ctx context.Context, opts ListJobsOptions) ([]Job, int, error) {
	q := url.Values{}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if len(opts.Statuses) > 0 {
		q.Set("status", strings.Join(opts.Statuses, ","))
	}
	if opts.WorkspaceID != "" {
		q.Set("workspace_id", opts.WorkspaceID)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/api/v1/jobs"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out []Job
	meta, err := c.Call(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, 0, err
	}
	total := len(out)
	if v, ok := meta["total"].(float64); ok {
		total = int(v)
	}
	return out, total, nil
}

// ControlJob applies pause, resume, cancel or rerun.
func (c *Client) ControlJob(ctx context.Context, id, action string) (*Job, error) {
	switch action {
	case "pause", "resume", "cancel", "rerun":
	default:
		return nil, fmt.Errorf("unknown job action %q", action)
	}
	var out Job
	if _, err := c.Call(ctx, http.MethodPost, "/api/v1/jobs/"+url.PathEscape(id)+"/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rows adapts jobs for table output.
func Rows(items []Job) []Row {
	out := make([]Row, 0, len(items))
	for _, j := range items {
		out = append(out, j)
	}
	return out
}

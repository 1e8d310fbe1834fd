package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"landedcost/internal/jobs"
	"landedcost/internal/models"
	"landedcost/internal/repository"
)

type JobHandler struct {
	Scheduler *jobs.Scheduler
	Repo      repository.JobRepository
	Logger    *zap.Logger
	// StreamPoll bounds how long a stream waits without a change signal before re-reading the job.
	StreamPoll time.Duration
}

func (h *JobHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/jobs")
	g.POST("", h.submit)
	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.GET("/:id", h.get)
	g.GET("/:id/result", h.result)
	g.GET("/:id/stream", h.stream)
	g.POST("/:id/pause", h.pause)
	g.POST("/:id/resume", h.resume)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/rerun", h.rerun)
}

// jobView replaces the raw metadata with its decoded form, minus the checkpoint.
type jobView struct {
	models.Job
	Detail *jobs.Metadata `json:"detail,omitempty"`
}

func viewOf(job *models.Job) jobView {
	v := jobView{Job: *job}
	if len(job.Metadata) > 0 {
		var meta jobs.Metadata
		if err := json.Unmarshal(job.Metadata, &meta); err == nil {
			meta.Checkpoint = nil
			v.Detail = &meta
			v.Job.Metadata = nil
		}
	}
	return v
}

// @Summary Submit a job
// @Tags jobs
// @Accept json
// @Param body body jobs.SubmitRequest true "job type, priority and parameters"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/jobs [post]
func (h *JobHandler) submit(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	var req jobs.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	job, err := h.Scheduler.Submit(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, viewOf(job), nil)
}

// @Summary List jobs
// @Tags jobs
// @Param type query string false "job type"
// @Param status query string false "comma separated statuses"
// @Param priority query string false "priority"
// @Param workspace_id query string false "workspace"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param order_by query string false "created_at|updated_at"
// @Param asc query bool false "ascending order"
// @Success 200 {object} apiResponse
// @Router /api/v1/jobs [get]
func (h *JobHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListJobsParams{
		Limit:       limit,
		Offset:      offset,
		Type:        strQueryPtr(c, "type"),
		Statuses:    csvQuery(c, "status"),
		Priority:    strQueryPtr(c, "priority"),
		WorkspaceID: strQueryPtr(c, "workspace_id"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"created_at": "created_at",
			"updated_at": "updated_at",
		}),
		Asc: boolQueryPtr(c, "asc"),
	}
	items, err := h.Repo.ListJobs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountJobs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	out := make([]jobView, 0, len(items))
	for i := range items {
		out = append(out, viewOf(&items[i]))
	}
	Ok(c, out, paginationMeta(limit, offset, total))
}

// @Summary Scheduler load
// @Tags jobs
// @Success 200 {object} apiResponse
// @Router /api/v1/jobs/stats [get]
func (h *JobHandler) stats(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	Ok(c, h.Scheduler.Stats(), nil)
}

// @Summary Get job
// @Tags jobs
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/jobs/{id} [get]
func (h *JobHandler) get(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	job, err := h.Scheduler.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, viewOf(job), nil)
}

// @Summary Get job result
// @Tags jobs
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/jobs/{id}/result [get]
func (h *JobHandler) result(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	res, err := h.Scheduler.Result(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, res, nil)
}

func (h *JobHandler) control(c *gin.Context, fn func(ctx context.Context, id string) (*models.Job, error)) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	job, err := fn(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, viewOf(job), nil)
}

// @Summary Pause job
// @Tags jobs
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/jobs/{id}/pause [post]
func (h *JobHandler) pause(c *gin.Context) { h.control(c, h.Scheduler.Pause) }

// @Summary Resume job
// @Tags jobs
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/jobs/{id}/resume [post]
func (h *JobHandler) resume(c *gin.Context) { h.control(c, h.Scheduler.Resume) }

// @Summary Cancel job
// @Tags jobs
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/jobs/{id}/cancel [post]
func (h *JobHandler) cancel(c *gin.Context) { h.control(c, h.Scheduler.Cancel) }

// @Summary Rerun a dead-lettered job
// @Tags jobs
// @Param id path string true "job id"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/jobs/{id}/rerun [post]
func (h *JobHandler) rerun(c *gin.Context) { h.control(c, h.Scheduler.Rerun) }

// @Summary Stream job progress over a websocket
// @Tags jobs
// @Param id path string true "job id"
// @Router /api/v1/jobs/{id}/stream [get]
func (h *JobHandler) stream(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	job, err := h.Scheduler.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	// The client only listens; CloseRead cancels ctx once it goes away.
	ctx := conn.CloseRead(c.Request.Context())
	changes, unsubscribe := h.Scheduler.Subscribe(id)
	defer unsubscribe()

	poll := h.StreamPoll
	if poll <= 0 {
		poll = 5 * time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	lastStatus, lastProgress := "", -1
	for {
		if job.Status != lastStatus || job.Progress != lastProgress {
			if err := wsjson.Write(ctx, conn, viewOf(job)); err != nil {
				return
			}
			lastStatus, lastProgress = job.Status, job.Progress
		}
		if jobs.IsTerminal(job.Status) {
			conn.Close(websocket.StatusNormalClosure, job.Status)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-changes:
		case <-ticker.C:
		}
		next, err := h.Scheduler.Get(ctx, id)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Debug("job stream read failed", zap.String("job_id", id), zap.Error(err))
			}
			return
		}
		job = next
	}
}

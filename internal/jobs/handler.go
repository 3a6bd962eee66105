package jobs

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/shared/schema"
	"jobtracker/internal/shared/server/params"
	"jobtracker/internal/shared/server/respond"
)

const maxBodySize = 1 << 20 // 1MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc    *Service
	Schema *schema.Validator
}

// NewHandler constructs a Handler validating bodies against the embedded job schema.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Schema: schema.MustLoad("job")}
}

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.list)
	rg.POST("/jobs", h.create)
	rg.GET("/jobs/", h.missingID)
	rg.GET("/jobs/:id", h.get)
	rg.PUT("/jobs/", h.missingID)
	rg.PUT("/jobs/:id", h.update)
	rg.DELETE("/jobs/", h.missingID)
	rg.DELETE("/jobs/:id", h.delete)
	rg.POST("/jobs/:id/stage", h.advance)
	rg.POST("/jobs/:id/enrich", h.enrich)
	rg.GET("/count/jobs", h.count)
}

type countResponse struct {
	Count int `json:"count"`
}

type stageRequest struct {
	ProcessingStage Stage `json:"processing_stage"`
}

func (h *Handler) list(c *gin.Context) {
	opts, err := params.List(c, Filterable, SortFields)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	items, err := h.Svc.List(c.Request.Context(), opts)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, items)
}

func (h *Handler) count(c *gin.Context) {
	filter, err := params.Filter(c, Filterable)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	n, err := h.Svc.Count(c.Request.Context(), filter)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, countResponse{Count: n})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	job, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) create(c *gin.Context) {
	var job Job
	if !h.decode(c, h.Schema.ValidateCreate, &job) {
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), job)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, created)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch Patch
	if !h.decode(c, h.Schema.ValidatePatch, &patch) {
		return
	}
	job, err := h.Svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		respond.Failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) advance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProcessingStage == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "processing_stage is required", nil)
		return
	}
	job, err := h.Svc.AdvanceStage(c.Request.Context(), id, req.ProcessingStage)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) enrich(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Enrich(c.Request.Context(), id, c.Query("workflow")); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"accepted": true})
}

func (h *Handler) missingID(c *gin.Context) {
	respond.Error(c, http.StatusBadRequest, "validation_error", "id is required", nil)
}

// decode reads the body once, checks it against the schema and unmarshals it into dst.
func (h *Handler) decode(c *gin.Context, check func([]byte) error, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read request body", nil)
		return false
	}
	if err := check(body); err != nil {
		var schemaErr *schema.Error
		if errors.As(err, &schemaErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "request body does not match the job schema", schemaErr.Issues)
			return false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return false
	}
	return true
}

func pathID(c *gin.Context) (string, bool) {
	id, err := params.ID(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return "", false
	}
	return id, true
}

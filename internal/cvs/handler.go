package cvs

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

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Schema: schema.MustLoad("cv")}
}

// RegisterRoutes attaches CV routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cvs", h.list)
	rg.POST("/cvs", h.create)
	rg.GET("/cvs/", h.missingID)
	rg.GET("/cvs/:id", h.get)
	rg.PUT("/cvs/", h.missingID)
	rg.PUT("/cvs/:id", h.update)
	rg.DELETE("/cvs/", h.missingID)
	rg.DELETE("/cvs/:id", h.delete)
	rg.GET("/count/cvs", h.count)
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
	respond.OK(c, gin.H{"count": n})
}

func (h *Handler) get(c *gin.Context) {
	id, err := params.ID(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	cv, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, cv)
}

func (h *Handler) create(c *gin.Context) {
	body, ok := h.readBody(c, h.Schema.ValidateCreate)
	if !ok {
		return
	}
	var cv CV
	if err := json.Unmarshal(body, &cv); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), cv)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, created)
}

func (h *Handler) update(c *gin.Context) {
	id, err := params.ID(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	body, ok := h.readBody(c, h.Schema.ValidatePatch)
	if !ok {
		return
	}
	var patch Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cv, err := h.Svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, cv)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := params.ID(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		respond.Failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) missingID(c *gin.Context) {
	respond.Error(c, http.StatusBadRequest, "validation_error", "id is required", nil)
}

func (h *Handler) readBody(c *gin.Context, check func([]byte) error) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read request body", nil)
		return nil, false
	}
	if err := check(body); err != nil {
		var schemaErr *schema.Error
		if errors.As(err, &schemaErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "request body does not match the cv schema", schemaErr.Issues)
			return nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return nil, false
	}
	return body, true
}

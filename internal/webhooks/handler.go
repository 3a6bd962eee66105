package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/shared/server/respond"
)

// Handler exposes manual workflow triggers.
type Handler struct {
	Client *Client
}

// NewHandler constructs a Handler.
func NewHandler(client *Client) *Handler {
	return &Handler{Client: client}
}

// RegisterRoutes attaches workflow routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/workflows", h.list)
	rg.POST("/workflows/:name", h.trigger)
}

type workflowStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

func (h *Handler) list(c *gin.Context) {
	out := make([]workflowStatus, 0, len(Workflows))
	for _, name := range Workflows {
		out = append(out, workflowStatus{Name: name, Configured: h.Client.Configured(name)})
	}
	respond.OK(c, out)
}

func (h *Handler) trigger(c *gin.Context) {
	name := c.Param("name")

	var payload any
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read request body", nil)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "payload must be JSON", nil)
			return
		}
	}

	if err := h.Client.Trigger(c.Request.Context(), name, payload); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"workflow": name, "accepted": true})
}

// Package params parses the path and query parameters shared by the collection handlers.
package params

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"jobtracker/internal/shared/storage/query"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ListQuery holds the paging and ordering parameters of a listing.
type ListQuery struct {
	Limit int    `form:"limit" validate:"gte=0,lte=1000"`
	Skip  int    `form:"skip" validate:"gte=0"`
	Sort  string `form:"sort" validate:"omitempty,oneof=date createdAt updatedAt created_at updated_at"`
}

var reserved = []string{"limit", "skip", "sort"}

// Error is a rejected parameter.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// List reads paging, ordering and equality filters from the query string. Every key that is
// not a paging parameter is a filter and must be allowed by schema.
func List(c *gin.Context, schema query.Schema, sorts []query.SortField) (query.Options, error) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return query.Options{}, &Error{Message: "limit and skip must be integers"}
	}
	if err := validate.Struct(q); err != nil {
		return query.Options{}, &Error{Message: describe(err)}
	}

	opts := query.Options{Limit: q.Limit, Skip: q.Skip}
	if q.Sort != "" {
		field, ok := query.ParseSortField(q.Sort)
		if !ok || !slices.Contains(sorts, field) {
			return query.Options{}, &Error{Message: fmt.Sprintf("cannot sort by %q", q.Sort)}
		}
		opts.Sort = field
	}

	filter, err := Filter(c, schema)
	if err != nil {
		return query.Options{}, err
	}
	opts.Filter = filter
	return opts, nil
}

// Filter reads the equality filters from the query string, ignoring paging parameters.
func Filter(c *gin.Context, schema query.Schema) (query.Filter, error) {
	filter := query.Filter{}
	for key, values := range c.Request.URL.Query() {
		if slices.Contains(reserved, key) {
			continue
		}
		if len(values) != 1 {
			return nil, &Error{Message: fmt.Sprintf("filter %q must have a single value", key)}
		}
		filter[key] = values[0]
	}
	if _, err := schema.Conditions(filter); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	return filter, nil
}

// ID returns the single record id in the path parameter "id". Missing, multi-valued and
// malformed ids are rejected.
func ID(c *gin.Context) (string, error) {
	raw := strings.TrimSpace(strings.Trim(c.Param("id"), "/"))
	if raw == "" {
		return "", &Error{Message: "id is required"}
	}
	if strings.ContainsAny(raw, ",/") {
		return "", &Error{Message: "exactly one id is expected"}
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", &Error{Message: "id must be a UUID"}
	}
	return parsed.String(), nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

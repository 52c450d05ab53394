package handlers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/repository"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	maxPage         = math.MaxInt32 / maxPageSize
)

// parseComplaintFilter reads list/dashboard filters from the query string.
// status and category accept comma separated values.
func parseComplaintFilter(c *fiber.Ctx) (repository.ComplaintFilter, error) {
	filter := repository.ComplaintFilter{}
	if customer := strings.TrimSpace(c.Query("customer_id")); customer != "" {
		filter.CustomerID = &customer
	}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(strings.ToUpper(part)))
	}
	for _, part := range splitList(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.ComplaintCategory(part))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}

	from, _, err := parseTime(c.Query("created_from"))
	if err != nil {
		return filter, apperrors.NewValidationError("invalid created_from", map[string]any{"created_from": "Must be RFC3339 or YYYY-MM-DD"})
	}
	filter.CreatedFrom = from

	to, dateOnly, err := parseTime(c.Query("created_to"))
	if err != nil {
		return filter, apperrors.NewValidationError("invalid created_to", map[string]any{"created_to": "Must be RFC3339 or YYYY-MM-DD"})
	}
	if to != nil && dateOnly {
		// a bare date covers the whole day
		next := to.AddDate(0, 0, 1)
		filter.CreatedBefore = &next
	} else {
		filter.CreatedTo = to
	}

	page := parseIntQuery(c, "page", 1)
	if page > maxPage {
		return filter, apperrors.NewValidationError("invalid page", map[string]any{"page": "Must be at most " + strconv.Itoa(maxPage)})
	}
	pageSize := parseIntQuery(c, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTime accepts RFC3339 or a bare date; dateOnly reports the latter.
func parseTime(val string) (t *time.Time, dateOnly bool, err error) {
	if val == "" {
		return nil, false, nil
	}
	if parsed, err := time.Parse(time.RFC3339, val); err == nil {
		return &parsed, false, nil
	}
	parsed, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return nil, false, err
	}
	return &parsed, true, nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func parseID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": raw})
	}
	return id, nil
}

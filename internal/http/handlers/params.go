package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
)

const dateLayout = "2006-01-02"

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return uint(id), nil
}

// queryID parses an optional positive integer query parameter; absent is zero
func queryID(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return uint(id), nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", domain.ErrValidation, field)
}

func optionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryPeriod reads the from/to query pair; to is inclusive of its whole day
func queryPeriod(c *gin.Context) (from, to *time.Time, err error) {
	if from, err = optionalDate("from", c.Query("from")); err != nil {
		return nil, nil, err
	}
	if to, err = optionalDate("to", c.Query("to")); err != nil {
		return nil, nil, err
	}
	if to != nil && len(strings.TrimSpace(c.Query("to"))) == len(dateLayout) {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("%w: to is before from", domain.ErrValidation)
	}
	return from, to, nil
}

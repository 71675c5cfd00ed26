package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/servicebay/internal/observability/context"
	"github.com/smallbiznis/servicebay/pkg/telemetry/correlation"
)

const dateOnlyLayout = "2006-01-02"

// flexID accepts an id as a JSON string or a bare number.
type flexID snowflake.ID

func (f *flexID) UnmarshalJSON(b []byte) error {
	n, err := parseFlexInt(b)
	if err != nil {
		return errors.New("invalid_id")
	}
	*f = flexID(n)
	return nil
}

// flexQuantity accepts a count as a JSON string or a bare number. A value
// that is not a whole number is kept as invalid rather than failing the bind.
type flexQuantity struct {
	value   int64
	invalid bool
}

func (q *flexQuantity) UnmarshalJSON(b []byte) error {
	n, err := parseFlexInt(b)
	*q = flexQuantity{value: n, invalid: err != nil}
	return nil
}

// parseFlexInt reads a whole number that may be quoted. Empty and null
// decode as zero.
func parseFlexInt(b []byte) (int64, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		trimmed = []byte(s)
	}
	return strconv.ParseInt(string(trimmed), 10, 64)
}

func (f flexID) ID() snowflake.ID {
	return snowflake.ID(f)
}

func (f flexID) Ptr() *snowflake.ID {
	if f <= 0 {
		return nil
	}
	id := snowflake.ID(f)
	return &id
}

// pathID parses a route parameter; an unparseable value yields 0 so the
// service reports its own invalid-id error.
func pathID(c *gin.Context, name string) snowflake.ID {
	parsed, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

// tagID records id for request logs and spans. A job id also becomes the
// correlation id unless the client sent its own.
func tagID(c *gin.Context, key string, id snowflake.ID) {
	if id <= 0 {
		return
	}
	c.Set(key, id.String())
	if key != obscontext.KeyJobID {
		return
	}
	if ctx, ok := correlation.Adopt(c.Request.Context(), correlation.ForJob(id.Int64())); ok {
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.HeaderName, correlation.FromContext(ctx))
	}
}

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

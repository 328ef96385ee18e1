package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const dateKeyLayout = "2006-01-02"

// Today is one calendar day in the reference timezone.
type Today struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	DateKey     string `json:"date_key"`
	DaysInMonth int    `json:"days_in_month"`
}

// DayResolver tells the engines which day it is.
type DayResolver interface {
	Today(ctx context.Context) Today
}

// TimeOracle is a remote source of the current instant.
type TimeOracle interface {
	Now(ctx context.Context) (time.Time, error)
}

// HTTPTimeOracle reads an RFC 3339 timestamp out of a JSON document.
type HTTPTimeOracle struct {
	client *http.Client
	url    string
	field  string
}

// NewHTTPTimeOracle queries url and reads the timestamp at the gjson path field.
func NewHTTPTimeOracle(url, field string, timeout time.Duration) *HTTPTimeOracle {
	return &HTTPTimeOracle{
		client: &http.Client{Timeout: timeout},
		url:    url,
		field:  field,
	}
}

func (o *HTTPTimeOracle) Now(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("time oracle status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return time.Time{}, err
	}
	v := gjson.GetBytes(body, o.field)
	if !v.Exists() {
		return time.Time{}, errors.New("time oracle payload missing " + o.field)
	}
	return time.Parse(time.RFC3339, v.String())
}

// Clock resolves today through the oracle and falls back to the local wall
// clock on any failure. There is exactly one attempt per call.
type Clock struct {
	oracle TimeOracle
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
}

// NewClock builds a Clock. A nil oracle means local time only.
func NewClock(oracle TimeOracle, loc *time.Location, logger *zap.Logger) *Clock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{oracle: oracle, loc: loc, now: time.Now, log: logger}
}

func (c *Clock) Today(ctx context.Context) Today {
	if c.oracle != nil {
		t, err := c.oracle.Now(ctx)
		if err == nil {
			return DayOf(t, c.loc)
		}
		c.log.Warn("time oracle unavailable, using local clock", zap.Error(err))
	}
	return DayOf(c.now(), c.loc)
}

// DayOf projects t onto the calendar of loc.
func DayOf(t time.Time, loc *time.Location) Today {
	t = t.In(loc)
	y, m, d := t.Date()
	return Today{
		Year:        y,
		Month:       int(m),
		Day:         d,
		DateKey:     t.Format(dateKeyLayout),
		DaysInMonth: time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day(),
	}
}

// previousDateKey returns the calendar day before key, or "" when key is malformed.
func previousDateKey(key string) string {
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(dateKeyLayout)
}

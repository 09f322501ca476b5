// ABOUTME: Search query construction and timestamp conversion helpers
// ABOUTME: Combines caller filters with the delta-window floor via max()
package sync

import (
	"time"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
)

// deltaWindow is the safety overlap subtracted from a caller's checkpoint
// to tolerate clock skew and late-arriving upstream writes.
const deltaWindow = 6 * time.Hour

// queryFilter pairs a filter field with its requested value.
type queryFilter struct {
	field models.FilterField
	value any
}

func buildFilter(f queryFilter) intercom.Query {
	switch f.field.Type {
	case models.FilterMultidropdown:
		value := f.value
		if value == nil {
			value = []string{}
		}
		return intercom.Query{Field: f.field.ID, Operator: "IN", Value: value}
	default: // datebox
		return intercom.Query{Field: f.field.ID, Operator: ">", Value: f.value}
	}
}

// buildSearchQuery combines filters into a single Intercom search query,
// wrapping them in an AND node when more than one is present.
func buildSearchQuery(filters []queryFilter) *intercom.Query {
	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		q := buildFilter(filters[0])
		return &q
	}
	nested := make([]intercom.Query, len(filters))
	for i, f := range filters {
		nested[i] = buildFilter(f)
	}
	return &intercom.Query{Operator: "AND", Value: nested}
}

// isoToTimestamp converts an ISO-8601 string to unix seconds, yielding 0
// for empty or malformed input.
func isoToTimestamp(iso string) int64 {
	if iso == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// maxTimestamp returns the largest of the given ISO timestamps as unix
// seconds; inputs that fail to parse count as 0.
func maxTimestamp(isos ...string) int64 {
	var max int64
	for _, iso := range isos {
		if ts := isoToTimestamp(iso); ts > max {
			max = ts
		}
	}
	return max
}

// timestampToISO renders unix seconds as an ISO-8601 UTC timestamp.
func timestampToISO(ts float64) string {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// adjustLastSynchronizedAt moves a caller checkpoint back by the delta
// window. An absent checkpoint stays absent (full sync).
func adjustLastSynchronizedAt(lastSynchronizedAt string) string {
	if lastSynchronizedAt == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, lastSynchronizedAt)
	if err != nil {
		return lastSynchronizedAt
	}
	return t.Add(-deltaWindow).UTC().Format(time.RFC3339)
}

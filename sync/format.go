// ABOUTME: Schema-driven item formatting into flat typed records
// ABOUTME: A single malformed value fails the whole batch, never a partial record
package sync

import (
	"fmt"
	"time"

	"github.com/tylercowie/intercomconnector/models"
	"github.com/tylercowie/intercomconnector/schema"
)

// maxDateYear bounds sane upstream timestamps. Some workspaces carry junk
// second values that map to absurd years.
const maxDateYear = 2500

// FormatItem applies a schema to one raw item, producing a flat record
// keyed by field id. Empty-ish raw values pass through unconverted.
func FormatItem(s *schema.Schema, account models.Account, item models.Record) (models.Record, error) {
	formatted := make(models.Record, len(s.Fields))
	for i := range s.Fields {
		field := &s.Fields[i]
		value := field.Value(item, account)
		if !truthy(value) {
			formatted[field.ID] = value
			continue
		}
		converted, err := convertValue(field.Type, value)
		if err != nil {
			return nil, fmt.Errorf("failed to format %v with id %v: %w", item["type"], item["id"], err)
		}
		formatted[field.ID] = converted
	}
	return formatted, nil
}

// FormatItems formats a batch. The first failure aborts the batch;
// downstream consumers cannot safely ingest partially typed records.
func FormatItems(s *schema.Schema, account models.Account, items []models.Record) ([]models.Record, error) {
	formatted := make([]models.Record, len(items))
	for i, item := range items {
		record, err := FormatItem(s, account, item)
		if err != nil {
			return nil, err
		}
		formatted[i] = record
	}
	return formatted, nil
}

func convertValue(fieldType string, value any) (any, error) {
	if fieldType != schema.TypeDate {
		return value, nil
	}
	ts, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("wrong date value: %v", value)
	}
	if time.Unix(int64(ts), 0).UTC().Year() > maxDateYear {
		return nil, fmt.Errorf("wrong date value: %v", value)
	}
	return timestampToISO(ts), nil
}

// truthy mirrors the loose emptiness check formatting relies on: nil,
// false, zero numbers, and empty strings skip type conversion.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}

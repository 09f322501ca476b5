// ABOUTME: Field schema model: ordered field sets with typed value derivation
// ABOUTME: Schemas serialize as ordered JSON objects keyed by field id
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tylercowie/intercomconnector/models"
)

// Field value types.
const (
	TypeID        = "id"
	TypeText      = "text"
	TypeNumber    = "number"
	TypeDate      = "date"
	TypeTextArray = "array[text]"
)

// Field sub types.
const (
	SubEmail   = "email"
	SubURL     = "url"
	SubBoolean = "boolean"
	SubInteger = "integer"
	SubHTML    = "html"
	SubFile    = "file"
)

// Relation describes how a field links one source type to another.
type Relation struct {
	Cardinality   string            `json:"cardinality"`
	Name          string            `json:"name"`
	TargetName    string            `json:"targetName"`
	TargetType    models.SourceType `json:"targetType"`
	TargetFieldID string            `json:"targetFieldId"`
}

// DeriveKind selects how a field's value is produced from a raw item.
type DeriveKind int

const (
	// DeriveRelationIDs collects the id of every entry in the object list
	// found at Path.
	DeriveRelationIDs DeriveKind = iota + 1
	// DeriveConstant always yields Constant.
	DeriveConstant
	// DeriveAppLink formats LinkFormat with the account's Intercom app id
	// and the item id.
	DeriveAppLink
	// DerivePriority yields whether the item's priority equals "priority".
	DerivePriority
	// DeriveConversationName yields "<author> <dd-MMM-yyyy>" from the
	// source author and creation time.
	DeriveConversationName
)

// Derivation is the tagged value-derivation rule of a field. A nil
// Derivation means a direct path lookup by the field id.
type Derivation struct {
	Kind       DeriveKind
	Path       string
	Constant   any
	LinkFormat string
}

// Field is one schema entry. Derive is internal and never serialized.
type Field struct {
	ID          string
	Name        string
	Type        string
	SubType     string
	Description string
	Relation    *Relation
	Writable    bool
	Important   bool
	Order       int
	Derive      *Derivation
}

type fieldJSON struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	SubType     string    `json:"subType,omitempty"`
	Description string    `json:"description,omitempty"`
	Relation    *Relation `json:"relation,omitempty"`
	Order       int       `json:"order"`
	Writable    bool      `json:"writable,omitempty"`
	Important   bool      `json:"important,omitempty"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{
		Name:        f.Name,
		Type:        f.Type,
		SubType:     f.SubType,
		Description: f.Description,
		Relation:    f.Relation,
		Order:       f.Order,
		Writable:    f.Writable,
		Important:   f.Important,
	})
}

// Schema is an ordered field set. Order is assigned at merge time and is
// part of the external contract.
type Schema struct {
	Fields []Field
}

// Lookup returns the field with the given id.
func (s *Schema) Lookup(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// MarshalJSON renders the schema as a JSON object whose keys appear in
// field order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.ID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Value produces the field's raw (unconverted) value for an item.
func (f *Field) Value(item models.Record, account models.Account) any {
	if f.Derive == nil {
		return LookupPath(item, f.ID)
	}
	switch f.Derive.Kind {
	case DeriveConstant:
		return f.Derive.Constant
	case DeriveRelationIDs:
		return collectIDs(LookupPath(item, f.Derive.Path))
	case DeriveAppLink:
		return fmt.Sprintf(f.Derive.LinkFormat, account.IntercomAppID, stringify(item["id"]))
	case DerivePriority:
		return item["priority"] == "priority"
	case DeriveConversationName:
		name := "Unknown"
		if v, ok := LookupPath(item, "source.author.name").(string); ok && v != "" {
			name = v
		}
		created, _ := LookupPath(item, "created_at").(float64)
		return fmt.Sprintf("%s %s", name, time.Unix(int64(created), 0).UTC().Format("02-Jan-2006"))
	}
	return nil
}

// LookupPath resolves a dot-separated key path through nested objects,
// returning nil when any segment is absent.
func LookupPath(item models.Record, path string) any {
	var current any = item
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return current
}

func collectIDs(value any) any {
	list, ok := value.([]any)
	if !ok {
		return []any{}
	}
	ids := make([]any, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			ids = append(ids, obj["id"])
		}
	}
	return ids
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", t), ".")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

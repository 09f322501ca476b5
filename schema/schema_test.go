// ABOUTME: Tests for field value derivation and ordered schema serialization
package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tylercowie/intercomconnector/models"
)

func TestLookupPath(t *testing.T) {
	item := models.Record{
		"location": map[string]any{
			"country": "Iceland",
		},
		"name": "Alice",
	}

	assert.Equal(t, "Alice", LookupPath(item, "name"))
	assert.Equal(t, "Iceland", LookupPath(item, "location.country"))
	assert.Nil(t, LookupPath(item, "location.city"))
	assert.Nil(t, LookupPath(item, "name.nested"))
	assert.Nil(t, LookupPath(item, "missing"))
}

func TestFieldValueDirectPath(t *testing.T) {
	field := Field{ID: "location.city", Type: TypeText}
	item := models.Record{"location": map[string]any{"city": "Reykjavik"}}

	assert.Equal(t, "Reykjavik", field.Value(item, models.Account{}))
}

func TestFieldValueRelationIDs(t *testing.T) {
	field := Field{
		ID:     "companiesIds",
		Derive: &Derivation{Kind: DeriveRelationIDs, Path: "companies.data"},
	}
	item := models.Record{
		"companies": map[string]any{
			"data": []any{
				map[string]any{"id": "c1"},
				map[string]any{"id": "c2"},
			},
		},
	}

	assert.Equal(t, []any{"c1", "c2"}, field.Value(item, models.Account{}))

	// Missing relation data yields an empty list, not nil.
	assert.Equal(t, []any{}, field.Value(models.Record{}, models.Account{}))
}

func TestFieldValueConstant(t *testing.T) {
	field := syncActionField()
	value := field.Value(models.Record{}, models.Account{})
	assert.Equal(t, models.SyncActionSet, value)
}

func TestFieldValueAppLink(t *testing.T) {
	field := Field{
		ID:     "intercomLink",
		Derive: &Derivation{Kind: DeriveAppLink, LinkFormat: contactLinkFormat},
	}
	item := models.Record{"id": "u42"}
	account := models.Account{IntercomAppID: "abc123"}

	assert.Equal(t, "https://app.intercom.com/a/apps/abc123/users/u42", field.Value(item, account))
}

func TestFieldValuePriority(t *testing.T) {
	field := Field{ID: "priority", Derive: &Derivation{Kind: DerivePriority}}

	assert.Equal(t, true, field.Value(models.Record{"priority": "priority"}, models.Account{}))
	assert.Equal(t, false, field.Value(models.Record{"priority": "not_priority"}, models.Account{}))
	assert.Equal(t, false, field.Value(models.Record{}, models.Account{}))
}

func TestFieldValueConversationName(t *testing.T) {
	field := Field{ID: "name", Derive: &Derivation{Kind: DeriveConversationName}}
	item := models.Record{
		"source": map[string]any{
			"author": map[string]any{"name": "Jane Doe"},
		},
		// 2021-03-15 00:00:00 UTC
		"created_at": float64(1615766400),
	}

	assert.Equal(t, "Jane Doe 15-Mar-2021", field.Value(item, models.Account{}))

	// Missing author falls back to a placeholder.
	anonymous := models.Record{"created_at": float64(1615766400)}
	assert.Equal(t, "Unknown 15-Mar-2021", field.Value(anonymous, models.Account{}))
}

func TestSchemaMarshalPreservesOrder(t *testing.T) {
	s := &Schema{Fields: []Field{
		{ID: "zz", Name: "zz", Type: TypeText, Order: 0},
		{ID: "aa", Name: "aa", Type: TypeText, Order: 1},
		{ID: "mm", Name: "mm", Type: TypeDate, Order: 2},
	}}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	text := string(raw)
	assert.True(t, strings.Index(text, `"zz"`) < strings.Index(text, `"aa"`))
	assert.True(t, strings.Index(text, `"aa"`) < strings.Index(text, `"mm"`))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(2), decoded["mm"]["order"])
	assert.Equal(t, "date", decoded["mm"]["type"])
}

func TestFieldMarshalOmitsInternalState(t *testing.T) {
	field := Field{
		ID:      "intercomLink",
		Name:    "Intercom Link",
		Type:    TypeText,
		SubType: SubURL,
		Derive:  &Derivation{Kind: DeriveAppLink, LinkFormat: contactLinkFormat},
	}

	raw, err := json.Marshal(field)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "Derive")
	assert.NotContains(t, decoded, "id")
	assert.Equal(t, "url", decoded["subType"])
}

func TestCatalogsCarrySyncAction(t *testing.T) {
	for _, source := range []models.SourceType{models.SourceContacts, models.SourceCompanies, models.SourceConversations} {
		fields := catalogs[source]
		last := fields[len(fields)-1]
		assert.Equal(t, models.SyncActionField, last.ID, "source %s", source)
	}

	// Tags and admins are reference lists and carry no sync action field.
	for _, source := range []models.SourceType{models.SourceTags, models.SourceAdmins} {
		for _, f := range catalogs[source] {
			assert.NotEqual(t, models.SyncActionField, f.ID, "source %s", source)
		}
	}
}

// ABOUTME: Data models for the Intercom connector
// ABOUTME: Defines source types, accounts, filters, sync pages, and webhook registrations
package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies one of the Intercom data sources the connector
// can synchronize.
type SourceType string

const (
	SourceContacts      SourceType = "contacts"
	SourceCompanies     SourceType = "companies"
	SourceConversations SourceType = "conversations"
	SourceTags          SourceType = "tags"
	SourceAdmins        SourceType = "admins"
)

// AllSourceTypes lists every supported source in the order the connector
// advertises them.
var AllSourceTypes = []SourceType{
	SourceContacts,
	SourceCompanies,
	SourceConversations,
	SourceTags,
	SourceAdmins,
}

// Valid reports whether s names a supported source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceContacts, SourceCompanies, SourceConversations, SourceTags, SourceAdmins:
		return true
	}
	return false
}

// SyncAction tags an output record as an upsert or a tombstone.
const (
	SyncActionSet    = "SET"
	SyncActionRemove = "REMOVE"
)

// SyncActionField is the envelope key carrying the SyncAction on every
// delta or full record.
const SyncActionField = "__syncAction"

// Auth type identifiers.
const (
	AuthToken  = "token"
	AuthOAuth2 = "oauth2"
)

// Account holds the credentials and workspace identity of a validated
// Intercom account.
type Account struct {
	AccountID     string `json:"accountId"`
	Token         string `json:"token"`
	Auth          string `json:"auth,omitempty"`
	IntercomAppID string `json:"intercomAppId,omitempty"`
}

// Filter types supported by source filters.
const (
	FilterMultidropdown = "multidropdown"
	FilterDatebox       = "datebox"
)

// FilterField describes one filter a source supports.
type FilterField struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Datalist bool   `json:"datalist"`
}

// Filter carries the caller-supplied filter values for one sync request.
// Role is a multidropdown value list, UpdatedAt an ISO-8601 timestamp.
type Filter struct {
	Role      []string `json:"role,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// Pagination is the opaque continuation state for one source. Contacts and
// conversations use StartingAfter, companies use ScrollParam; tags and
// admins carry nothing.
type Pagination struct {
	StartingAfter string `json:"starting_after,omitempty"`
	ScrollParam   string `json:"scrollParam,omitempty"`
}

// Synchronization kinds.
const (
	SyncFull  = "full"
	SyncDelta = "delta"
)

// Record is a raw or formatted item. Formatted records always carry the
// __syncAction envelope key.
type Record = map[string]any

// PageInfo reports whether another page exists and how to request it.
// HasNext false implies NextPageConfig is nil.
type PageInfo struct {
	HasNext        bool        `json:"hasNext"`
	NextPageConfig *Pagination `json:"nextPageConfig,omitempty"`
}

// SyncPage is one page of a synchronization: items in upstream order, the
// continuation state, and the full/delta classification.
type SyncPage struct {
	Items               []Record `json:"items"`
	Pagination          PageInfo `json:"pagination"`
	SynchronizationType string   `json:"synchronizationType"`
}

// WebhookRegistration is a destination registered to receive relayed
// webhook events for a set of source types.
type WebhookRegistration struct {
	ID        uuid.UUID    `json:"hookId"`
	AppID     string       `json:"id"`
	URL       string       `json:"url"`
	Types     []SourceType `json:"types"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewWebhookRegistration creates a registration with a fresh id and current
// timestamps.
func NewWebhookRegistration(appID, url string, types []SourceType) *WebhookRegistration {
	now := time.Now().UTC()
	return &WebhookRegistration{
		ID:        uuid.New(),
		AppID:     appID,
		URL:       url,
		Types:     types,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasType reports whether the registration subscribes to any of the given
// source types.
func (w *WebhookRegistration) HasType(types []SourceType) bool {
	for _, t := range types {
		for _, own := range w.Types {
			if t == own {
				return true
			}
		}
	}
	return false
}

// SourceInfo is the connector-config metadata for one source type.
type SourceInfo struct {
	ID          SourceType `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Default     bool       `json:"default,omitempty"`
}

// Sources describes every source type the connector exposes.
var Sources = map[SourceType]SourceInfo{
	SourceContacts: {
		ID:          SourceContacts,
		Name:        "Contact",
		Description: "The Contacts source provides details on these contacts within Intercom, and will specify whether they are a user or lead through the role attribute",
		Default:     true,
	},
	SourceCompanies: {
		ID:          SourceCompanies,
		Name:        "Company",
		Description: "Companies allow you to represent organizations using your product.",
		Default:     true,
	},
	SourceConversations: {
		ID:          SourceConversations,
		Name:        "Conversation",
		Description: "Conversations are how you can communicate with users in Intercom. They are created when a contact replies to an outbound message, or when one admin directly sends a message to a single contact.",
		Default:     true,
	},
	SourceTags: {
		ID:          SourceTags,
		Name:        "Tag",
		Description: "A tag allows you to label your contacts and companies and list them using that tag.",
	},
	SourceAdmins: {
		ID:          SourceAdmins,
		Name:        "Teammate",
		Description: "Admins are the teammate accounts that have access to a workspace.",
		Default:     true,
	},
}

// Filter field ids.
const (
	FilterFieldRole      = "role"
	FilterFieldUpdatedAt = "updated_at"
)

// Filters describes the filter fields sources can reference.
var Filters = map[string]FilterField{
	FilterFieldRole: {
		ID:       FilterFieldRole,
		Title:    "Role",
		Type:     FilterMultidropdown,
		Optional: true,
		Datalist: true,
	},
	FilterFieldUpdatedAt: {
		ID:       FilterFieldUpdatedAt,
		Title:    "Updated After",
		Type:     FilterDatebox,
		Optional: true,
	},
}

// SourceFilters maps each source type to the filters it supports.
var SourceFilters = map[SourceType][]string{
	SourceContacts:      {FilterFieldRole, FilterFieldUpdatedAt},
	SourceCompanies:     {FilterFieldUpdatedAt},
	SourceConversations: {FilterFieldUpdatedAt},
}

// ABOUTME: Response and request types for the Intercom REST API
// ABOUTME: Item payloads stay as raw records; pagination metadata is structured
package intercom

import "github.com/tylercowie/intercomconnector/models"

// APIVersion is the Intercom API version the connector is built against.
// Accounts reporting a different version are rejected during validation.
const APIVersion = "2.2"

// PageCursor is the server-side cursor Intercom returns in pages.next for
// search endpoints.
type PageCursor struct {
	Page          int    `json:"page,omitempty"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// Pages is the pagination block on list/search responses. Next is absent on
// the last page.
type Pages struct {
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Next       *PageCursor `json:"next,omitempty"`
}

// SearchRequest is the body of contacts/search and conversations/search.
type SearchRequest struct {
	Pagination SearchPagination `json:"pagination"`
	Query      *Query           `json:"query,omitempty"`
}

// SearchPagination sets the page size and continuation cursor for a search.
type SearchPagination struct {
	PerPage       int    `json:"per_page"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// Query is an Intercom search query node: either a single field comparison
// or an operator combining nested queries.
type Query struct {
	Operator string `json:"operator,omitempty"`
	Field    string `json:"field,omitempty"`
	Value    any    `json:"value"`
}

// ContactsSearchResponse is the body of POST contacts/search.
type ContactsSearchResponse struct {
	Data  []models.Record `json:"data"`
	Pages Pages           `json:"pages"`
}

// ConversationsSearchResponse is the body of POST conversations/search.
type ConversationsSearchResponse struct {
	Conversations []models.Record `json:"conversations"`
	Pages         Pages           `json:"pages"`
}

// ScrollResponse is the body of GET companies/scroll. ScrollParam stays
// constant for the lifetime of one scroll.
type ScrollResponse struct {
	Data        []models.Record `json:"data"`
	ScrollParam string          `json:"scroll_param"`
}

// ContactCompaniesResponse is one page of a contact's companies relation.
type ContactCompaniesResponse struct {
	Data  []models.Record `json:"data"`
	Pages Pages           `json:"pages"`
}

// TagsResponse is the body of GET tags and GET contacts/{id}/tags.
type TagsResponse struct {
	Data []models.Record `json:"data"`
}

// AdminsResponse is the body of GET admins.
type AdminsResponse struct {
	Admins []models.Record `json:"admins"`
	Pages  *Pages          `json:"pages,omitempty"`
}

// Attribute is one entry of GET data_attributes: a standard or custom data
// attribute defined on the workspace.
type Attribute struct {
	FullName    string `json:"full_name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	DataType    string `json:"data_type"`
	Custom      bool   `json:"custom"`
}

// AttributesResponse is the body of GET data_attributes.
type AttributesResponse struct {
	Data []Attribute `json:"data"`
}

// Me is the body of GET me: the authenticated admin and their workspace.
type Me struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	App   struct {
		Name   string `json:"name"`
		IDCode string `json:"id_code"`
	} `json:"app"`
}

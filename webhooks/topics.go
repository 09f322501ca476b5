// ABOUTME: Static routing from Intercom webhook topics to delta builders
// ABOUTME: Each topic maps to one or more (source type, builder kind) entries
package webhooks

import "github.com/tylercowie/intercomconnector/models"

// builderKind selects the transformation that turns an event item into
// output records for one source type.
type builderKind int

const (
	// buildConversation re-fetches the conversation; event payloads lack
	// the chat history.
	buildConversation builderKind = iota + 1
	// buildConversationState patches id+state without a refetch.
	buildConversationState
	// buildTagsIDs patches the item's tag id list.
	buildTagsIDs
	// buildNewTags announces newly observed tag records verbatim.
	buildNewTags
	// buildCompany re-fetches the company; event payloads sometimes lack
	// the name.
	buildCompany
	// buildContact re-fetches the contact and completes truncated
	// relations.
	buildContact
	// buildEmail patches id+email.
	buildEmail
	// buildRemove emits a tombstone.
	buildRemove
)

// topicEntry is one routed delta builder for a topic.
type topicEntry struct {
	source models.SourceType
	kind   builderKind
	// idPath locates the entity id inside the event item.
	idPath string
	// tagsPath locates a tag list inside the event item; empty means the
	// single item.tag object.
	tagsPath string
	// swallowErrors logs and drops failures instead of propagating them.
	// Only the high-volume contact-created path is best-effort.
	swallowErrors bool
}

var topicTable = map[string][]topicEntry{
	"conversation.user.created": {
		{source: models.SourceConversations, kind: buildConversation, idPath: "id"},
	},
	"conversation.user.replied": {
		{source: models.SourceConversations, kind: buildConversation, idPath: "id"},
	},
	"conversation.admin.replied": {
		{source: models.SourceConversations, kind: buildConversation, idPath: "id"},
	},
	"conversation.admin.single.created": {
		{source: models.SourceConversations, kind: buildConversation, idPath: "id"},
	},
	"conversation.admin.closed": {
		{source: models.SourceConversations, kind: buildConversationState, idPath: "id"},
	},
	"conversation.admin.opened": {
		{source: models.SourceConversations, kind: buildConversationState, idPath: "id"},
	},
	"conversation.admin.snoozed": {
		{source: models.SourceConversations, kind: buildConversationState, idPath: "id"},
	},
	"conversation.admin.unsnoozed": {
		{source: models.SourceConversations, kind: buildConversationState, idPath: "id"},
	},
	"conversation_part.tag.created": {
		{source: models.SourceConversations, kind: buildTagsIDs, idPath: "id", tagsPath: "tags.tags"},
		{source: models.SourceTags, kind: buildNewTags, tagsPath: "tags_added.tags"},
	},
	"company.created": {
		{source: models.SourceCompanies, kind: buildCompany, idPath: "id"},
	},
	"contact.created": {
		{source: models.SourceContacts, kind: buildContact, idPath: "id", swallowErrors: true},
	},
	"user.created": {
		{source: models.SourceContacts, kind: buildContact, idPath: "id", swallowErrors: true},
	},
	"contact.tag.created": {
		{source: models.SourceContacts, kind: buildContact, idPath: "contact.id"},
		{source: models.SourceTags, kind: buildNewTags},
	},
	"user.tag.created": {
		{source: models.SourceContacts, kind: buildContact, idPath: "user.id"},
		{source: models.SourceTags, kind: buildNewTags},
	},
	"contact.tag.deleted": {
		{source: models.SourceContacts, kind: buildTagsIDs, idPath: "contact.id", tagsPath: "contact.tags.tags"},
	},
	"user.tag.deleted": {
		{source: models.SourceContacts, kind: buildTagsIDs, idPath: "user.id", tagsPath: "user.tags.tags"},
	},
	"user.deleted": {
		{source: models.SourceContacts, kind: buildRemove, idPath: "id"},
	},
	"user.email.updated": {
		{source: models.SourceContacts, kind: buildEmail, idPath: "id"},
	},
}

// handlersByTopic returns the routed entries for a topic. Unknown topics
// route nowhere; that is not an error.
func handlersByTopic(topic string) []topicEntry {
	return topicTable[topic]
}

// topicSourceTypes collects the distinct source types a topic feeds.
func topicSourceTypes(topic string) []models.SourceType {
	entries := handlersByTopic(topic)
	seen := make(map[models.SourceType]bool, len(entries))
	types := make([]models.SourceType, 0, len(entries))
	for _, e := range entries {
		if !seen[e.source] {
			seen[e.source] = true
			types = append(types, e.source)
		}
	}
	return types
}

// ABOUTME: Static per-source field catalogs for the Intercom connector
// ABOUTME: Contacts and companies are additionally enriched with workspace data attributes
package schema

import "github.com/tylercowie/intercomconnector/models"

const (
	contactLinkFormat      = "https://app.intercom.com/a/apps/%s/users/%s"
	conversationLinkFormat = "https://app.intercom.com/a/apps/%s/inbox/inbox/all/conversations/%s"
	companyLinkFormat      = "https://app.intercom.com/a/apps/%s/companies/%s"
)

func syncActionField() Field {
	return Field{
		ID:     models.SyncActionField,
		Type:   TypeText,
		Derive: &Derivation{Kind: DeriveConstant, Constant: models.SyncActionSet},
	}
}

// catalogs holds the statically defined fields per source type, in the
// order they are exposed before dynamic attributes are appended.
var catalogs = map[models.SourceType][]Field{
	models.SourceContacts: {
		{ID: "id", Type: TypeID},
		{ID: "name", Type: TypeText},
		{
			ID:          "companiesIds",
			Type:        TypeTextArray,
			Description: "The companies which the contact belongs to.",
			Derive:      &Derivation{Kind: DeriveRelationIDs, Path: "companies.data"},
			Relation: &Relation{
				Cardinality:   "many-to-many",
				Name:          "Companies",
				TargetName:    "Contacts",
				TargetType:    models.SourceCompanies,
				TargetFieldID: "id",
			},
		},
		{
			ID:          "tagsIds",
			Type:        TypeTextArray,
			Description: "The tags which have been added to the contact.",
			Derive:      &Derivation{Kind: DeriveRelationIDs, Path: "tags.data"},
			Relation: &Relation{
				Cardinality:   "many-to-many",
				Name:          "Tags",
				TargetName:    "Contacts",
				TargetType:    models.SourceTags,
				TargetFieldID: "id",
			},
		},
		{ID: "email", Type: TypeText, SubType: SubEmail},
		{ID: "location.country", Type: TypeText},
		{ID: "location.region", Type: TypeText},
		{ID: "location.city", Type: TypeText},
		{
			ID:          "intercomLink",
			Name:        "Intercom Link",
			Type:        TypeText,
			SubType:     SubURL,
			Description: "Link to original conversation",
			Derive:      &Derivation{Kind: DeriveAppLink, LinkFormat: contactLinkFormat},
		},
		{ID: "owner_id", Type: TypeID},
		{ID: "external_id", Type: TypeID},
		{ID: "phone", Type: TypeText},
		{ID: "created_at", Type: TypeDate},
		{ID: "signed_up_at", Type: TypeDate},
		{ID: "last_seen_at", Type: TypeDate},
		{ID: "last_contacted_at", Type: TypeDate},
		{ID: "last_replied_at", Type: TypeDate},
		{ID: "last_email_opened_at", Type: TypeDate},
		{ID: "last_email_clicked_at", Type: TypeDate},
		{ID: "browser_language", Type: TypeText},
		{ID: "language_override", Type: TypeText},
		{ID: "browser", Type: TypeText},
		{ID: "browser_version", Type: TypeText},
		{ID: "os", Type: TypeText},
		{ID: "unsubscribed_from_emails", Type: TypeText, SubType: SubBoolean},
		{ID: "marked_email_as_spam", Type: TypeText, SubType: SubBoolean},
		{ID: "has_hard_bounced", Type: TypeText, SubType: SubBoolean},
		{ID: "role", Type: TypeText},
		syncActionField(),
	},
	models.SourceConversations: {
		{ID: "id", Type: TypeID, Description: "The id representing the conversation."},
		{ID: "name", Type: TypeText, Derive: &Derivation{Kind: DeriveConversationName}},
		{
			ID:          "source.body",
			Name:        "Messages",
			Type:        TypeTextArray,
			SubType:     SubHTML,
			Description: "The message body, which may contain HTML. For Twitter, this will show a generic message regarding why the body is obscured.",
			Writable:    true,
		},
		{
			ID:          "contactsIds",
			Type:        TypeTextArray,
			Description: "The list of contacts (users or leads) involved in this conversation.",
			Derive:      &Derivation{Kind: DeriveRelationIDs, Path: "contacts.contacts"},
			Relation: &Relation{
				Cardinality:   "many-to-many",
				Name:          "Contacts",
				TargetName:    "Conversations",
				TargetType:    models.SourceContacts,
				TargetFieldID: "id",
			},
		},
		{
			ID:          "teammatesIds",
			Type:        TypeTextArray,
			Description: "The list of teammates who participated in the conversation (wrote at least one conversation part).",
			Derive:      &Derivation{Kind: DeriveRelationIDs, Path: "teammates.admins"},
			Relation: &Relation{
				Cardinality:   "many-to-many",
				Name:          "Teammates",
				TargetName:    "Conversations",
				TargetType:    models.SourceAdmins,
				TargetFieldID: "id",
			},
		},
		{
			ID:          "tagsIds",
			Type:        TypeTextArray,
			Description: "A list of tags associated with the conversation.",
			Derive:      &Derivation{Kind: DeriveRelationIDs, Path: "tags.tags"},
			Relation: &Relation{
				Cardinality:   "many-to-many",
				Name:          "Tags",
				TargetName:    "Conversations",
				TargetType:    models.SourceTags,
				TargetFieldID: "id",
			},
		},
		{ID: "state", Name: "State", Type: TypeText, Description: `Can be set to "open", "closed" or "snoozed".`, Important: true},
		{ID: "source.author.name", Name: "Author Name", Type: TypeText},
		{ID: "source.author.email", Name: "Author Email", Type: TypeText, SubType: SubEmail},
		{
			ID:          "intercomLink",
			Name:        "Intercom Link",
			Type:        TypeText,
			SubType:     SubURL,
			Description: "Link to original conversation",
			Derive:      &Derivation{Kind: DeriveAppLink, LinkFormat: conversationLinkFormat},
		},
		{
			ID:          "first_contact_reply.url",
			Name:        "First Contact Reply URL",
			Type:        TypeText,
			SubType:     SubURL,
			Description: "The URL where the first reply originated from. For Twitter and Email replies, this will be blank.",
		},
		{
			ID:          "source.subject",
			Name:        "Subject",
			Type:        TypeText,
			Description: "Optional. The message subject. For Twitter, this will show a generic message regarding why the subject is obscured.",
		},
		{ID: "read", Name: "Read", Type: TypeText, SubType: SubBoolean, Description: "Indicates whether a conversation has been read."},
		{
			ID:          "priority",
			Name:        "Priority",
			Type:        TypeText,
			SubType:     SubBoolean,
			Description: "If marked as priority, it will return priority or else not_priority.",
			Derive:      &Derivation{Kind: DerivePriority},
		},
		{
			ID:          "source.delivered_as",
			Name:        "Delivered As ",
			Type:        TypeText,
			Description: "Optional. The message subject. For Twitter, this will show a generic message regarding why.",
		},
		{ID: "created_at", Name: "Created At", Type: TypeDate, Description: "The time the conversation was created."},
		{ID: "statistics.first_contact_reply_at", Name: "First Contact Reply At", Type: TypeDate, Description: "Time of first text conversation part from a contact."},
		{ID: "statistics.first_admin_reply_at", Name: "First Admin Reply At", Type: TypeDate, Description: "Time of first admin reply after first_contact_reply_at."},
		{ID: "statistics.last_contact_reply_at", Name: "Last Contact Reply At", Type: TypeDate, Description: "Time of the last conversation part from a contact."},
		{ID: "statistics.last_admin_reply_at", Name: "Last Admin Reply At", Type: TypeDate, Description: "Time of the last conversation part from an admin."},
		{ID: "updated_at", Name: "Updated At", Type: TypeDate, Description: "The last time the conversation was updated."},
		{ID: "sla_applied.sla_name", Name: "SLA Name", Type: TypeText, Description: "The name of the SLA as given by the teammate when it was created."},
		{ID: "sla_applied.sla_status", Name: "SLA Status", Type: TypeText, Description: "One of “hit”, ”missed”, or “cancelled”."},
		{ID: "files", Type: TypeTextArray, SubType: SubFile},
		syncActionField(),
	},
	models.SourceCompanies: {
		{ID: "id", Type: TypeID},
		{ID: "name", Type: TypeText},
		{
			ID:          "tagsIds",
			Type:        TypeTextArray,
			Description: "A list of tags associated with the company.",
			Derive:      &Derivation{Kind: DeriveRelationIDs, Path: "tags.tags"},
			Relation: &Relation{
				Cardinality:   "many-to-many",
				Name:          "Tags",
				TargetName:    "Companies",
				TargetType:    models.SourceTags,
				TargetFieldID: "id",
			},
		},
		{ID: "user_count", Type: TypeNumber, SubType: SubInteger},
		{ID: "monthly_spend", Type: TypeNumber},
		{ID: "website", Type: TypeText, SubType: SubURL},
		{
			ID:          "intercomLink",
			Name:        "Intercom Link",
			Type:        TypeText,
			SubType:     SubURL,
			Description: "Link to original conversation",
			Derive:      &Derivation{Kind: DeriveAppLink, LinkFormat: companyLinkFormat},
		},
		{ID: "last_request_at", Type: TypeDate},
		{ID: "created_at", Type: TypeDate},
		{ID: "session_count", Type: TypeNumber, SubType: SubInteger},
		{ID: "plan.name", Type: TypeText},
		{ID: "size", Type: TypeNumber, SubType: SubInteger},
		{ID: "industry", Type: TypeText},
		{ID: "company_id", Type: TypeID},
		{ID: "remote_created_at", Type: TypeDate},
		{ID: "updated_at", Type: TypeDate},
		syncActionField(),
	},
	models.SourceTags: {
		{ID: "id", Type: TypeID},
		{ID: "name", Type: TypeText},
	},
	models.SourceAdmins: {
		{ID: "id", Type: TypeID},
		{ID: "name", Type: TypeText},
		{ID: "email", Name: "Email", Type: TypeText, SubType: SubEmail, Description: "The email address of the admin"},
		{ID: "job_title", Name: "Job Title", Type: TypeText, Description: "The job title of the admin"},
		{ID: "away_mode_enabled", Name: "Away Mode Enabled", Type: TypeText, SubType: SubBoolean, Description: "Identifies if this admin is currently set in away mode."},
		{ID: "away_mode_reassign", Name: "Away Mode Reassign", Type: TypeText, SubType: SubBoolean, Description: "Identifies if this admin is set to automatically reassign new conversations to the apps default inbox."},
		{ID: "has_inbox_seat", Name: "Has Inbox Seat", Type: TypeText, SubType: SubBoolean, Description: "Identifies if a teammate has a paid inbox seat to restrict/allow features that require them"},
	},
}

// attributeModels maps the source types with dynamic attributes to the
// Intercom data-attribute model name used to fetch them.
var attributeModels = map[models.SourceType]string{
	models.SourceContacts:  "contact",
	models.SourceCompanies: "company",
}

// typeMapping translates Intercom attribute data types to schema value
// types. Unknown upstream types are dropped.
var typeMapping = map[string]Field{
	"string":  {Type: TypeText},
	"integer": {Type: TypeNumber, SubType: SubInteger},
	"float":   {Type: TypeNumber},
	"boolean": {Type: TypeText, SubType: SubBoolean},
	"date":    {Type: TypeDate},
}

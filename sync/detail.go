// ABOUTME: Conversation hydration: ordered HTML message blocks and stable resource refs
// ABOUTME: Expiring CDN image URLs are rewritten to internally addressable proxy URLs
package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tylercowie/intercomconnector/models"
)

// expiringImageHost serves Intercom's short-lived signed image URLs.
const expiringImageHost = "downloads.intercomcdn.com"

// DetailedConversation re-fetches a conversation and reduces its source
// message and parts to an ordered list of rendered HTML blocks, one per
// contributing author, chronologically. Attachments become opaque resource
// references.
func (s *Service) DetailedConversation(ctx context.Context, account models.Account, id string) (models.Record, error) {
	detailed, err := s.api.FetchConversation(ctx, account.Token, id)
	if err != nil {
		return nil, err
	}

	source, _ := detailed["source"].(map[string]any)

	var messages []any
	if body, _ := source["body"].(string); body != "" {
		messages = append(messages, s.buildConversationPart(source, id, "", account.AccountID))
	}

	files := attachmentRefs(id, "", source["attachments"])

	parts := conversationParts(detailed)
	for _, entry := range parts {
		part, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		partID, _ := part["id"].(string)
		if body, _ := part["body"].(string); body != "" {
			messages = append(messages, s.buildConversationPart(part, id, partID, account.AccountID))
		}
		files = append(files, attachmentRefs(id, partID, part["attachments"])...)
	}

	hydratedSource := models.Record{}
	for k, v := range source {
		hydratedSource[k] = v
	}
	hydratedSource["body"] = messages

	detailed["source"] = map[string]any(hydratedSource)
	detailed["files"] = files
	return detailed, nil
}

// buildConversationPart renders one message block: an author heading
// followed by the body with expiring image URLs replaced.
func (s *Service) buildConversationPart(part map[string]any, conversationID, partID, accountID string) string {
	name := "Unknown"
	if author, ok := part["author"].(map[string]any); ok {
		if n, _ := author["name"].(string); n != "" {
			name = n
		}
	}
	body, _ := part["body"].(string)
	replacement := imageURL(s.publicURL, conversationID, partID, accountID)
	return fmt.Sprintf("<p><b>%s:</b></p>%s", name, rewriteExpiringImages(body, replacement))
}

func conversationParts(conversation models.Record) []any {
	wrapper, ok := conversation["conversation_parts"].(map[string]any)
	if !ok {
		return nil
	}
	parts, _ := wrapper["conversation_parts"].([]any)
	return parts
}

// imageURL builds the internal proxy URL that re-resolves an expiring
// conversation image on demand.
func imageURL(publicURL, conversationID, partID, accountID string) string {
	base := fmt.Sprintf("%s/api/v1/conversation/%s", publicURL, conversationID)
	if partID != "" {
		base += "/" + partID
	}
	return base + "/img?accountId=" + url.QueryEscape(accountID)
}

// attachmentRefs converts upstream attachments into app://resource
// references addressed by (conversation, part, attachment path).
func attachmentRefs(conversationID, partID string, attachments any) []any {
	list, _ := attachments.([]any)
	refs := make([]any, 0, len(list))
	for _, entry := range list {
		att, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rawURL, _ := att["url"].(string)
		parsed, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		params := url.Values{}
		params.Set("id", conversationID)
		params.Set("pathname", parsed.Path)
		if partID != "" {
			params.Set("partId", partID)
		}
		refs = append(refs, "app://resource?"+params.Encode())
	}
	return refs
}

// rewriteExpiringImages replaces the src of every img pointing at the
// expiring CDN with the given replacement URL. Bodies that fail to parse
// or contain no such image pass through unchanged.
func rewriteExpiringImages(body, replacement string) string {
	if !strings.Contains(body, expiringImageHost) {
		return body
	}
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(body), parent)
	if err != nil {
		return body
	}
	changed := false
	for _, n := range nodes {
		if rewriteImageNodes(n, replacement) {
			changed = true
		}
	}
	if !changed {
		return body
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return body
		}
	}
	return buf.String()
}

func rewriteImageNodes(n *html.Node, replacement string) bool {
	changed := false
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for i, attr := range n.Attr {
			if attr.Key == "src" && isExpiringImageURL(attr.Val) {
				n.Attr[i].Val = replacement
				changed = true
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if rewriteImageNodes(child, replacement) {
			changed = true
		}
	}
	return changed
}

func isExpiringImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" && u.Host == expiringImageHost && u.Query().Get("expires") != ""
}

// extractExpiringImageURL finds the first expiring CDN image in an HTML
// body, for the lazy re-resolution done by the image proxy.
func extractExpiringImageURL(body string) string {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(body), parent)
	if err != nil {
		return ""
	}
	var found string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			for _, attr := range n.Attr {
				if attr.Key == "src" && isExpiringImageURL(attr.Val) {
					found = attr.Val
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return found
}

// ResourceParams addresses one attachment inside a conversation.
type ResourceParams struct {
	ID       string `json:"id"`
	PartID   string `json:"partId,omitempty"`
	Pathname string `json:"pathname"`
}

// ConversationImage re-fetches a conversation and streams the first
// expiring image of the addressed message body.
func (s *Service) ConversationImage(ctx context.Context, account models.Account, id, partID string) (io.ReadCloser, error) {
	body, _, err := s.conversationSection(ctx, account, id, partID)
	if err != nil {
		return nil, err
	}

	imgURL := extractExpiringImageURL(body)
	if imgURL == "" {
		return nil, models.NotFound("No images found in conversation body")
	}

	reader, _, err := s.api.Stream(ctx, imgURL)
	return reader, err
}

// Resource re-fetches a conversation and streams the attachment addressed
// by the given pathname.
func (s *Service) Resource(ctx context.Context, account models.Account, params ResourceParams) (io.ReadCloser, error) {
	if params.ID == "" || params.Pathname == "" {
		return nil, models.BadRequest("Either id or pathname of file is missing")
	}

	_, attachments, err := s.conversationSection(ctx, account, params.ID, params.PartID)
	if err != nil {
		return nil, err
	}

	for _, entry := range attachments {
		att, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rawURL, _ := att["url"].(string)
		if parsed, err := url.Parse(rawURL); err == nil && parsed.Path == params.Pathname {
			reader, _, err := s.api.Stream(ctx, rawURL)
			return reader, err
		}
	}
	return nil, models.NotFound("Attachment with pathname: %s for conversation: %s was not found", params.Pathname, params.ID)
}

// conversationSection returns the body and attachments of either the
// source message or the addressed conversation part.
func (s *Service) conversationSection(ctx context.Context, account models.Account, id, partID string) (string, []any, error) {
	conversation, err := s.api.FetchConversation(ctx, account.Token, id)
	if err != nil {
		return "", nil, err
	}

	var section map[string]any
	if partID == "" {
		section, _ = conversation["source"].(map[string]any)
	} else {
		for _, entry := range conversationParts(conversation) {
			if part, ok := entry.(map[string]any); ok && part["id"] == partID {
				section = part
				break
			}
		}
	}
	if section == nil {
		return "", nil, nil
	}

	body, _ := section["body"].(string)
	attachments, _ := section["attachments"].([]any)
	return body, attachments, nil
}

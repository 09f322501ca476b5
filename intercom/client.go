// ABOUTME: Typed HTTP client for the Intercom REST API
// ABOUTME: One function per endpoint with automatic retries on transient failures
package intercom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tylercowie/intercomconnector/models"
)

// APIError is a non-2xx response from Intercom, with the first error entry
// of the response body extracted when present.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("intercom: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("intercom: status=%d message=%s", e.StatusCode, e.Message)
}

// TransformError maps an upstream failure to the closest StatusError for
// callers: APIError keeps its status and extracted message, StatusError
// passes through, anything else becomes a generic 500.
func TransformError(err error) error {
	var se *models.StatusError
	if errors.As(err, &se) {
		return se
	}
	var ae *APIError
	if errors.As(err, &ae) {
		msg := ae.Message
		if msg == "" {
			msg = "Unknown Error"
		}
		return &models.StatusError{Status: ae.StatusCode, Message: msg}
	}
	return &models.StatusError{Status: http.StatusInternalServerError, Message: models.ErrorMessage(err)}
}

// ClientOptions configures a Client. Zero values fall back to production
// defaults.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     *slog.Logger
}

// Client calls the Intercom REST API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.intercom.io"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		logger:     logger,
	}
}

type request struct {
	method       string
	path         string
	token        string
	searchParams url.Values
	body         any
}

// do runs one API request with retries and decodes a 2xx JSON body into out.
// Response headers are returned for callers that inspect them.
func (c *Client) do(ctx context.Context, req request, out any) (http.Header, error) {
	var bodyBytes []byte
	if req.body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	u := c.baseURL + "/" + strings.TrimPrefix(req.path, "/")
	if len(req.searchParams) > 0 {
		u += "?" + req.searchParams.Encode()
	}

	for attempt := 0; ; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, req.method, u, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
		httpReq.Header.Set("Accept", "application/json")
		if req.body != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("intercom request", "method", req.method, "url", u, "attempt", attempt)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if attempt < c.maxRetries {
				c.logger.Warn("intercom request retry", "method", req.method, "url", u, "error", err)
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out != nil {
				if err := json.Unmarshal(respBody, out); err != nil {
					return nil, fmt.Errorf("failed to decode response from %s: %w", req.path, err)
				}
			}
			return resp.Header, nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.maxRetries {
			c.logger.Warn("intercom request retry", "method", req.method, "url", u, "status", resp.StatusCode)
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var parsed struct {
			Errors []struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"errors"`
		}
		if json.Unmarshal(respBody, &parsed) == nil && len(parsed.Errors) > 0 {
			apiErr.Code = parsed.Errors[0].Code
			if msg := strings.TrimSpace(parsed.Errors[0].Message); msg != "" {
				apiErr.Message = msg
			}
		}
		c.logger.Error("intercom request failed", "method", req.method, "url", u, "status", resp.StatusCode)
		return nil, apiErr
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetMe fetches the authenticated admin. The response headers are returned
// so callers can check the Intercom-Version the account runs on.
func (c *Client) GetMe(ctx context.Context, token string) (*Me, http.Header, error) {
	var me Me
	headers, err := c.do(ctx, request{method: http.MethodGet, path: "me", token: token}, &me)
	if err != nil {
		return nil, nil, err
	}
	return &me, headers, nil
}

// SearchContacts runs POST contacts/search.
func (c *Client) SearchContacts(ctx context.Context, token string, req SearchRequest) (*ContactsSearchResponse, error) {
	var out ContactsSearchResponse
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "contacts/search", token: token, body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchConversations runs POST conversations/search.
func (c *Client) SearchConversations(ctx context.Context, token string, req SearchRequest) (*ConversationsSearchResponse, error) {
	var out ConversationsSearchResponse
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "conversations/search", token: token, body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScrollCompanies fetches one page of the companies scroll. An empty
// scrollParam starts a new scroll.
func (c *Client) ScrollCompanies(ctx context.Context, token, scrollParam string) (*ScrollResponse, error) {
	params := url.Values{}
	if scrollParam != "" {
		params.Set("scroll_param", scrollParam)
	}
	var out ScrollResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "companies/scroll", token: token, searchParams: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchCompany fetches a single company by id.
func (c *Client) FetchCompany(ctx context.Context, token, id string) (models.Record, error) {
	var out models.Record
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "companies/" + id, token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchContact fetches a single contact by id.
func (c *Client) FetchContact(ctx context.Context, token, id string) (models.Record, error) {
	var out models.Record
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "contacts/" + id, token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchContactCompanies fetches one page of a contact's companies relation.
func (c *Client) FetchContactCompanies(ctx context.Context, token, id string, perPage, page int) (*ContactCompaniesResponse, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	var out ContactCompaniesResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "contacts/" + id + "/companies", token: token, searchParams: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchConversation fetches a single conversation with its full part list.
func (c *Client) FetchConversation(ctx context.Context, token, id string) (models.Record, error) {
	var out models.Record
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "conversations/" + id, token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAttributes fetches the workspace data attributes for a model
// ("contact" or "company").
func (c *Client) ListAttributes(ctx context.Context, token, model string) (*AttributesResponse, error) {
	params := url.Values{}
	params.Set("model", model)
	var out AttributesResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "data_attributes", token: token, searchParams: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTags fetches all workspace tags.
func (c *Client) ListTags(ctx context.Context, token string) (*TagsResponse, error) {
	var out TagsResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "tags", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListContactTags fetches all tags attached to a contact.
func (c *Client) ListContactTags(ctx context.Context, token, id string) (*TagsResponse, error) {
	var out TagsResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "contacts/" + id + "/tags", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAdmins fetches all workspace admins.
func (c *Client) ListAdmins(ctx context.Context, token string) (*AdminsResponse, error) {
	var out AdminsResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "admins", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stream issues a plain GET against an absolute URL (used to proxy expiring
// CDN resources) and returns the response body for streaming.
func (c *Client) Stream(ctx context.Context, rawURL string) (io.ReadCloser, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return resp.Body, resp.Header, nil
}

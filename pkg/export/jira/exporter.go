// Package jira is the built-in reference exporter. It creates one jira issue
// per action item through the v3 REST API, resolving the issue reporter from
// the configured mode with a fallback to the API token's own identity.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/audit"
	"github.com/castellan-sec/castellan/pkg/export"
	"github.com/castellan-sec/castellan/pkg/server/store"
	"github.com/castellan-sec/castellan/pkg/transport"
)

// Key is the exporter's registry key and dedup partition.
const Key = "jira"

// Reporter resolution modes
const (
	ReporterModeTokenUser = "jira-token-user"
	ReporterModeReviewer  = "reviewer-as-reporter"
)

// Exporter pushes action items to a jira project.
type Exporter struct {
	config  Config
	reviews store.ReviewsStore
	client  *http.Client

	mu             sync.Mutex
	tokenAccountID string
}

var _ export.ActionItemExporter = (*Exporter)(nil)

// New creates a jira Exporter. reviews is consulted only in
// reviewer-as-reporter mode and may be nil otherwise.
func New(config Config, reviews store.ReviewsStore) (*Exporter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	client, err := transport.NewClient(config.ProxyURL, 0)
	if err != nil {
		return nil, err
	}
	if config.ReporterMode == ReporterModeReviewer && reviews == nil {
		return nil, fmt.Errorf("jira: reviewer-as-reporter mode needs a reviews store")
	}
	return &Exporter{config: config, reviews: reviews, client: client}, nil
}

func (e *Exporter) Key() string {
	return Key
}

func (e *Exporter) TriggersOnApproval() bool {
	return e.config.ExportOnApproval
}

// ExportItem creates a jira issue for the action item and returns the issue
// key and browse URL. The translation hook runs before reporter resolution:
// a hook-set reporter wins and no lookup round-trips are made for it.
func (e *Exporter) ExportItem(ctx context.Context, item export.ActionItem) (export.ExternalRef, error) {
	fields := e.issueFields(item)
	if e.config.TranslateFields != nil {
		e.config.TranslateFields(item, fields)
	}

	if _, ok := fields["reporter"]; !ok {
		reporter, err := e.resolveReporter(ctx, item.ModelID)
		if err != nil {
			return export.ExternalRef{}, err
		}
		if reporter != "" {
			fields["reporter"] = map[string]string{"id": reporter}
		}
	}

	issue, err := e.createIssue(ctx, fields)
	if err != nil {
		return export.ExternalRef{}, err
	}

	return export.ExternalRef{
		ID:  issue.Key,
		URL: e.baseURL() + "/browse/" + issue.Key,
	}, nil
}

// resolveReporter returns the reporter account id, or "" to leave the field
// unset. An explicit reporter wins; reviewer-as-reporter looks the reviewer
// up by email and falls back to the token identity when that fails, since a
// wrong reporter should never block an export.
func (e *Exporter) resolveReporter(ctx context.Context, modelID uuid.UUID) (string, error) {
	if e.config.Reporter != "" {
		return e.config.Reporter, nil
	}

	if e.config.ReporterMode == ReporterModeReviewer {
		accountID, err := e.reviewerAccountID(ctx, modelID)
		if err == nil {
			return accountID, nil
		}
		audit.Log(audit.ReporterFallbackEvent{
			ExporterKey: Key,
			ModelID:     modelID.String(),
			Reason:      err.Error(),
		})
	}

	return e.tokenUserAccountID(ctx)
}

func (e *Exporter) reviewerAccountID(ctx context.Context, modelID uuid.UUID) (string, error) {
	review, err := e.reviews.GetByModelID(modelID)
	if err != nil {
		return "", fmt.Errorf("looking up review: %w", err)
	}
	if review.ReviewedBy == "" {
		return "", errors.New("review has no reviewer")
	}

	var users []jiraUser
	query := url.Values{"query": {review.ReviewedBy}}
	if err := e.get(ctx, "/rest/api/3/user/search?"+query.Encode(), &users); err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("no jira user matches %s", review.ReviewedBy)
	}
	return users[0].AccountID, nil
}

// tokenUserAccountID resolves and caches the API token's own account id.
func (e *Exporter) tokenUserAccountID(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tokenAccountID != "" {
		return e.tokenAccountID, nil
	}

	var me jiraUser
	if err := e.get(ctx, "/rest/api/3/myself", &me); err != nil {
		return "", err
	}
	e.tokenAccountID = me.AccountID
	return me.AccountID, nil
}

func (e *Exporter) issueFields(item export.ActionItem) map[string]interface{} {
	fields := map[string]interface{}{
		"project":     map[string]string{"id": e.config.ProjectID},
		"issuetype":   map[string]string{"id": e.config.IssueTypeID},
		"summary":     item.Title,
		"description": e.description(item),
	}
	if len(e.config.Labels) > 0 {
		fields["labels"] = e.config.Labels
	}
	if priorityID, ok := e.config.PriorityIDs[item.Severity]; ok {
		fields["priority"] = map[string]string{"id": priorityID}
	}
	return fields
}

// description renders the item as an Atlassian Document Format doc: the
// threat description, component, severity, the control list, and a backlink
// to the model when an origin is configured.
func (e *Exporter) description(item export.ActionItem) map[string]interface{} {
	var content []map[string]interface{}

	if item.Description != "" {
		content = append(content, paragraph(item.Description))
	}
	content = append(content,
		paragraph("Component: "+item.ComponentName),
		paragraph("Severity: "+string(item.Severity)),
	)
	for _, control := range item.Controls {
		status := "proposed"
		if control.InPlace {
			status = "in place"
		}
		content = append(content, paragraph(fmt.Sprintf("Mitigation (%s): %s", status, control.Title)))
	}
	if e.config.Origin != "" {
		content = append(content, paragraph("Threat model: "+e.config.Origin+"/model/"+item.ModelID.String()))
	}

	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}

func paragraph(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "paragraph",
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}
}

type jiraIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type jiraUser struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

// createIssue POSTs the issue and expects a 201; anything else surfaces as
// an ExternalAPIError carrying the remote body.
func (e *Exporter) createIssue(ctx context.Context, fields map[string]interface{}) (*jiraIssue, error) {
	body, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return nil, err
	}

	req, err := e.newRequest(ctx, http.MethodPost, "/rest/api/3/issue", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("create issue", resp)
	}

	var issue jiraIssue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, fmt.Errorf("decoding create issue response: %w", err)
	}
	return &issue, nil
}

func (e *Exporter) get(ctx context.Context, path string, out interface{}) error {
	req, err := e.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("GET "+strings.SplitN(path, "?", 2)[0], resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (e *Exporter) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, e.baseURL()+path, body)
	if err != nil {
		return nil, err
	}

	user, err := e.config.User.Value()
	if err != nil {
		return nil, err
	}
	token, err := e.config.APIToken.Value()
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(user, token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// baseURL normalizes the configured host to an https URL without a trailing
// slash. Hosts are commonly configured bare, like "example.atlassian.net".
func (e *Exporter) baseURL() string {
	host := strings.TrimSuffix(e.config.Host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &export.ExternalAPIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

package jira

import (
	"fmt"

	"github.com/castellan-sec/castellan/pkg/export"
	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/secrets"
)

// TranslateFields customizes the issue fields before creation. It runs after
// the default fields are assembled but before the reporter is resolved, and
// may add, override or delete any field; a reporter it sets is kept as-is and
// skips resolution. Installations use it for custom fields their project
// requires.
type TranslateFields func(item export.ActionItem, fields map[string]interface{})

// Config holds everything the jira exporter needs. Credentials are Secrets
// so they resolve on first export, not at startup.
type Config struct {
	// Host is the jira instance, with or without scheme.
	Host string

	// ProjectID is the project issues are created in.
	ProjectID string

	// IssueTypeID is the issue type for exported action items.
	IssueTypeID string

	// User and APIToken authenticate every jira API call via basic auth.
	User     secrets.Secret
	APIToken secrets.Secret

	// Reporter, when set, is used as the issue reporter account id and no
	// resolution happens.
	Reporter string

	// ReporterMode selects how the reporter is resolved when Reporter is
	// empty: "jira-token-user" (default) or "reviewer-as-reporter".
	ReporterMode string

	// ExportOnApproval registers the exporter for the approval trigger.
	ExportOnApproval bool

	// Origin is the externally visible base URL used for the backlink in
	// issue descriptions. Empty omits the backlink.
	Origin string

	// ProxyURL routes jira API calls through an egress proxy.
	ProxyURL string

	// Labels are attached to every created issue.
	Labels []string

	// PriorityIDs maps action item severities to jira priority ids. Missing
	// severities leave the project default priority in place.
	PriorityIDs map[model.Severity]string

	// TranslateFields optionally post-processes the issue fields.
	TranslateFields TranslateFields
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("jira: host is required")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("jira: project id is required")
	}
	if c.IssueTypeID == "" {
		return fmt.Errorf("jira: issue type id is required")
	}
	if c.User == nil || c.APIToken == nil {
		return fmt.Errorf("jira: user and api token secrets are required")
	}
	switch c.ReporterMode {
	case "", ReporterModeTokenUser, ReporterModeReviewer:
	default:
		return fmt.Errorf("jira: invalid reporter mode %q", c.ReporterMode)
	}
	return nil
}

package audit

import "fmt"

// ReviewEvent represents a review decision audit event
type ReviewEvent struct {
	User         string
	ClientIP     string
	ModelID      string
	Decision     string // "approve" or "decline"
	Success      bool
	ErrorMessage string
}

func (e ReviewEvent) MessageID() string {
	return "review"
}

func (e ReviewEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %sd review for model %s", e.User, e.Decision, e.ModelID)
	}
	msg := fmt.Sprintf("%s tried to %s review for model %s", e.User, e.Decision, e.ModelID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ReviewEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ReviewEvent) Facility() int {
	return FacilityAuth
}

func (e ReviewEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDSubject: {
			"model": e.ModelID,
		},
		SDIDClient: {
			"ip":   e.ClientIP,
			"user": e.User,
		},
		SDIDAction: {
			"operation": e.Decision,
			"result":    result,
		},
	}
}

// Export item outcomes
const (
	ExportOutcomeExported = "exported"
	ExportOutcomeSkipped  = "skipped"
	ExportOutcomeFailed   = "failed"
)

// ExportItemEvent represents the outcome of one action item export attempt
type ExportItemEvent struct {
	ExporterKey  string
	ActionItemID string
	ModelID      string
	ExternalID   string
	Outcome      string
	ErrorMessage string
}

func (e ExportItemEvent) MessageID() string {
	return "export-item"
}

func (e ExportItemEvent) Message() string {
	switch e.Outcome {
	case ExportOutcomeExported:
		return fmt.Sprintf("exporter %s exported action item %s as %s", e.ExporterKey, e.ActionItemID, e.ExternalID)
	case ExportOutcomeSkipped:
		return fmt.Sprintf("exporter %s skipped action item %s: already exported", e.ExporterKey, e.ActionItemID)
	default:
		msg := fmt.Sprintf("exporter %s failed to export action item %s", e.ExporterKey, e.ActionItemID)
		if e.ErrorMessage != "" {
			msg += ": " + e.ErrorMessage
		}
		return msg
	}
}

func (e ExportItemEvent) Severity() Severity {
	if e.Outcome == ExportOutcomeFailed {
		return SeverityError
	}
	return SeverityInfo
}

func (e ExportItemEvent) Facility() int {
	return FacilityUser
}

func (e ExportItemEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"action_item": e.ActionItemID,
			"model":       e.ModelID,
		},
		SDIDExport: {
			"exporter": e.ExporterKey,
			"outcome":  e.Outcome,
		},
	}
	if e.ExternalID != "" {
		sd[SDIDExport]["external_id"] = e.ExternalID
	}
	return sd
}

// ExportBatchEvent summarizes one export fan-out for a trigger event
type ExportBatchEvent struct {
	ExporterKey string
	ModelID     string
	Items       int
	Failed      int
}

func (e ExportBatchEvent) MessageID() string {
	return "export-batch"
}

func (e ExportBatchEvent) Message() string {
	if e.Failed == 0 {
		return fmt.Sprintf("exporter %s processed %d action items for model %s", e.ExporterKey, e.Items, e.ModelID)
	}
	return fmt.Sprintf("exporter %s processed %d action items for model %s, %d failed", e.ExporterKey, e.Items, e.ModelID, e.Failed)
}

func (e ExportBatchEvent) Severity() Severity {
	if e.Failed > 0 {
		return SeverityWarning
	}
	return SeverityInfo
}

func (e ExportBatchEvent) Facility() int {
	return FacilityUser
}

func (e ExportBatchEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"model": e.ModelID,
		},
		SDIDExport: {
			"exporter": e.ExporterKey,
			"items":    fmt.Sprintf("%d", e.Items),
			"failed":   fmt.Sprintf("%d", e.Failed),
		},
	}
}

// ReporterFallbackEvent records a reporter resolution falling back to the
// token identity, which is operationally interesting but not an error.
type ReporterFallbackEvent struct {
	ExporterKey string
	ModelID     string
	Reason      string
}

func (e ReporterFallbackEvent) MessageID() string {
	return "reporter-fallback"
}

func (e ReporterFallbackEvent) Message() string {
	return fmt.Sprintf("exporter %s fell back to token identity as reporter for model %s: %s", e.ExporterKey, e.ModelID, e.Reason)
}

func (e ReporterFallbackEvent) Severity() Severity {
	return SeverityNotice
}

func (e ReporterFallbackEvent) Facility() int {
	return FacilityUser
}

func (e ReporterFallbackEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"model": e.ModelID,
		},
		SDIDExport: {
			"exporter": e.ExporterKey,
			"reason":   e.Reason,
		},
	}
}

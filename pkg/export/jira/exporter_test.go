package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castellan-sec/castellan/pkg/export"
	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/secrets"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

type stubReviewsStore struct {
	review *store.Review
	err    error
}

func (s *stubReviewsStore) GetByModelID(modelID uuid.UUID) (*store.Review, error) {
	return s.review, s.err
}

func (s *stubReviewsStore) Create(review *store.Review) error { return nil }

func (s *stubReviewsStore) Decide(modelID uuid.UUID, status model.ReviewStatus, reviewedBy, note string) (bool, error) {
	return false, nil
}

// jiraStub fakes the three API endpoints the exporter touches.
type jiraStub struct {
	*httptest.Server

	myselfCalls  atomic.Int32
	myselfStatus int
	searchUsers  []jiraUser
	createStatus int
	createBody   string
	lastIssue    map[string]interface{}
}

func newJiraStub(t *testing.T) *jiraStub {
	t.Helper()
	stub := &jiraStub{createStatus: http.StatusCreated}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		stub.myselfCalls.Add(1)
		if stub.myselfStatus != 0 {
			w.WriteHeader(stub.myselfStatus)
			return
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "bot@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(jiraUser{AccountID: "token-account"})
	})
	mux.HandleFunc("/rest/api/3/user/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(stub.searchUsers)
	})
	mux.HandleFunc("/rest/api/3/issue", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields map[string]interface{} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		stub.lastIssue = payload.Fields
		w.WriteHeader(stub.createStatus)
		if stub.createStatus == http.StatusCreated {
			json.NewEncoder(w).Encode(jiraIssue{ID: "10001", Key: "SEC-42"})
		} else {
			w.Write([]byte(stub.createBody))
		}
	})

	stub.Server = httptest.NewServer(mux)
	t.Cleanup(stub.Close)
	return stub
}

func stubConfig(stub *jiraStub) Config {
	return Config{
		Host:        stub.URL,
		ProjectID:   "10000",
		IssueTypeID: "10002",
		User:        secrets.Static("bot@example.com"),
		APIToken:    secrets.Static("token"),
	}
}

func testItem() export.ActionItem {
	return export.ActionItem{
		ID:            uuid.New(),
		ModelID:       uuid.New(),
		ComponentName: "Auth API",
		Title:         "Credential stuffing against login",
		Description:   "Automated login attempts using breached credentials.",
		Severity:      model.SeverityHigh,
		Controls:      []store.Control{{Title: "Rate limiting", InPlace: true}},
	}
}

func TestExporter_ExportItem(t *testing.T) {
	t.Run("creates an issue and returns its reference", func(t *testing.T) {
		stub := newJiraStub(t)
		exporter, err := New(stubConfig(stub), nil)
		require.NoError(t, err)

		ref, err := exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Equal(t, "SEC-42", ref.ID)
		assert.Equal(t, stub.URL+"/browse/SEC-42", ref.URL)

		assert.Equal(t, map[string]interface{}{"id": "10000"}, stub.lastIssue["project"])
		assert.Equal(t, map[string]interface{}{"id": "10002"}, stub.lastIssue["issuetype"])
		assert.Equal(t, "Credential stuffing against login", stub.lastIssue["summary"])
		assert.Equal(t, map[string]interface{}{"id": "token-account"}, stub.lastIssue["reporter"])
	})

	t.Run("caches the token user lookup", func(t *testing.T) {
		stub := newJiraStub(t)
		exporter, err := New(stubConfig(stub), nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())
		require.NoError(t, err)
		_, err = exporter.ExportItem(context.Background(), testItem())
		require.NoError(t, err)

		assert.Equal(t, int32(1), stub.myselfCalls.Load())
	})

	t.Run("an explicit reporter skips resolution", func(t *testing.T) {
		stub := newJiraStub(t)
		config := stubConfig(stub)
		config.Reporter = "explicit-account"
		exporter, err := New(config, nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Zero(t, stub.myselfCalls.Load())
		assert.Equal(t, map[string]interface{}{"id": "explicit-account"}, stub.lastIssue["reporter"])
	})

	t.Run("reviewer-as-reporter resolves the reviewer account", func(t *testing.T) {
		stub := newJiraStub(t)
		stub.searchUsers = []jiraUser{{AccountID: "reviewer-account", EmailAddress: "reviewer@example.com"}}
		config := stubConfig(stub)
		config.ReporterMode = ReporterModeReviewer
		reviews := &stubReviewsStore{review: &store.Review{ReviewedBy: "reviewer@example.com"}}
		exporter, err := New(config, reviews)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": "reviewer-account"}, stub.lastIssue["reporter"])
	})

	t.Run("falls back to the token user when the reviewer is unknown to jira", func(t *testing.T) {
		stub := newJiraStub(t)
		stub.searchUsers = nil
		config := stubConfig(stub)
		config.ReporterMode = ReporterModeReviewer
		reviews := &stubReviewsStore{review: &store.Review{ReviewedBy: "reviewer@example.com"}}
		exporter, err := New(config, reviews)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": "token-account"}, stub.lastIssue["reporter"])
	})

	t.Run("falls back to the token user when the model has no review", func(t *testing.T) {
		stub := newJiraStub(t)
		config := stubConfig(stub)
		config.ReporterMode = ReporterModeReviewer
		reviews := &stubReviewsStore{err: store.ErrReviewNotFound}
		exporter, err := New(config, reviews)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": "token-account"}, stub.lastIssue["reporter"])
	})

	t.Run("maps severities to priorities when configured", func(t *testing.T) {
		stub := newJiraStub(t)
		config := stubConfig(stub)
		config.PriorityIDs = map[model.Severity]string{model.SeverityHigh: "2"}
		exporter, err := New(config, nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": "2"}, stub.lastIssue["priority"])
	})

	t.Run("applies the field translation hook", func(t *testing.T) {
		stub := newJiraStub(t)
		config := stubConfig(stub)
		config.TranslateFields = func(item export.ActionItem, fields map[string]interface{}) {
			fields["customfield_10100"] = item.ComponentName
			delete(fields, "labels")
		}
		exporter, err := New(config, nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Equal(t, "Auth API", stub.lastIssue["customfield_10100"])
	})

	t.Run("a hook-set reporter wins even when resolution would fail", func(t *testing.T) {
		stub := newJiraStub(t)
		stub.myselfStatus = http.StatusInternalServerError
		config := stubConfig(stub)
		config.TranslateFields = func(item export.ActionItem, fields map[string]interface{}) {
			fields["reporter"] = map[string]string{"id": "hook-account"}
		}
		exporter, err := New(config, nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		require.NoError(t, err)
		assert.Zero(t, stub.myselfCalls.Load())
		assert.Equal(t, map[string]interface{}{"id": "hook-account"}, stub.lastIssue["reporter"])
	})

	t.Run("surfaces a non-201 create as an external API error", func(t *testing.T) {
		stub := newJiraStub(t)
		stub.createStatus = http.StatusBadRequest
		stub.createBody = `{"errors":{"reporter":"invalid"}}`
		exporter, err := New(stubConfig(stub), nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		var apiErr *export.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "reporter")
	})

	t.Run("fails when credentials cannot be resolved", func(t *testing.T) {
		stub := newJiraStub(t)
		config := stubConfig(stub)
		config.APIToken = secrets.NewEnvSecret("CASTELLAN_TEST_MISSING_TOKEN")
		exporter, err := New(config, nil)
		require.NoError(t, err)

		_, err = exporter.ExportItem(context.Background(), testItem())

		assert.Error(t, err)
	})
}

func TestExporter_BaseURL(t *testing.T) {
	for host, expected := range map[string]string{
		"example.atlassian.net":          "https://example.atlassian.net",
		"example.atlassian.net/":         "https://example.atlassian.net",
		"https://example.atlassian.net":  "https://example.atlassian.net",
		"http://jira.internal.test:8080": "http://jira.internal.test:8080",
	} {
		exporter := &Exporter{config: Config{Host: host}}
		assert.Equal(t, expected, exporter.baseURL())
	}
}

func TestNew_Validation(t *testing.T) {
	valid := Config{
		Host:        "example.atlassian.net",
		ProjectID:   "10000",
		IssueTypeID: "10002",
		User:        secrets.Static("bot"),
		APIToken:    secrets.Static("token"),
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		_, err := New(valid, nil)
		assert.NoError(t, err)
	})

	t.Run("rejects a missing host", func(t *testing.T) {
		config := valid
		config.Host = ""
		_, err := New(config, nil)
		assert.Error(t, err)
	})

	t.Run("rejects an unknown reporter mode", func(t *testing.T) {
		config := valid
		config.ReporterMode = "first-commenter"
		_, err := New(config, nil)
		assert.Error(t, err)
	})

	t.Run("reviewer-as-reporter requires a reviews store", func(t *testing.T) {
		config := valid
		config.ReporterMode = ReporterModeReviewer
		_, err := New(config, nil)
		assert.Error(t, err)
	})
}

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// fakeJira is a minimal stand-in for the jira cloud API: it accepts issue
// creation and identity lookups, and records every created issue so steps
// can assert on them.
type fakeJira struct {
	server *httptest.Server

	mu     sync.Mutex
	issues []map[string]interface{}
}

func newFakeJira() *fakeJira {
	fake := &fakeJira{}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"accountId": "token-account"})
	})
	mux.HandleFunc("/rest/api/3/user/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{})
	})
	mux.HandleFunc("/rest/api/3/issue", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields map[string]interface{} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fake.mu.Lock()
		fake.issues = append(fake.issues, payload.Fields)
		key := fmt.Sprintf("SEC-%d", len(fake.issues))
		fake.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "10001", "key": key})
	})

	fake.server = httptest.NewServer(mux)
	return fake
}

func (f *fakeJira) URL() string {
	return f.server.URL
}

func (f *fakeJira) Close() {
	f.server.Close()
}

// IssueCount returns the number of issues created so far
func (f *fakeJira) IssueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issues)
}

// IssueSummaries returns the summary field of every created issue
func (f *fakeJira) IssueSummaries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var summaries []string
	for _, fields := range f.issues {
		if summary, ok := fields["summary"].(string); ok {
			summaries = append(summaries, summary)
		}
	}
	return summaries
}

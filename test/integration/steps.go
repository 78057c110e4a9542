package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StepsContext holds state shared between step definitions. Each scenario
// gets a fresh model, so scenarios only ever assert on their own rows; jira
// issue counts are tracked relative to a per-scenario baseline because the
// fake accumulates across scenarios.
type StepsContext struct {
	tc *TestContext

	modelID      uuid.UUID
	threatIDs    map[string]uuid.UUID
	issueBase    int
	authToken    string
	response     *http.Response
	responseBody []byte
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:        tc,
		threatIDs: make(map[string]uuid.UUID),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a castellan server is running$`, s.aServerIsRunning)
	sc.Step(`^a model "([^"]*)" exists$`, s.aModelExists)
	sc.Step(`^the model has a threat "([^"]*)" with severity "([^"]*)"$`, s.theModelHasAThreat)
	sc.Step(`^the threat "([^"]*)" is mitigated by control "([^"]*)"$`, s.theThreatIsMitigatedBy)
	sc.Step(`^user "([^"]*)" has (write|review) permission on the model$`, s.userHasPermission)
	sc.Step(`^I am authenticated as "([^"]*)"$`, s.iAmAuthenticatedAs)

	// Review lifecycle steps
	sc.Step(`^I request a review of the model$`, s.iRequestAReview)
	sc.Step(`^I approve the review with note "([^"]*)"$`, s.iApproveTheReview)
	sc.Step(`^I decline the review with note "([^"]*)"$`, s.iDeclineTheReview)
	sc.Step(`^I trigger a re-export of the model$`, s.iTriggerAReExport)

	// Assertion steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the review status should be "([^"]*)"$`, s.theReviewStatusShouldBe)
	sc.Step(`^the review note should be "([^"]*)"$`, s.theReviewNoteShouldBe)
	sc.Step(`^within (\d+) seconds there should be (\d+) jira issues?$`, s.thereShouldBeJiraIssues)
	sc.Step(`^there should be (\d+) links? for the model$`, s.thereShouldBeLinks)
}

func (s *StepsContext) aServerIsRunning() error {
	resp, err := s.tc.HTTPClient.Get(s.tc.ServerURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (s *StepsContext) aModelExists(name string) error {
	s.modelID = uuid.New()
	s.issueBase = s.tc.Jira.IssueCount()

	componentID := uuid.New()
	data := fmt.Sprintf(`{"components": [{"id": %q, "name": %q}]}`, componentID, name)
	return s.tc.DB.Exec(`
		INSERT INTO models (id, system_id, version, created_by, data)
		VALUES (?, ?, '1', 'owner@example.com', ?::jsonb)
	`, s.modelID, name, data).Error
}

func (s *StepsContext) theModelHasAThreat(title, severity string) error {
	threatID := uuid.New()
	s.threatIDs[title] = threatID
	return s.tc.DB.Exec(`
		INSERT INTO threats (id, model_id, component_id, title, severity, status)
		VALUES (?, ?, ?, ?, ?, 'open')
	`, threatID, s.modelID, uuid.New(), title, severity).Error
}

func (s *StepsContext) theThreatIsMitigatedBy(threatTitle, controlTitle string) error {
	threatID, ok := s.threatIDs[threatTitle]
	if !ok {
		return fmt.Errorf("unknown threat %q", threatTitle)
	}

	controlID := uuid.New()
	if err := s.tc.DB.Exec(`
		INSERT INTO controls (id, model_id, title, in_place)
		VALUES (?, ?, ?, true)
	`, controlID, s.modelID, controlTitle).Error; err != nil {
		return err
	}
	return s.tc.DB.Exec(`
		INSERT INTO mitigations (threat_id, control_id) VALUES (?, ?)
	`, threatID, controlID).Error
}

func (s *StepsContext) userHasPermission(user, permission string) error {
	return s.tc.DB.Exec(`
		INSERT INTO model_permissions (model_id, user_email, permission)
		VALUES (?, ?, ?) ON CONFLICT DO NOTHING
	`, s.modelID, user, permission).Error
}

func (s *StepsContext) iAmAuthenticatedAs(email string) error {
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iRequestAReview() error {
	return s.post("/models/"+s.modelID.String()+"/review", nil)
}

func (s *StepsContext) iApproveTheReview(note string) error {
	return s.post("/models/"+s.modelID.String()+"/review/approve", map[string]string{"note": note})
}

func (s *StepsContext) iDeclineTheReview(note string) error {
	return s.post("/models/"+s.modelID.String()+"/review/decline", map[string]string{"note": note})
}

func (s *StepsContext) iTriggerAReExport() error {
	return s.post("/models/"+s.modelID.String()+"/export", nil)
}

func (s *StepsContext) post(path string, body interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(http.MethodPost, s.tc.ServerURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	s.response = resp
	s.responseBody, _ = io.ReadAll(resp.Body)
	return nil
}

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response recorded")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theReviewStatusShouldBe(expected string) error {
	var status string
	if err := s.tc.DB.Raw(`SELECT status FROM reviews WHERE model_id = ?`, s.modelID).Scan(&status).Error; err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected review status %q, got %q", expected, status)
	}
	return nil
}

func (s *StepsContext) theReviewNoteShouldBe(expected string) error {
	var note string
	if err := s.tc.DB.Raw(`SELECT note FROM reviews WHERE model_id = ?`, s.modelID).Scan(&note).Error; err != nil {
		return err
	}
	if note != expected {
		return fmt.Errorf("expected review note %q, got %q", expected, note)
	}
	return nil
}

// thereShouldBeJiraIssues polls because approval exports run detached from
// the approval response.
func (s *StepsContext) thereShouldBeJiraIssues(seconds, expected int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for {
		created := s.tc.Jira.IssueCount() - s.issueBase
		if created == expected {
			// Hold on a beat to catch duplicate exports racing in.
			time.Sleep(200 * time.Millisecond)
			if created := s.tc.Jira.IssueCount() - s.issueBase; created != expected {
				return fmt.Errorf("expected %d jira issues, got %d", expected, created)
			}
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected %d jira issues within %ds, got %d", expected, seconds, created)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (s *StepsContext) thereShouldBeLinks(expected int) error {
	var count int64
	if err := s.tc.DB.Raw(`
		SELECT count(*) FROM links
		WHERE object_id IN (SELECT id FROM threats WHERE model_id = ?)
	`, s.modelID).Scan(&count).Error; err != nil {
		return err
	}
	if int(count) != expected {
		return fmt.Errorf("expected %d links, got %d", expected, count)
	}
	return nil
}

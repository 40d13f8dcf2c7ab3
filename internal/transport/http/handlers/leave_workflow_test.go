package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"campusleave/internal/app/server"
	"campusleave/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func TestLeaveWorkflowSubmitApproveAndBalances(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmployee, cfg.SeedAdminPassword)

	staffNo := fmt.Sprintf("EMP%d", time.Now().UnixNano()%1_000_000_000)
	staffPassword := "Staff123!pass"
	registerResp := postJSON(t, client, ts.URL+"/api/v1/auth/register", adminToken, map[string]any{
		"employeeNo": staffNo,
		"email":      staffNo + "@college.test",
		"password":   staffPassword,
		"firstName":  "Asha",
		"lastName":   "Verma",
		"department": "Physics",
		"staffType":  "teaching",
	})
	var registered map[string]any
	if err := json.Unmarshal(registerResp.Data, &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	staffID, _ := registered["id"].(string)
	if staffID == "" {
		t.Fatal("expected registered person id")
	}

	staffToken := login(t, client, ts.URL, staffNo, staffPassword)

	categoryID := findCategoryID(t, client, ts.URL, staffToken, "Casual Leave")

	// Mon 2 Mar to Fri 6 Mar 2026: five working days.
	submitResp := postJSON(t, client, ts.URL+"/api/v1/leave/applications", staffToken, map[string]any{
		"categoryId": categoryID,
		"startDate":  "2026-03-02",
		"endDate":    "2026-03-06",
		"reason":     "Family function",
	})
	var submitted map[string]any
	if err := json.Unmarshal(submitResp.Data, &submitted); err != nil {
		t.Fatalf("failed to decode submit response: %v", err)
	}
	applicationID, _ := submitted["id"].(string)
	if applicationID == "" {
		t.Fatal("expected application id")
	}
	if days, _ := submitted["totalDays"].(float64); days != 5 {
		t.Fatalf("expected 5 working days, got %v", days)
	}

	pending, available := balanceFor(t, client, ts.URL, staffToken, categoryID, 2026)
	if pending != 5 {
		t.Fatalf("expected 5 pending days after submit, got %d", pending)
	}
	if available != 7 {
		t.Fatalf("expected 7 available days after submit, got %d", available)
	}

	// Overlapping application is rejected outright.
	conflictResp := postJSONStatus(t, client, ts.URL+"/api/v1/leave/applications", staffToken, map[string]any{
		"categoryId": categoryID,
		"startDate":  "2026-03-05",
		"endDate":    "2026-03-09",
		"reason":     "Overlap attempt",
	}, http.StatusConflict)
	if code := envelopeErrorCode(conflictResp); code != "leave_conflict" {
		t.Fatalf("expected leave_conflict error, got %+v", conflictResp.Error)
	}

	// Staff cannot approve their own leave.
	postJSONStatus(t, client, ts.URL+"/api/v1/leave/applications/"+applicationID+"/decision", staffToken, map[string]any{
		"decision": "approved",
	}, http.StatusForbidden)

	approveResp := postJSON(t, client, ts.URL+"/api/v1/leave/applications/"+applicationID+"/decision", adminToken, map[string]any{
		"decision": "approved",
		"comments": "Enjoy",
	})
	var decided map[string]any
	if err := json.Unmarshal(approveResp.Data, &decided); err != nil {
		t.Fatalf("failed to decode decision response: %v", err)
	}
	if status, _ := decided["status"].(string); status != "approved" {
		t.Fatalf("expected approved status, got %v", decided["status"])
	}

	pending, available = balanceFor(t, client, ts.URL, staffToken, categoryID, 2026)
	if pending != 0 {
		t.Fatalf("expected 0 pending days after approval, got %d", pending)
	}
	if available != 7 {
		t.Fatalf("expected 7 available days after approval, got %d", available)
	}

	// A second decision on the same application is rejected.
	repeatResp := postJSONStatus(t, client, ts.URL+"/api/v1/leave/applications/"+applicationID+"/decision", adminToken, map[string]any{
		"decision":        "rejected",
		"rejectionReason": "changed my mind",
	}, http.StatusConflict)
	if code := envelopeErrorCode(repeatResp); code != "already_processed" {
		t.Fatalf("expected already_processed error, got %+v", repeatResp.Error)
	}

	// The admin dashboard aggregates must reflect the approved application.
	dashResp := getJSON(t, client, ts.URL+"/api/v1/reports/dashboard?year=2026", adminToken)
	var dash struct {
		TotalStaff        int            `json:"totalStaff"`
		StaffByType       map[string]int `json:"staffByType"`
		ApplicationCounts map[string]int `json:"applicationCounts"`
		DaysTakenThisYear int            `json:"daysTakenThisYear"`
	}
	if err := json.Unmarshal(dashResp.Data, &dash); err != nil {
		t.Fatalf("failed to decode dashboard: %v", err)
	}
	if dash.TotalStaff < 2 {
		t.Fatalf("expected at least 2 active staff, got %d", dash.TotalStaff)
	}
	byTypeSum := 0
	for _, count := range dash.StaffByType {
		byTypeSum += count
	}
	if byTypeSum != dash.TotalStaff {
		t.Fatalf("staff by type sums to %d, total is %d", byTypeSum, dash.TotalStaff)
	}
	if dash.ApplicationCounts["approved"] < 1 {
		t.Fatalf("expected at least 1 approved application, got %d", dash.ApplicationCounts["approved"])
	}
	if dash.DaysTakenThisYear < 5 {
		t.Fatalf("expected at least 5 days taken, got %d", dash.DaysTakenThisYear)
	}
}

func TestLeaveWorkflowCancelRestoresBalance(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmployee, cfg.SeedAdminPassword)

	staffNo := fmt.Sprintf("EMP%d", time.Now().UnixNano()%1_000_000_000)
	staffPassword := "Staff123!pass"
	postJSON(t, client, ts.URL+"/api/v1/auth/register", adminToken, map[string]any{
		"employeeNo": staffNo,
		"email":      staffNo + "@college.test",
		"password":   staffPassword,
		"firstName":  "Ravi",
		"lastName":   "Nair",
		"department": "Library",
		"staffType":  "non_teaching",
	})
	staffToken := login(t, client, ts.URL, staffNo, staffPassword)

	categoryID := findCategoryID(t, client, ts.URL, staffToken, "Earned Leave")

	submitResp := postJSON(t, client, ts.URL+"/api/v1/leave/applications", staffToken, map[string]any{
		"categoryId": categoryID,
		"startDate":  "2026-04-06",
		"endDate":    "2026-04-08",
		"reason":     "Personal travel",
	})
	var submitted map[string]any
	if err := json.Unmarshal(submitResp.Data, &submitted); err != nil {
		t.Fatalf("failed to decode submit response: %v", err)
	}
	applicationID, _ := submitted["id"].(string)

	pending, _ := balanceFor(t, client, ts.URL, staffToken, categoryID, 2026)
	if pending != 3 {
		t.Fatalf("expected 3 pending days after submit, got %d", pending)
	}

	// Only the owner may cancel.
	postJSONStatus(t, client, ts.URL+"/api/v1/leave/applications/"+applicationID+"/cancel", adminToken, nil, http.StatusForbidden)

	cancelResp := postJSON(t, client, ts.URL+"/api/v1/leave/applications/"+applicationID+"/cancel", staffToken, nil)
	var cancelled map[string]any
	if err := json.Unmarshal(cancelResp.Data, &cancelled); err != nil {
		t.Fatalf("failed to decode cancel response: %v", err)
	}
	if status, _ := cancelled["status"].(string); status != "cancelled" {
		t.Fatalf("expected cancelled status, got %v", cancelled["status"])
	}

	pending, available := balanceFor(t, client, ts.URL, staffToken, categoryID, 2026)
	if pending != 0 {
		t.Fatalf("expected 0 pending days after cancel, got %d", pending)
	}
	if available != 20 {
		t.Fatalf("expected full 20 available days after cancel, got %d", available)
	}
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "test",
		SeedAdminEmployee:  "ADMIN001",
		SeedAdminEmail:     "admin@college.test",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@college.test",
		RunMigrations:      true,
		MigrationsDir:      migrationsDir(),
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

// migrationsDir walks up from the package directory to the module root.
func migrationsDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "migrations"
		}
		dir = parent
	}
}

func login(t *testing.T, client *http.Client, baseURL, employeeNo, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"employeeNo": employeeNo,
		"password":   password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func findCategoryID(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/leave/categories", token)
	var categories []map[string]any
	if err := json.Unmarshal(resp.Data, &categories); err != nil {
		t.Fatalf("failed to decode categories: %v", err)
	}
	for _, category := range categories {
		if category["name"] == name {
			id, _ := category["id"].(string)
			return id
		}
	}
	t.Fatalf("category %q not found", name)
	return ""
}

func balanceFor(t *testing.T, client *http.Client, baseURL, token, categoryID string, year int) (pending, available int) {
	t.Helper()
	resp := getJSON(t, client, fmt.Sprintf("%s/api/v1/leave/balances?year=%d", baseURL, year), token)
	var payload struct {
		Balances []map[string]any `json:"balances"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode balances: %v", err)
	}
	for _, balance := range payload.Balances {
		if balance["categoryId"] == categoryID {
			p, _ := balance["pendingDays"].(float64)
			a, _ := balance["availableDays"].(float64)
			return int(p), int(a)
		}
	}
	t.Fatalf("no balance row for category %s", categoryID)
	return 0, 0
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func envelopeErrorCode(env envelope) string {
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errMap["code"].(string)
	return code
}

package server_test

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
	"runtime"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"staffcore/internal/app/server"
	"staffcore/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate test file")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "migrations")
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return config.Config{
		Addr:                   ":0",
		DatabaseURL:            dbURL,
		JWTSecret:              "test-secret",
		DataEncryptionKey:      "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
		Environment:            "test",
		SeedSuperAdminEmail:    "root@test.local",
		SeedSuperAdminPassword: "ChangeMe123!x",
		EmailFrom:              "no-reply@test.local",
		RunMigrations:          true,
		MigrationsDir:          migrationsDir(t),
		RunSeed:                true,
		MaxBodyBytes:           1048576,
		RateLimitPerMinute:     1000,
	}
}

func startTestServer(t *testing.T) (*httptest.Server, *http.Client, config.Config) {
	t.Helper()
	cfg := testConfig(t)

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts, ts.Client(), cfg
}

// rootSecret carries the super admin's TOTP secret across tests in this
// package: once enrolled, every later login has to present a code.
var rootSecret string

// rootSession signs in the seeded super admin and completes TOTP
// enrolment, since sensitive routes require a verified MFA login.
func rootSession(t *testing.T, client *http.Client, baseURL string, cfg config.Config) string {
	t.Helper()
	if rootSecret != "" {
		code, err := totp.GenerateCode(rootSecret, time.Now())
		if err != nil {
			t.Fatalf("generate totp code: %v", err)
		}
		return login(t, client, baseURL, cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword, code)
	}

	rootToken := login(t, client, baseURL, cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword, "")
	rootSecret = setupMFA(t, client, baseURL, rootToken)
	code, err := totp.GenerateCode(rootSecret, time.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	return verifyMFA(t, client, baseURL, rootToken, code)
}

func TestAccessRequestAndLifecycleJourney(t *testing.T) {
	ts, client, cfg := startTestServer(t)

	rootToken := rootSession(t, client, ts.URL, cfg)

	adminEmail := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	registerAdmin(t, client, ts.URL, adminEmail)

	adminID := findPendingRegistration(t, client, ts.URL, rootToken, adminEmail)
	verifyRegistration(t, client, ts.URL, rootToken, adminID)

	adminToken := login(t, client, ts.URL, adminEmail, "SoLongPassword1", "")

	// No grants yet: denied.
	if status := getStatus(t, client, ts.URL, adminToken, "/api/v1/employees"); status != http.StatusForbidden {
		t.Fatalf("expected 403 before grant, got %d", status)
	}

	submitAccessRequest(t, client, ts.URL, adminToken, "employee_management", "view")
	requestID := findPendingRequest(t, client, ts.URL, rootToken, adminEmail)
	reviewRequest(t, client, ts.URL, rootToken, requestID, "approve")

	// Grant applied: allowed.
	if status := getStatus(t, client, ts.URL, adminToken, "/api/v1/employees"); status != http.StatusOK {
		t.Fatalf("expected 200 after approval, got %d", status)
	}

	employeeEmail := fmt.Sprintf("emp-%d@example.com", time.Now().UnixNano())
	employeeID := createEmployee(t, client, ts.URL, rootToken, employeeEmail)
	deleteEmployee(t, client, ts.URL, rootToken, employeeID)

	entries := listAudit(t, client, ts.URL, rootToken)
	if entries == 0 {
		t.Fatal("expected audit entries for the journey")
	}
}

func TestCatalogEditAndRemovalJourney(t *testing.T) {
	ts, client, cfg := startTestServer(t)
	rootToken := rootSession(t, client, ts.URL, cfg)

	suffix := time.Now().UnixNano()
	routeName := fmt.Sprintf("qa-screens-%d", suffix)
	actionName := fmt.Sprintf("qa-sign-off-%d", suffix)

	route := createRoute(t, client, ts.URL, rootToken, routeName, "QA review screens")
	if route.Description != "QA review screens" {
		t.Fatalf("route created without description: %+v", route)
	}

	renamed := routeName + "-v2"
	route = updateRoute(t, client, ts.URL, rootToken, routeName, renamed, "Renamed during rollout")
	if route.RouteName != renamed || route.Description != "Renamed during rollout" {
		t.Fatalf("route update not applied: %+v", route)
	}

	action := createAction(t, client, ts.URL, rootToken, actionName, "Sign off a QA run")
	if action.Description != "Sign off a QA run" {
		t.Fatalf("action created without description: %+v", action)
	}
	action = updateAction(t, client, ts.URL, rootToken, actionName, actionName, "Sign off and archive a QA run")
	if action.Description != "Sign off and archive a QA run" {
		t.Fatalf("action update not applied: %+v", action)
	}

	associateAction(t, client, ts.URL, rootToken, renamed, actionName)
	if actions := routeActions(t, client, ts.URL, rootToken, renamed); len(actions) != 1 || actions[0] != actionName {
		t.Fatalf("unexpected actions after association: %v", actions)
	}

	// Deleting the action must unlink it from the route first.
	deleteAction(t, client, ts.URL, rootToken, actionName)
	if actions := routeActions(t, client, ts.URL, rootToken, renamed); len(actions) != 0 {
		t.Fatalf("expected no actions after delete, got %v", actions)
	}

	deleteRoute(t, client, ts.URL, rootToken, renamed)
	if status := getStatus(t, client, ts.URL, rootToken, "/api/v1/route-actions/"+renamed); status != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted route, got %d", status)
	}
}

func TestTeamDeleteAndSharedIdentityJourney(t *testing.T) {
	ts, client, cfg := startTestServer(t)
	rootToken := rootSession(t, client, ts.URL, cfg)

	suffix := time.Now().UnixNano()

	// Soft status changes keep the employee row.
	empEmail := fmt.Sprintf("status-%d@example.com", suffix)
	empID := createEmployee(t, client, ts.URL, rootToken, empEmail)
	emp := setEmployeeStatus(t, client, ts.URL, rootToken, empID, "terminated")
	if emp.Status != "terminated" || emp.DateTerminated == nil {
		t.Fatalf("expected terminated with a termination date, got %+v", emp)
	}
	emp = setEmployeeStatus(t, client, ts.URL, rootToken, empID, "active")
	if emp.Status != "active" || emp.DateTerminated != nil {
		t.Fatalf("expected reactivation to clear the termination date, got %+v", emp)
	}

	// Non-forced team delete reports the blockers and changes nothing.
	teamName := fmt.Sprintf("team-%d", suffix)
	teamID := createTeam(t, client, ts.URL, rootToken, teamName)
	addTeamMember(t, client, ts.URL, rootToken, teamID, empID)

	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/teams/delete", rootToken, map[string]any{
		"teamId":      teamID,
		"forceDelete": false,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-forced delete with members, got %d", resp.StatusCode)
	}
	details := errorDetails(t, env)
	if force, _ := details["requiresForceDelete"].(bool); !force {
		t.Fatalf("expected requiresForceDelete in details, got %v", details)
	}
	if deps, _ := details["dependencies"].([]any); len(deps) == 0 {
		t.Fatalf("expected blocking dependencies, got %v", details)
	}
	if !teamListed(t, client, ts.URL, rootToken, teamID) {
		t.Fatal("non-forced delete must leave the team in place")
	}

	resp, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/teams/delete", rootToken, map[string]any{
		"teamId":      teamID,
		"forceDelete": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forced team delete failed with %d: %v", resp.StatusCode, env.Error)
	}
	if teamListed(t, client, ts.URL, rootToken, teamID) {
		t.Fatal("forced delete must remove the team")
	}

	// A person holding both an employee record and an admin account loses
	// both when the employee is deleted.
	sharedEmail := fmt.Sprintf("shared-%d@example.com", suffix)
	registerAdmin(t, client, ts.URL, sharedEmail)
	sharedAdminID := findPendingRegistration(t, client, ts.URL, rootToken, sharedEmail)
	verifyRegistration(t, client, ts.URL, rootToken, sharedAdminID)
	login(t, client, ts.URL, sharedEmail, "SoLongPassword1", "")

	sharedEmpID := createEmployee(t, client, ts.URL, rootToken, sharedEmail)
	deleteEmployee(t, client, ts.URL, rootToken, sharedEmpID)

	if status := loginStatus(t, client, ts.URL, sharedEmail, "SoLongPassword1"); status != http.StatusUnauthorized {
		t.Fatalf("expected the linked admin account to be gone, login returned %d", status)
	}
	if adminListed(t, client, ts.URL, rootToken, sharedAdminID) {
		t.Fatal("deleted person's admin account still listed")
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload any) (*http.Response, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s %s (%d): %v: %s", method, url, resp.StatusCode, err, raw)
		}
	}
	return resp, env
}

func login(t *testing.T, client *http.Client, baseURL, email, password, mfaCode string) string {
	t.Helper()
	payload := map[string]string{"email": email, "password": password}
	if mfaCode != "" {
		payload["mfaCode"] = mfaCode
	}
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s failed with %d: %v", email, resp.StatusCode, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login %s returned no token: %s", email, env.Data)
	}
	return data.Token
}

func setupMFA(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/mfa/setup", token, map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mfa setup failed with %d: %v", resp.StatusCode, env.Error)
	}
	var data struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Secret == "" {
		t.Fatalf("mfa setup returned no secret: %s", env.Data)
	}
	return data.Secret
}

func verifyMFA(t *testing.T, client *http.Client, baseURL, token, code string) string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/mfa/verify", token, map[string]string{"code": code})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mfa verify failed with %d: %v", resp.StatusCode, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("mfa verify returned no token: %s", env.Data)
	}
	return data.Token
}

func registerAdmin(t *testing.T, client *http.Client, baseURL, email string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"firstName": "Journey",
		"lastName":  "Admin",
		"password":  "SoLongPassword1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func findPendingRegistration(t *testing.T, client *http.Client, baseURL, token, email string) string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/pending-registrations", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pending registrations failed with %d: %v", resp.StatusCode, env.Error)
	}
	var pending []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(env.Data, &pending); err != nil {
		t.Fatalf("decode pending registrations: %v", err)
	}
	for _, p := range pending {
		if p.Email == email {
			return p.ID
		}
	}
	t.Fatalf("registration for %s not found in %d pending entries", email, len(pending))
	return ""
}

func verifyRegistration(t *testing.T, client *http.Client, baseURL, token, adminID string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/verify", token, map[string]string{
		"adminId": adminID,
		"role":    "admin",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify registration failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func getStatus(t *testing.T, client *http.Client, baseURL, token, path string) int {
	t.Helper()
	resp, _ := doJSON(t, client, http.MethodGet, baseURL+path, token, nil)
	return resp.StatusCode
}

func submitAccessRequest(t *testing.T, client *http.Client, baseURL, token, route, action string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/request-access", token, map[string]any{
		"requests": []map[string]string{{"route": route, "action": action}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request access failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func findPendingRequest(t *testing.T, client *http.Client, baseURL, token, email string) string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/review-requests", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review requests failed with %d: %v", resp.StatusCode, env.Error)
	}
	var pending []struct {
		ID         string `json:"id"`
		AdminEmail string `json:"adminEmail"`
	}
	if err := json.Unmarshal(env.Data, &pending); err != nil {
		t.Fatalf("decode pending requests: %v", err)
	}
	for _, p := range pending {
		if p.AdminEmail == email {
			return p.ID
		}
	}
	t.Fatalf("no pending request for %s among %d entries", email, len(pending))
	return ""
}

func reviewRequest(t *testing.T, client *http.Client, baseURL, token, requestID, decision string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/review-requests/action", token, map[string]string{
		"requestId": requestID,
		"decision":  decision,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, email string) string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/employees", token, map[string]string{
		"email":     email,
		"firstName": "Journey",
		"lastName":  "Employee",
		"position":  "Engineer",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create employee failed with %d: %v", resp.StatusCode, env.Error)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ID == "" {
		t.Fatalf("create employee returned no id: %s", env.Data)
	}
	return data.ID
}

func deleteEmployee(t *testing.T, client *http.Client, baseURL, token, employeeID string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodDelete, baseURL+"/api/v1/employees/"+employeeID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete employee failed with %d: %v", resp.StatusCode, env.Error)
	}
}

type routeView struct {
	RouteName   string `json:"routeName"`
	Description string `json:"description"`
}

type actionView struct {
	ActionName  string `json:"actionName"`
	Description string `json:"description"`
}

type employeeView struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	DateTerminated *string `json:"dateTerminated"`
}

func createRoute(t *testing.T, client *http.Client, baseURL, token, name, description string) routeView {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/manage/routes", token, map[string]string{
		"name":        name,
		"description": description,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create route failed with %d: %v", resp.StatusCode, env.Error)
	}
	var route routeView
	if err := json.Unmarshal(env.Data, &route); err != nil {
		t.Fatalf("decode route: %v", err)
	}
	return route
}

func updateRoute(t *testing.T, client *http.Client, baseURL, token, name, newName, description string) routeView {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPut, baseURL+"/api/v1/manage/routes/"+name, token, map[string]string{
		"name":        newName,
		"description": description,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update route failed with %d: %v", resp.StatusCode, env.Error)
	}
	var route routeView
	if err := json.Unmarshal(env.Data, &route); err != nil {
		t.Fatalf("decode route: %v", err)
	}
	return route
}

func deleteRoute(t *testing.T, client *http.Client, baseURL, token, name string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodDelete, baseURL+"/api/v1/manage/routes/"+name, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete route failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func createAction(t *testing.T, client *http.Client, baseURL, token, name, description string) actionView {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/manage/actions", token, map[string]string{
		"name":        name,
		"description": description,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create action failed with %d: %v", resp.StatusCode, env.Error)
	}
	var action actionView
	if err := json.Unmarshal(env.Data, &action); err != nil {
		t.Fatalf("decode action: %v", err)
	}
	return action
}

func updateAction(t *testing.T, client *http.Client, baseURL, token, name, newName, description string) actionView {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPut, baseURL+"/api/v1/manage/actions/"+name, token, map[string]string{
		"name":        newName,
		"description": description,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update action failed with %d: %v", resp.StatusCode, env.Error)
	}
	var action actionView
	if err := json.Unmarshal(env.Data, &action); err != nil {
		t.Fatalf("decode action: %v", err)
	}
	return action
}

func deleteAction(t *testing.T, client *http.Client, baseURL, token, name string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodDelete, baseURL+"/api/v1/manage/actions/"+name, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete action failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func associateAction(t *testing.T, client *http.Client, baseURL, token, route, action string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/route-actions", token, map[string]string{
		"route":  route,
		"action": action,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("associate action failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func routeActions(t *testing.T, client *http.Client, baseURL, token, route string) []string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/route-actions/"+route, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list route actions failed with %d: %v", resp.StatusCode, env.Error)
	}
	var data struct {
		Actions []string `json:"actions"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode route actions: %v", err)
	}
	return data.Actions
}

func setEmployeeStatus(t *testing.T, client *http.Client, baseURL, token, employeeID, status string) employeeView {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPatch, baseURL+"/api/v1/employees/"+employeeID+"/status", token, map[string]string{
		"status": status,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set employee status failed with %d: %v", resp.StatusCode, env.Error)
	}
	var emp employeeView
	if err := json.Unmarshal(env.Data, &emp); err != nil {
		t.Fatalf("decode employee: %v", err)
	}
	return emp
}

func createTeam(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/teams", token, map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create team failed with %d: %v", resp.StatusCode, env.Error)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ID == "" {
		t.Fatalf("create team returned no id: %s", env.Data)
	}
	return data.ID
}

func addTeamMember(t *testing.T, client *http.Client, baseURL, token, teamID, employeeID string) {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/teams/"+teamID+"/members", token, map[string]string{
		"employeeId": employeeID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add team member failed with %d: %v", resp.StatusCode, env.Error)
	}
}

func teamListed(t *testing.T, client *http.Client, baseURL, token, teamID string) bool {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/teams", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list teams failed with %d: %v", resp.StatusCode, env.Error)
	}
	var teams []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &teams); err != nil {
		t.Fatalf("decode teams: %v", err)
	}
	for _, team := range teams {
		if team.ID == teamID {
			return true
		}
	}
	return false
}

func adminListed(t *testing.T, client *http.Client, baseURL, token, adminID string) bool {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/admins", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list admins failed with %d: %v", resp.StatusCode, env.Error)
	}
	var admins []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &admins); err != nil {
		t.Fatalf("decode admins: %v", err)
	}
	for _, admin := range admins {
		if admin.ID == adminID {
			return true
		}
	}
	return false
}

func loginStatus(t *testing.T, client *http.Client, baseURL, email, password string) int {
	t.Helper()
	resp, _ := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	return resp.StatusCode
}

func errorDetails(t *testing.T, env envelope) map[string]any {
	t.Helper()
	errObj, ok := env.Error.(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", env.Error)
	}
	details, _ := errObj["details"].(map[string]any)
	return details
}

func listAudit(t *testing.T, client *http.Client, baseURL, token string) int {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/audit", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit list failed with %d: %v", resp.StatusCode, env.Error)
	}
	var data struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode audit list: %v", err)
	}
	return data.Total
}

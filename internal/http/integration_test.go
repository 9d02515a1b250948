package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/xtralabs/xtra-server/internal/auth"
	"github.com/xtralabs/xtra-server/internal/canva"
	"github.com/xtralabs/xtra-server/internal/pending"
	"github.com/xtralabs/xtra-server/internal/session"
	"github.com/xtralabs/xtra-server/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// testEnv holds the components needed for integration tests.
type testEnv struct {
	server   *httptest.Server
	provider *httptest.Server
	store    *pending.MemoryStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()

	// Stub Canva token endpoint
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("code_verifier") == "" && r.PostForm.Get("grant_type") == "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_request"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"stub-at","refresh_token":"stub-rt","expires_in":3600,"token_type":"Bearer"}`))
	}))
	t.Cleanup(provider.Close)

	pendingStore := pending.NewMemoryStore(10 * time.Minute)
	t.Cleanup(func() { pendingStore.Close() })

	canvaClient := canva.NewClient("test-client", "test-secret", "http://localhost:8080/oauth/redirect",
		canva.WithEndpoints(canva.DefaultAuthURL, provider.URL))

	issuer := session.NewIssuer("integration-secret", time.Hour, session.WithLogger(logger))
	authService := auth.NewService(memory.NewStore(), issuer, auth.WithLogger(logger))

	server := NewServer("127.0.0.1:0", WithLogger(logger))
	NewOAuthHandler(canvaClient, pendingStore, logger).Mount(server.Router())
	NewAuthHandler(authService, logger).Mount(server.Router())

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, provider: provider, store: pendingStore}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	var body map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			t.Fatalf("Failed to decode body %q: %v", data, err)
		}
	}
	return body
}

func TestOAuthFlow(t *testing.T) {
	env := setupTestEnv(t)

	// Request an authorization URL
	resp, body := env.get(t, "/auth/canva/url")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /auth/canva/url: status %d", resp.StatusCode)
	}

	rawURL, _ := body["url"].(string)
	if rawURL == "" {
		t.Fatal("Response should contain a url field")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("Unparsable authorization URL: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatal("Authorization URL should carry a state parameter")
	}
	if u.Query().Get("code_challenge") == "" {
		t.Fatal("Authorization URL should carry a code challenge")
	}

	// Provider redirects back with code and state
	resp, body = env.get(t, "/oauth/redirect?code=ABC&state="+url.QueryEscape(state))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Redirect callback: status %d, body %v", resp.StatusCode, body)
	}

	tokens, _ := body["tokens"].(map[string]any)
	if tokens["access_token"] != "stub-at" {
		t.Errorf("Expected exchanged token set, got %v", body)
	}

	// Replaying the same state must fail: it was consumed
	resp, body = env.get(t, "/oauth/redirect?code=ABC&state="+url.QueryEscape(state))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Replayed state: status %d, want 400", resp.StatusCode)
	}
	if errMsg, _ := body["error"].(string); !strings.Contains(errMsg, "Invalid state") {
		t.Errorf("Replayed state error: got %q", errMsg)
	}
}

func TestOAuthRedirectProviderError(t *testing.T) {
	env := setupTestEnv(t)

	resp, body := env.get(t, "/oauth/redirect?error=access_denied")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status: got %d, want 400", resp.StatusCode)
	}
	if errMsg, _ := body["error"].(string); !strings.Contains(errMsg, "access_denied") {
		t.Errorf("Error should surface access_denied, got %q", errMsg)
	}
	if env.store.Len() != 0 {
		t.Error("No store mutation should have happened")
	}
}

func TestOAuthRefresh(t *testing.T) {
	env := setupTestEnv(t)

	resp, body := env.postJSON(t, "/auth/canva/refresh", map[string]string{"refresh_token": "old-rt"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Refresh: status %d, body %v", resp.StatusCode, body)
	}
	tokens, _ := body["tokens"].(map[string]any)
	if tokens["access_token"] != "stub-at" {
		t.Errorf("Expected refreshed token set, got %v", body)
	}
}

func TestSignupConflict(t *testing.T) {
	env := setupTestEnv(t)

	resp, body := env.postJSON(t, "/auth/signup", map[string]string{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Signup: status %d, body %v", resp.StatusCode, body)
	}
	if body["token"] == "" || body["token"] == nil {
		t.Error("Signup should return a token")
	}

	resp, body = env.postJSON(t, "/auth/signup", map[string]string{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Duplicate signup: status %d, want 400", resp.StatusCode)
	}
	if errMsg, _ := body["error"].(string); errMsg == "" {
		t.Error("Duplicate signup should return an error field")
	}
}

func TestSignupValidation(t *testing.T) {
	env := setupTestEnv(t)

	cases := []map[string]string{
		{"password": "pw123456"},               // missing email
		{"email": "a@x.com"},                   // missing password
		{"email": "not-an-email", "password": "pw123456"}, // malformed email
		{"email": "a@x.com", "password": "short"},         // short password
	}

	for _, body := range cases {
		resp, _ := env.postJSON(t, "/auth/signup", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Signup %v: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestMeFlow(t *testing.T) {
	env := setupTestEnv(t)

	_, body := env.postJSON(t, "/auth/signup", map[string]string{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("Signup should return a token")
	}

	// Valid token
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /auth/me failed: %v", err)
	}
	me := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Me: status %d, body %v", resp.StatusCode, me)
	}
	if me["email"] != "a@x.com" {
		t.Errorf("Me email: got %v", me["email"])
	}

	// Token truncated by one character
	req, _ = http.NewRequest(http.MethodGet, env.server.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token[:len(token)-1])
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /auth/me failed: %v", err)
	}
	decodeBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Truncated token: status %d, want 401", resp.StatusCode)
	}
}

func TestLoginFlow(t *testing.T) {
	env := setupTestEnv(t)

	env.postJSON(t, "/auth/signup", map[string]string{
		"email":    "a@x.com",
		"password": "pw123456",
	})

	// Correct credentials
	resp, body := env.postJSON(t, "/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login: status %d, body %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "a@x.com" {
		t.Errorf("Login user: got %v", body["user"])
	}

	// Wrong password and unknown email return the same shape and status
	respWrong, bodyWrong := env.postJSON(t, "/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "wrong-password",
	})
	respNoUser, bodyNoUser := env.postJSON(t, "/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "pw123456",
	})

	if respWrong.StatusCode != http.StatusUnauthorized || respNoUser.StatusCode != http.StatusUnauthorized {
		t.Errorf("Both failures should be 401, got %d and %d", respWrong.StatusCode, respNoUser.StatusCode)
	}
	if bodyWrong["error"] != bodyNoUser["error"] {
		t.Errorf("Failure bodies must be identical: %v vs %v", bodyWrong, bodyNoUser)
	}
}

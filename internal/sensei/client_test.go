package sensei

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensei/dashboard/internal/session"
)

func TestClient_GetTestCases(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/testcases/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("project") != "7" {
			t.Errorf("expected project=7, got %s", r.URL.Query().Get("project"))
		}
		json.NewEncoder(w).Encode([]TestCase{
			{ID: 1, Name: "check-1", Project: 7, Status: StatusRunning},
			{ID: 2, Name: "check-2", Project: 7, Status: StatusCompleted},
		})
	}))
	defer ts.Close()

	sessions := session.NewMemoryStore()
	sessions.SetToken("abc123")
	client := NewClient(ts.URL, sessions)

	cases, err := client.GetTestCases(context.Background(), ListOptions{Project: 7})
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "Token abc123", gotAuth)
	assert.Equal(t, StatusRunning, cases[0].Status)
}

func TestClient_NoTokenOmitsAuthorizationHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.Header["Authorization"]; present {
			t.Errorf("expected no Authorization header, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode([]TestCase{})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	_, err := client.GetTestCases(context.Background(), ListOptions{})
	require.NoError(t, err)
}

func TestClient_SessionExpiry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	sessions := session.NewMemoryStore()
	sessions.SetToken("stale")
	sessions.SetUser(`{"id":1}`)
	sessions.SetCurrentProject(`{"id":7}`)

	hookFired := false
	client := NewClient(ts.URL, sessions, WithSessionExpiredHook(func() { hookFired = true }))

	_, err := client.GetProjects(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindUnauthorized, apiErr.Kind)
	assert.True(t, hookFired)

	_, hasToken := sessions.Token()
	_, hasUser := sessions.User()
	_, hasProject := sessions.CurrentProject()
	assert.False(t, hasToken)
	assert.False(t, hasUser)
	assert.False(t, hasProject)
}

func TestClient_AnonymousUnauthorizedIsPlainHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	sessions := session.NewMemoryStore()
	hookFired := false
	client := NewClient(ts.URL, sessions, WithSessionExpiredHook(func() { hookFired = true }))

	_, err := client.GetProjects(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
	assert.False(t, hookFired)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindHTTP, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClient_DeleteEmptyBodySucceeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/testcases/42/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	err := client.DeleteTestCase(context.Background(), 42)
	assert.NoError(t, err)
}

func TestClient_DuplicateProjectNameSurfacesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"name":["project with this name already exists."]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	_, err := client.CreateProject(context.Background(), Project{Name: "support-bot"})
	require.Error(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(err.Error()), &fields))
	assert.Contains(t, fields, "name")
}

func TestClient_NonJSONErrorBodyDegradesToStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	_, err := client.GetProjects(context.Background())
	require.Error(t, err)
	assert.Equal(t, "API returned 502", err.Error())
}

func TestClient_NetworkErrorKind(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", session.NewMemoryStore())
	_, err := client.GetProjects(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindNetwork, apiErr.Kind)
}

func TestClient_UploadProfileMultipart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "multipart/form-data") {
			t.Errorf("expected multipart content type, got %q", contentType)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.FormValue("project") != "7" {
			t.Errorf("expected project=7, got %s", r.FormValue("project"))
		}
		if r.FormValue("ignore_validation_errors") != "true" {
			t.Errorf("expected ignore_validation_errors=true, got %s", r.FormValue("ignore_validation_errors"))
		}
		json.NewEncoder(w).Encode(UploadResult{Uploaded: []string{"profile.yml"}})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	result, err := client.UploadProfile(context.Background(), UploadRequest{
		ProjectID:              7,
		Files:                  map[string][]byte{"profile.yml": []byte("name: smoke\nturns: 3\n")},
		IgnoreValidationErrors: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"profile.yml"}, result.Uploaded)
}

func TestClient_UploadProfileRejectsBrokenYAML(t *testing.T) {
	client := NewClient("http://unused", session.NewMemoryStore())
	_, err := client.UploadProfile(context.Background(), UploadRequest{
		ProjectID: 7,
		Files:     map[string][]byte{"broken.yml": []byte("name: [unclosed")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yml")
}

func TestClient_GetConnectorTechnologies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/connector-technologies/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode([]Technology{
			{Name: "rasa", Parameters: []string{"url"}},
			{Name: "openai", Parameters: []string{"api_key", "model"}},
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	techs, err := client.GetConnectorTechnologies(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 2)
	assert.Equal(t, "rasa", techs[0].Name)
	assert.Equal(t, []string{"api_key", "model"}, techs[1].Parameters)
}

func TestClient_DownloadGraphFormats(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reports/42/graph/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("format") == "png" {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
			return
		}
		w.Write([]byte(`{"nodes":[]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())

	data, err := client.DownloadGraph(context.Background(), 42, "png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)

	data, err = client.DownloadGraph(context.Background(), 42, "")
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestClient_Login(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login/" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["username"] != "alice" {
			t.Errorf("expected username alice, got %s", payload["username"])
		}
		json.NewEncoder(w).Encode(loginResponse{
			Token: "abc123",
			User:  User{ID: 1, Username: "alice"},
		})
	}))
	defer ts.Close()

	sessions := session.NewMemoryStore()
	client := NewClient(ts.URL, sessions)

	user, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	token, ok := sessions.Token()
	require.True(t, ok)
	assert.Equal(t, "abc123", token)

	serialized, ok := sessions.User()
	require.True(t, ok)
	assert.Contains(t, serialized, `"alice"`)
}

func TestClient_ReadIsIdempotent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]TestCase{{ID: 1, Name: "check-1", Status: StatusCompleted}})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, session.NewMemoryStore())
	first, err := client.GetTestCases(context.Background(), ListOptions{Project: 1})
	require.NoError(t, err)
	second, err := client.GetTestCases(context.Background(), ListOptions{Project: 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

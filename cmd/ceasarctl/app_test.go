package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceasar/auth-service/pkg/authclient"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret1" {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
			return
		}
		reply(w, http.StatusOK, map[string]string{"token": "tok", "expiresAt": "2024-05-01T12:10:00.000Z"})
	})
	mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["token"] != "tok" {
			reply(w, http.StatusUnauthorized, map[string]any{"valid": false, "message": "Invalid token"})
			return
		}
		reply(w, http.StatusOK, map[string]any{
			"valid":     true,
			"message":   "Token is valid",
			"user":      map[string]any{"id": "01H", "username": "alice", "permissions": []string{"user"}},
			"expiresAt": "2024-05-01T12:10:00.000Z",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testTerminal(input, password string) (*terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return &terminal{
		in:           bufio.NewReader(strings.NewReader(input)),
		out:          &out,
		err:          &bytes.Buffer{},
		now:          func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		readPassword: func() (string, error) { return password, nil },
	}, &out
}

func TestRun_LoginWhoamiLogout(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	base := []string{"--server", srv.URL, "--session", session}

	term, out := testTerminal("alice\n", "secret1")
	require.NoError(t, run(append(base, "login"), term))
	assert.Contains(t, out.String(), "logged in as alice")

	stored, err := authclient.NewFileStore(session).Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", stored.Token)

	term, out = testTerminal("", "")
	require.NoError(t, run(append(base, "whoami"), term))
	assert.Contains(t, out.String(), "alice (id 01H)")
	assert.Contains(t, out.String(), "expires in: 10m0s")

	term, out = testTerminal("", "")
	require.NoError(t, run(append(base, "logout"), term))
	assert.Contains(t, out.String(), "logged out")

	term, _ = testTerminal("", "")
	assert.EqualError(t, run(append(base, "whoami"), term), "not logged in")
}

func TestRun_RegisterWithUsernameFlag(t *testing.T) {
	srv := fakeServer(t)
	term, out := testTerminal("", "secret1")
	args := []string{"--server", srv.URL, "--session", filepath.Join(t.TempDir(), "s.json"), "register", "-u", "alice"}

	require.NoError(t, run(args, term))
	assert.Contains(t, out.String(), "registered alice")
}

func TestRun_LoginRejected(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	term, _ := testTerminal("", "wrong")

	err := run([]string{"--server", srv.URL, "--session", session, "login", "-u", "alice"}, term)
	require.Error(t, err)
	assert.True(t, authclient.IsStatus(err, http.StatusUnauthorized))

	_, err = authclient.NewFileStore(session).Load()
	assert.ErrorIs(t, err, authclient.ErrNoSession)
}

func TestRun_WhoamiClearsRejectedSession(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, authclient.NewFileStore(session).Save(authclient.Session{Token: "forged"}))

	term, _ := testTerminal("", "")
	err := run([]string{"--server", srv.URL, "--session", session, "whoami"}, term)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token")

	_, err = authclient.NewFileStore(session).Load()
	assert.ErrorIs(t, err, authclient.ErrNoSession)
}

func TestRun_UnknownCommand(t *testing.T) {
	term, _ := testTerminal("", "")
	err := run([]string{"--session", filepath.Join(t.TempDir(), "s.json"), "frobnicate"}, term)
	assert.EqualError(t, err, `unknown command "frobnicate"`)

	assert.EqualError(t, run(nil, term), "missing command")
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/types"
)

func TestToken_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/token/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req types.TokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "alice" {
			t.Errorf("wrong username: %q", req.Username)
		}
		_ = json.NewEncoder(w).Encode(types.TokenResponse{Access: "tok-1"})
	}))
	defer srv.Close()

	cred, err := Token(context.Background(), srv.Client(), srv.URL, types.TokenRequest{Username: "alice", Password: "pw"})
	if err != nil || cred.Token != "tok-1" {
		t.Fatalf("Token unexpected: cred=%+v err=%v", cred, err)
	}
}

func TestToken_InvalidCredentials(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(types.ErrorBody{Detail: "bad credentials"})
	}))
	defer srv.Close()

	_, err := Token(context.Background(), srv.Client(), srv.URL, types.TokenRequest{Username: "alice", Password: "nope"})
	if !apierr.IsAuth(err, apierr.AuthInvalidCredentials) {
		t.Fatalf("expected invalid-credentials AuthError, got %v", err)
	}
}

func TestToken_Unreachable(t *testing.T) {
	t.Parallel()
	_, err := Token(context.Background(), http.DefaultClient, "http://127.0.0.1:1", types.TokenRequest{Username: "a", Password: "b"})
	if !apierr.IsAuth(err, apierr.AuthUnreachable) {
		t.Fatalf("expected unreachable AuthError, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := Register(context.Background(), srv.Client(), srv.URL, types.RegisterRequest{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(types.ErrorBody{Error: "username already taken"})
	}))
	defer srv.Close()

	err := Register(context.Background(), srv.Client(), srv.URL, types.RegisterRequest{Username: "bob", Password: "pw"})
	if !apierr.IsAuth(err, apierr.AuthUsernameTaken) {
		t.Fatalf("expected username-taken AuthError, got %v", err)
	}
}

func TestRegister_CtxCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if err := Register(ctx, srv.Client(), srv.URL, types.RegisterRequest{Username: "a", Password: "b"}); err == nil {
		t.Fatal("expected context canceled")
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inboxfw/inboxfw/internal/apierr"
	"github.com/inboxfw/inboxfw/internal/types"
)

func TestListEmails_Success(t *testing.T) {
	t.Parallel()
	spam := "ham"
	want := []types.EmailRecord{
		{ID: "e1", SenderUsername: "bob", Subject: "hi", SpamLabel: &spam},
		{ID: "e2", SenderUsername: "carol", Subject: "agenda"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/emails/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := ListEmails(context.Background(), srv.Client(), srv.URL)
	if err != nil || len(got) != 2 || got[0].ID != "e1" || got[1].Subject != "agenda" {
		t.Fatalf("ListEmails unexpected: got=%+v err=%v", got, err)
	}
	if got[0].SpamLabel == nil || *got[0].SpamLabel != "ham" {
		t.Fatalf("enrichment field lost: %+v", got[0])
	}
	if got[1].SpamLabel != nil {
		t.Fatal("uncomputed enrichment field must stay nil")
	}
}

func TestListEmails_NonOKStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := ListEmails(context.Background(), srv.Client(), srv.URL)
	var fe *apierr.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected FetchError with status 500, got %v", err)
	}
	if fe.Category != apierr.Recoverable {
		t.Fatalf("5xx must classify as recoverable, got %v", fe.Category)
	}
}

func TestListEmails_NetworkError(t *testing.T) {
	t.Parallel()
	_, err := ListEmails(context.Background(), http.DefaultClient, "http://127.0.0.1:1")
	var fe *apierr.FetchError
	if !errors.As(err, &fe) || fe.Category != apierr.Recoverable {
		t.Fatalf("expected recoverable FetchError, got %v", err)
	}
}

func TestListEmails_DecodeError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{bad json"))
	}))
	defer srv.Close()
	if _, err := ListEmails(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSendEmail_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.SendEmailRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RecipientUsername != "carol" || req.Subject != "hello" {
			t.Errorf("unexpected payload: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := SendEmail(context.Background(), srv.Client(), srv.URL, types.SendEmailRequest{
		RecipientUsername: "carol", Subject: "hello", Body: "hi",
	})
	if err != nil {
		t.Fatalf("SendEmail error: %v", err)
	}
}

func TestSendEmail_ErrorBodySurfaces(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(types.ErrorBody{Detail: "no such recipient"})
	}))
	defer srv.Close()

	err := SendEmail(context.Background(), srv.Client(), srv.URL, types.SendEmailRequest{RecipientUsername: "ghost"})
	if err == nil || !errors.As(err, new(*apierr.FetchError)) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

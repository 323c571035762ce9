package civichttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		baseURL string
	}{
		{name: "empty", baseURL: ""},
		{name: "blank", baseURL: "   "},
		{name: "no scheme", baseURL: "api.example.com"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewClient(tc.baseURL, time.Second); err == nil {
				t.Fatalf("expected error for base url %q", tc.baseURL)
			}
		})
	}
}

func TestDoJSONSendsBearerTokenFromContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("unexpected Content-Type: %q", got)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := WithToken(context.Background(), " session-token ")
	if err := client.DoJSON(ctx, http.MethodPost, "auth/me", nil, nil); err != nil {
		t.Fatalf("do json: %v", err)
	}
}

func TestDoJSONOmitsAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.DoJSON(context.Background(), http.MethodPost, "/auth/login", map[string]string{"identifier": "x"}, nil); err != nil {
		t.Fatalf("do json: %v", err)
	}
}

func TestDoJSONClassifiesStatusCodes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		status   int
		sentinel error
	}{
		{name: "not found", status: http.StatusNotFound, sentinel: ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, sentinel: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, sentinel: ErrUnauthorized},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client, err := NewClient(server.URL, time.Second)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			err = client.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected sentinel for status %d, got %v", tc.status, err)
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %T", err)
			}
			if reqErr.StatusCode != tc.status {
				t.Fatalf("unexpected status code: %d", reqErr.StatusCode)
			}
		})
	}
}

func TestDoJSONExtractsServerDetail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"rating already flagged"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.DoJSON(context.Background(), http.MethodPost, "/ratings/flag-rating/1", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Detail(err); got != "rating already flagged" {
		t.Fatalf("unexpected detail: %q", got)
	}
}

func TestDetailIsEmptyForPlainErrors(t *testing.T) {
	t.Parallel()

	if got := Detail(errors.New("boom")); got != "" {
		t.Fatalf("unexpected detail: %q", got)
	}
	if got := Detail(nil); got != "" {
		t.Fatalf("unexpected detail for nil: %q", got)
	}
}

func TestUploadMultipartCarriesFileAndFields(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if got := r.FormValue("vault_entry_id"); got != "42" {
			t.Fatalf("unexpected vault_entry_id: %q", got)
		}
		if got := r.FormValue("description"); got != "bodycam clip" {
			t.Fatalf("unexpected description: %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.mp4" {
			t.Fatalf("unexpected file name: %q", header.Filename)
		}
		content, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if string(content) != "video-bytes" {
			t.Fatalf("unexpected file content: %q", string(content))
		}

		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	response := struct {
		ID int64 `json:"id"`
	}{}
	err = client.UploadMultipart(
		context.Background(),
		"/vault",
		"clip.mp4",
		strings.NewReader("video-bytes"),
		map[string]string{"vault_entry_id": "42", "description": "bodycam clip"},
		&response,
	)
	if err != nil {
		t.Fatalf("upload multipart: %v", err)
	}
	if response.ID != 7 {
		t.Fatalf("unexpected response id: %d", response.ID)
	}
}

func TestEnsureLeadingSlash(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{in: "", want: "/"},
		{in: "auth/login", want: "/auth/login"},
		{in: "/auth/login", want: "/auth/login"},
		{in: "  /feed ", want: "/feed"},
	}

	for _, tc := range testCases {
		if got := ensureLeadingSlash(tc.in); got != tc.want {
			t.Fatalf("ensureLeadingSlash(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

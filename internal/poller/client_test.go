package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/receipt_messages/pending", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("auth_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","messages":[
			{"id":42,"content":"Hello!","sender_name":"Bob","sender_ip":"10.0.0.1",
			 "status":"pending","created_at":"2025-02-19T14:30:00Z"},
			{"id":43,"content":"Look","sender_name":null,"sender_ip":"10.0.0.2",
			 "image_url":"/api/receipt_messages/43/image",
			 "status":"pending","created_at":"2025-02-19T15:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	messages, err := c.FetchPending(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, int64(42), messages[0].ID)
	assert.Equal(t, "Bob", messages[0].SenderName)
	assert.Empty(t, messages[0].ImageURL)

	assert.Equal(t, "", messages[1].SenderName, "null sender decodes to empty")
	assert.Equal(t, "/api/receipt_messages/43/image", messages[1].ImageURL)
}

func TestFetchPendingUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "wrong").FetchPending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECEIPT_PRINTER_API_TOKEN")
}

func TestMarkPrintedAndFailed(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("auth_token"))
		paths = append(paths, r.URL.Path)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	require.NoError(t, c.MarkPrinted(context.Background(), 42))
	require.NoError(t, c.MarkFailed(context.Background(), 43))

	assert.Equal(t, []string{
		"/api/receipt_messages/42/printed",
		"/api/receipt_messages/43/failed",
	}, paths)
}

func TestDownloadImageResolvesRelativeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/receipt_messages/43/image", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("auth_token"))
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	data, err := c.DownloadImage(context.Background(), "/api/receipt_messages/43/image")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)
}

func TestDownloadImageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "secret").DownloadImage(context.Background(), "/missing.png")
	assert.Error(t, err)
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	c := NewClient("https://example.com/", "tok")
	assert.Equal(t, "https://example.com", c.baseURL)
}

package webserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermesworks/receiptd/internal/history"
	"github.com/hermesworks/receiptd/internal/scheduler"
	"github.com/hermesworks/receiptd/internal/usb"
)

// newTestServer wires the mux to a scheduler whose dispatches land on a
// channel instead of hardware.
func newTestServer(t *testing.T) (*httptest.Server, chan scheduler.Job) {
	t.Helper()

	if history.DBClient != nil {
		history.CloseDB()
	}
	_, err := history.SetupDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(history.CloseDB)

	jobs := make(chan scheduler.Job, 16)
	sched := scheduler.New(func(target scheduler.Target, job scheduler.Job) error {
		jobs <- job
		return nil
	}, nil)
	target := &scheduler.Target{ProductID: 0x0e15, ModelName: "TM-T88VI", MaxChars: 48}
	sched.SetPrinter(target)

	deps = Deps{
		Sched:   sched,
		Printer: func() *scheduler.Target { return target },
		Scan: func() ([]usb.DiscoveredPrinter, error) {
			return []usb.DiscoveredPrinter{
				{VendorID: 0x04b8, ProductID: 0x0e15, ModelName: "TM-T88VI"},
			}, nil
		},
	}

	srv := httptest.NewServer(buildMux())
	t.Cleanup(srv.Close)
	return srv, jobs
}

func waitForJob(t *testing.T, jobs chan scheduler.Job) scheduler.Job {
	t.Helper()
	select {
	case job := <-jobs:
		return job
	case <-time.After(5 * time.Second):
		t.Fatal("no job dispatched")
		return scheduler.Job{}
	}
}

func TestTextEndpointQueuesMarkdownJob(t *testing.T) {
	srv, jobs := newTestServer(t)

	resp, err := http.Post(srv.URL+"/print/text", "text/plain",
		strings.NewReader("# RIVERSIDE CAFE\n\nEspresso | $3.00"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	job := waitForJob(t, jobs)
	assert.Equal(t, "shell", job.Source)
	assert.NotEmpty(t, job.Blocks, "text must be parsed into blocks")
	assert.Nil(t, job.Image)
}

func TestTextEndpointRejectsEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/print/text", "text/plain", strings.NewReader("  \n "))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTextEndpointFiltersElixirOutput(t *testing.T) {
	srv, jobs := newTestServer(t)

	body := "10:00:00 [info] GET /\n10:00:01 [info] Sent 200 in 2ms\n"
	resp, err := http.Post(srv.URL+"/print/text?source=phx.server", "text/plain",
		strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case job := <-jobs:
		t.Fatalf("info-only output must not print, got job %s", job.ID)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTextEndpointKeepsElixirErrors(t *testing.T) {
	srv, jobs := newTestServer(t)

	body := "10:00:00 [info] GET /\n" +
		"10:00:01 [error] ** (RuntimeError) boom\n" +
		"    (myapp) lib/myapp.ex:10\n" +
		"10:00:02 [info] Sent 500 in 4ms\n"
	resp, err := http.Post(srv.URL+"/print/text?source=elixir", "text/plain",
		strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	job := waitForJob(t, jobs)
	assert.Equal(t, "elixir", job.Source)
	assert.NotEmpty(t, job.Blocks)
}

func TestUploadEndpointQueuesImageJob(t *testing.T) {
	srv, jobs := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	fw.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/print/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	job := waitForJob(t, jobs)
	assert.Equal(t, "upload", job.Source)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, job.Image)
	assert.Empty(t, job.Blocks)
}

func TestUploadEndpointRequiresImageField(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("document", "notes.txt")
	fw.Write([]byte("hi"))
	mw.Close()

	resp, err := http.Post(srv.URL+"/print/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	require.NotNil(t, status.Printer)
	assert.Equal(t, "TM-T88VI", status.Printer.ModelName)
	assert.Equal(t, 48, status.Printer.MaxChars)
}

func TestJobsEndpointReturnsHistory(t *testing.T) {
	srv, _ := newTestServer(t)

	require.NoError(t, history.RecordJob(history.JobRow{
		ID: "seed", Source: "manual", Content: "hello",
	}))

	resp, err := http.Get(srv.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Jobs []history.JobRow `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Jobs, 1)
	assert.Equal(t, "seed", payload.Jobs[0].ID)
}

func TestIndexServesUploadPage(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "Print Photo")
}

func TestCaptivePortalProbes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/hotspot-detect.html")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/generate_204")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFilterElixirErrors(t *testing.T) {
	in := "a [error] boom\nstack line\n[info] fine\n[error] again\n"
	got := filterElixirErrors(in)
	assert.Equal(t, "a [error] boom\nstack line\n[error] again", got)
}

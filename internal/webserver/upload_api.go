package webserver

import (
	"io"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/history"
	"github.com/hermesworks/receiptd/internal/receipt"
	"github.com/hermesworks/receiptd/internal/scheduler"
	"github.com/hermesworks/receiptd/internal/shared/logger"
)

const maxUploadBytes = 15 * 1024 * 1024

func newJobID(prefix string) string {
	id, err := gonanoid.New()
	if err != nil {
		// gonanoid only fails when the OS random source does.
		return prefix + "-fallback"
	}
	return prefix + "-" + id
}

// handleUpload accepts a multipart form with an "image" field and queues
// it for printing.
func handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No 'image' field found", http.StatusBadRequest)
		return
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Read error", http.StatusBadRequest)
		return
	}
	if len(bytes) == 0 {
		http.Error(w, "Empty file", http.StatusBadRequest)
		return
	}

	logger.Info("Upload received", zap.Int("bytes", len(bytes)))

	jobID := newJobID("upload")
	if err := history.RecordJob(history.JobRow{
		ID:       jobID,
		Source:   "upload",
		Content:  "(photo)",
		HasImage: true,
	}); err != nil {
		logger.Warn("Failed to record job history", zap.Error(err))
	}

	deps.Sched.Submit(scheduler.Job{
		ID:     jobID,
		Source: "upload",
		Image:  bytes,
	})

	w.Write([]byte("Queued for printing"))
}

// handleText accepts a plain text body and queues it as a markdown job.
// The source query param controls severity filtering: Elixir-flavored
// sources only print their [error] blocks.
func handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "Read error", http.StatusBadRequest)
		return
	}
	text := string(body)
	if strings.TrimSpace(text) == "" {
		http.Error(w, "Empty text", http.StatusBadRequest)
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "shell"
	}

	filtered := filterBySource(text, source)
	if strings.TrimSpace(filtered) == "" {
		w.Write([]byte("Filtered (no errors)"))
		return
	}

	logger.Info("Text print received",
		zap.Int("bytes", len(filtered)),
		zap.String("source", source),
		zap.Int("original_bytes", len(text)))

	jobID := newJobID("text")
	if err := history.RecordJob(history.JobRow{
		ID:      jobID,
		Source:  source,
		Content: filtered,
	}); err != nil {
		logger.Warn("Failed to record job history", zap.Error(err))
	}

	deps.Sched.Submit(scheduler.Job{
		ID:     jobID,
		Source: source,
		Blocks: receipt.ParseMarkdown(filtered),
	})

	w.Write([]byte("Queued for printing"))
}

// filterBySource applies the log-format filter for the source program.
func filterBySource(text, source string) string {
	switch source {
	case "phx.server", "elixir", "mix":
		return filterElixirErrors(text)
	default:
		return text
	}
}

// filterElixirErrors keeps only [error] log blocks from Elixir or Phoenix
// output. An error block starts at a line containing [error] and runs
// until the next log level marker.
func filterElixirErrors(text string) string {
	var kept []string
	inErrorBlock := false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.Contains(line, "[error]"):
			inErrorBlock = true
			kept = append(kept, line)
		case strings.Contains(line, "[info]") ||
			strings.Contains(line, "[debug]") ||
			strings.Contains(line, "[warning]") ||
			strings.Contains(line, "[notice]"):
			inErrorBlock = false
		case inErrorBlock:
			// Continuation line, stacktrace and the like.
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

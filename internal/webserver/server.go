// Package webserver exposes the phone upload page and the JSON API used
// to watch the print queue.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/scheduler"
	"github.com/hermesworks/receiptd/internal/shared/logger"
	"github.com/hermesworks/receiptd/internal/usb"
)

var httpServer *http.Server

// Deps wires the handlers to the rest of the process.
type Deps struct {
	Sched *scheduler.Scheduler
	// Printer returns the currently selected target, nil when none.
	Printer func() *scheduler.Target
	// Scan enumerates attached printers for /api/printers.
	Scan func() ([]usb.DiscoveredPrinter, error)
}

var deps Deps

// corsMiddleware adds CORS headers to HTTP handlers
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/print/upload", corsMiddleware(handleUpload))
	mux.HandleFunc("/print/text", corsMiddleware(handleText))

	mux.HandleFunc("/api/status", corsMiddleware(handleStatus))
	mux.HandleFunc("/api/jobs", corsMiddleware(handleJobs))
	mux.HandleFunc("/api/printers", corsMiddleware(handlePrinters))

	RegisterWebSocketRoute(mux)

	// Captive portal probes: answer so phones keep the hotspot network.
	mux.HandleFunc("/hotspot-detect.html", handleCaptiveSuccess)
	mux.HandleFunc("/library/test/success.html", handleCaptiveSuccess)
	mux.HandleFunc("/generate_204", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Upload page doubles as the catch-all.
	mux.HandleFunc("/", handleIndex)

	return mux
}

// StartWebServer wires the handlers and serves on the given port.
func StartWebServer(port int, d Deps) error {
	deps = d

	httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: buildMux(),
	}

	go func() {
		logger.Info("Web server started", zap.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Web server error", zap.Error(err))
		}
	}()

	return nil
}

// StopWebServer shuts the server down gracefully.
func StopWebServer() {
	if httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("Web server shutdown error", zap.Error(err))
	}
	httpServer = nil
}

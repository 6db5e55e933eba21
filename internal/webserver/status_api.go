package webserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/history"
	"github.com/hermesworks/receiptd/internal/shared/logger"
)

type printerInfo struct {
	ProductID uint16 `json:"product_id"`
	ModelName string `json:"model_name"`
	MaxChars  int    `json:"max_chars"`
}

type statusResponse struct {
	Status   string       `json:"status"`
	Printing bool         `json:"printing"`
	QueueLen int          `json:"queue_len"`
	Printer  *printerInfo `json:"printer"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// handleStatus reports printer selection and queue state.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:   "ok",
		Printing: deps.Sched.Printing(),
		QueueLen: deps.Sched.QueueLen(),
	}
	if target := deps.Printer(); target != nil {
		resp.Printer = &printerInfo{
			ProductID: target.ProductID,
			ModelName: target.ModelName,
			MaxChars:  target.MaxChars,
		}
	}
	writeJSON(w, resp)
}

// handleJobs returns recent print history, newest first.
func handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := history.RecentJobs(50)
	if err != nil {
		logger.Error("Failed to load job history", zap.Error(err))
		http.Error(w, "History unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"jobs": jobs})
}

// handlePrinters rescans the bus and lists attached Epson devices.
func handlePrinters(w http.ResponseWriter, r *http.Request) {
	printers, err := deps.Scan()
	if err != nil {
		logger.Error("Printer scan failed", zap.Error(err))
		http.Error(w, "Scan failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"printers": printers})
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/connection"
	"github.com/hermesworks/receiptd/internal/env"
	"github.com/hermesworks/receiptd/internal/history"
	"github.com/hermesworks/receiptd/internal/platform"
	"github.com/hermesworks/receiptd/internal/poller"
	"github.com/hermesworks/receiptd/internal/scheduler"
	"github.com/hermesworks/receiptd/internal/shared/logger"
	"github.com/hermesworks/receiptd/internal/thermal"
	"github.com/hermesworks/receiptd/internal/usb"
	"github.com/hermesworks/receiptd/internal/version"
	"github.com/hermesworks/receiptd/internal/webserver"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	logger.Info("Starting receiptd", zap.String("version", version.String()))

	for _, warning := range platform.CheckPrerequisites() {
		logger.Warn(warning)
	}

	if _, err := history.SetupDB(env.Value.HistoryDBPath); err != nil {
		logger.Fatal("Failed to setup history database", zap.Error(err))
	}

	manager := connection.NewManager(nil)

	target := selectPrinter()
	if target == nil {
		logger.Warn("No printer attached, jobs will fail until one is plugged in")
	}

	dispatch := func(t scheduler.Target, job scheduler.Job) error {
		if env.Value.DryRunMode {
			logger.Info("Dry run, job not sent to hardware",
				zap.String("id", job.ID), zap.Int("blocks", len(job.Blocks)))
			return nil
		}

		image := job.Image
		if len(image) > 0 {
			processed, err := thermal.Preprocess(image)
			if err != nil {
				logger.Warn("Image preprocessing failed, printing text only",
					zap.String("id", job.ID), zap.Error(err))
				image = nil
			} else {
				image = processed
			}
		}
		return manager.PrintJob(t.ProductID, t.ModelName, job.Blocks, t.MaxChars, image)
	}

	var websitePoller *poller.Poller

	onComplete := func(job scheduler.Job, err error) {
		status := history.StatusPrinted
		errMsg := ""
		if err != nil {
			status = history.StatusFailed
			errMsg = err.Error()
		}
		if uerr := history.UpdateJobStatus(job.ID, status, errMsg); uerr != nil {
			logger.Warn("Failed to update job history", zap.Error(uerr))
		}
		webserver.BroadcastJobStatus(job.ID, status, errMsg)
		if websitePoller != nil {
			websitePoller.HandleCompletion(job.ID, err)
		}
	}

	sched := scheduler.New(dispatch, onComplete)
	sched.SetPrinter(target)

	if env.PollerConfigured() {
		client := poller.NewClient(env.Value.PollWebsiteURL, env.Value.PollAuthToken)
		websitePoller = poller.New(client,
			time.Duration(env.Value.PollInterval)*time.Second, sched)
		websitePoller.Start()
	} else {
		logger.Info("Website poller disabled, POLL_WEBSITE_URL or token not set")
	}

	port := env.Value.ServerPort
	if err := webserver.StartWebServer(port, webserver.Deps{
		Sched:   sched,
		Printer: func() *scheduler.Target { return target },
		Scan:    usb.Scan,
	}); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	if target != nil && !env.Value.DryRunMode {
		webserver.PrintWelcomeTicket(sched, port)
	}

	logger.Info("Server started",
		zap.Int("port", port),
		zap.String("upload", fmt.Sprintf("http://localhost:%d/", port)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	if websitePoller != nil {
		websitePoller.Stop()
	}
	webserver.StopWebServer()
	manager.Close()
	history.CloseDB()

	logger.Info("Shutdown complete")
}

// selectPrinter scans the bus and picks the first Epson device.
func selectPrinter() *scheduler.Target {
	printers, err := usb.Scan()
	if err != nil {
		logger.Warn("USB scan failed", zap.Error(err))
		return nil
	}
	if len(printers) == 0 {
		return nil
	}

	p := printers[0]
	target := &scheduler.Target{
		ProductID: p.ProductID,
		ModelName: p.ModelName,
		MaxChars:  usb.MaxCharsFor(p.VendorID, p.ProductID),
	}
	logger.Info("Selected printer",
		zap.String("model", target.ModelName),
		zap.Int("max_chars", target.MaxChars))
	return target
}

package webserver

import (
	"fmt"
	"net"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/receipt"
	"github.com/hermesworks/receiptd/internal/scheduler"
	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// PrintWelcomeTicket queues a ticket with the upload URL and a QR code
// so phones can find the server without typing an address.
func PrintWelcomeTicket(sched *scheduler.Scheduler, port int) {
	url := fmt.Sprintf("http://%s:%d/", localIP(), port)

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		logger.Warn("Failed to render welcome QR code", zap.Error(err))
		png = nil
	}

	blocks := []receipt.Block{
		receipt.DividerBlock(),
		receipt.HeadingBlock([]receipt.Span{receipt.HeadingSpan("PRINT STATION")}),
		receipt.DividerBlock(),
		receipt.BlankBlock(),
		receipt.LineBlock([]receipt.Span{
			receipt.BoldSpan("Upload: "),
			receipt.PlainSpan(url),
		}, receipt.AlignLeft),
		receipt.BlankBlock(),
		receipt.LineBlock([]receipt.Span{
			receipt.PlainSpan("Scan the code below to print a photo"),
		}, receipt.AlignCenter),
	}

	sched.Submit(scheduler.Job{
		ID:     newJobID("welcome"),
		Source: "system",
		Blocks: blocks,
		Image:  png,
	})
}

// localIP finds the LAN address phones should dial. The UDP dial never
// sends a packet; it only resolves the outbound interface.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

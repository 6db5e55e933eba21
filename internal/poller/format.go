package poller

import (
	"strings"

	"github.com/hermesworks/receiptd/internal/receipt"
)

// FormatMessage turns a website message into receipt blocks: a banner,
// sender and time lines, then the content one line per block.
func FormatMessage(msg Message) []receipt.Block {
	blocks := []receipt.Block{
		receipt.DividerBlock(),
		receipt.HeadingBlock([]receipt.Span{receipt.HeadingSpan("MESSAGE")}),
		receipt.DividerBlock(),
		receipt.BlankBlock(),
	}

	sender := msg.SenderName
	if sender == "" {
		sender = msg.SenderIP
	}
	if sender == "" {
		sender = "anonymous"
	}
	blocks = append(blocks, receipt.LineBlock([]receipt.Span{
		receipt.BoldSpan("From: "),
		receipt.PlainSpan(sender),
	}, receipt.AlignLeft))

	blocks = append(blocks, receipt.LineBlock([]receipt.Span{
		receipt.BoldSpan("Time: "),
		receipt.PlainSpan(formatTime(msg.CreatedAt)),
	}, receipt.AlignLeft))

	blocks = append(blocks,
		receipt.BlankBlock(),
		receipt.DividerBlock(),
		receipt.BlankBlock(),
	)

	for _, line := range strings.Split(msg.Content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			blocks = append(blocks, receipt.BlankBlock())
		} else {
			blocks = append(blocks, receipt.LineBlock([]receipt.Span{
				receipt.PlainSpan(line),
			}, receipt.AlignLeft))
		}
	}

	blocks = append(blocks, receipt.BlankBlock(), receipt.DividerBlock())
	return blocks
}

// formatTime shortens an ISO timestamp: "2025-02-19T14:30:00Z" becomes
// "2025-02-19 14:30".
func formatTime(iso string) string {
	if len(iso) >= 16 {
		iso = iso[:16]
	}
	return strings.Replace(iso, "T", " ", 1)
}

// Command preview renders receipt markdown to the terminal without a
// printer attached. Useful for checking layouts before burning paper.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hermesworks/receiptd/internal/receipt"
	"github.com/hermesworks/receiptd/internal/usb"
)

func main() {
	width := flag.Int("width", usb.DefaultMaxChars, "characters per line")
	showCommands := flag.Bool("commands", false, "dump the compiled command stream instead of the layout")
	flag.Parse()

	var input []byte
	var err error
	if path := flag.Arg(0); path != "" {
		input, err = os.ReadFile(path)
	} else {
		input, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	blocks := receipt.ParseMarkdown(string(input))

	if *showCommands {
		for _, cmd := range receipt.CompileDocument(blocks, *width) {
			fmt.Println(describe(cmd))
		}
		return
	}

	ruler := strings.Repeat("=", *width)
	fmt.Println(ruler)
	for _, line := range receipt.WrapDocument(blocks, *width) {
		fmt.Println(renderLine(line, *width))
	}
	fmt.Println(ruler)
}

// renderLine pads according to alignment so the terminal output matches
// the paper layout.
func renderLine(line receipt.WrappedLine, width int) string {
	var sb strings.Builder
	for _, span := range line.Spans {
		sb.WriteString(span.Text)
	}
	text := sb.String()

	pad := width - len([]rune(text))
	if pad <= 0 {
		return text
	}
	switch line.Alignment {
	case receipt.AlignCenter:
		return strings.Repeat(" ", pad/2) + text
	case receipt.AlignRight:
		return strings.Repeat(" ", pad) + text
	default:
		return text
	}
}

func describe(cmd receipt.Command) string {
	switch cmd.Kind {
	case receipt.CmdSetBold:
		return fmt.Sprintf("SetBold(%v)", cmd.On)
	case receipt.CmdSetUnderline:
		return fmt.Sprintf("SetUnderline(%v)", cmd.On)
	case receipt.CmdSetDoubleSize:
		return fmt.Sprintf("SetDoubleSize(%v)", cmd.On)
	case receipt.CmdSetAlignment:
		return fmt.Sprintf("SetAlignment(%s)", cmd.Align)
	case receipt.CmdWrite:
		return fmt.Sprintf("Write(%q)", cmd.Text)
	case receipt.CmdFeed:
		return "Feed"
	default:
		return "Unknown"
	}
}

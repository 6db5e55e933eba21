package receipt

// CommandKind tags the Command variant.
type CommandKind int

const (
	CmdSetBold CommandKind = iota
	CmdSetUnderline
	CmdSetDoubleSize
	CmdSetAlignment
	CmdWrite
	CmdFeed
)

// Command is one abstract printer instruction. Purely data: On is
// meaningful for the Set* toggles, Align for SetAlignment, Text for Write.
type Command struct {
	Kind  CommandKind
	On    bool
	Align Alignment
	Text  string
}

func SetBold(on bool) Command       { return Command{Kind: CmdSetBold, On: on} }
func SetUnderline(on bool) Command  { return Command{Kind: CmdSetUnderline, On: on} }
func SetDoubleSize(on bool) Command { return Command{Kind: CmdSetDoubleSize, On: on} }
func SetAlignment(a Alignment) Command {
	return Command{Kind: CmdSetAlignment, Align: a}
}
func Write(text string) Command { return Command{Kind: CmdWrite, Text: text} }
func Feed() Command             { return Command{Kind: CmdFeed} }

// CompileDocument parses nothing and performs no I/O: wrap the blocks and
// compile the wrapped lines in one step.
func CompileDocument(blocks []Block, maxChars int) []Command {
	return Compile(WrapDocument(blocks, maxChars))
}

// Compile turns wrapped lines into an ordered command stream. Pure and
// deterministic. Format and alignment state is tracked so a Set* command
// is only emitted on an actual transition: consumers treat every Set* as
// a hardware round trip, so redundant commands are a correctness bug.
func Compile(lines []WrappedLine) []Command {
	var commands []Command
	currentAlignment := AlignLeft

	for _, line := range lines {
		if line.Alignment != currentAlignment {
			commands = append(commands, SetAlignment(line.Alignment))
			currentAlignment = line.Alignment
		}

		boldOn := false
		underlineOn := false
		doubleOn := false

		for _, span := range line.Spans {
			if span.Format.Bold != boldOn {
				commands = append(commands, SetBold(span.Format.Bold))
				boldOn = span.Format.Bold
			}
			if span.Format.Underline != underlineOn {
				commands = append(commands, SetUnderline(span.Format.Underline))
				underlineOn = span.Format.Underline
			}
			if span.Format.DoubleSize != doubleOn {
				commands = append(commands, SetDoubleSize(span.Format.DoubleSize))
				doubleOn = span.Format.DoubleSize
			}

			if span.Text != "" {
				commands = append(commands, Write(span.Text))
			}
		}

		// Formatting never leaks across a feed boundary.
		if boldOn {
			commands = append(commands, SetBold(false))
		}
		if underlineOn {
			commands = append(commands, SetUnderline(false))
		}
		if doubleOn {
			commands = append(commands, SetDoubleSize(false))
		}

		commands = append(commands, Feed())
	}

	if currentAlignment != AlignLeft {
		commands = append(commands, SetAlignment(AlignLeft))
	}

	return commands
}

// Driver is the hardware seam for Execute. Each method maps 1:1 to a
// printer call.
type Driver interface {
	Bold(on bool) error
	Underline(on bool) error
	DoubleSize(on bool) error
	Justify(a Alignment) error
	WriteText(text string) error
	Feed() error
}

// Execute replays a command stream against a driver, strictly in order,
// stopping at the first failing call. Output already sent to the printer
// is not rolled back; thermal paper cannot be unprinted.
func Execute(commands []Command, d Driver) error {
	for _, cmd := range commands {
		var err error
		switch cmd.Kind {
		case CmdSetBold:
			err = d.Bold(cmd.On)
		case CmdSetUnderline:
			err = d.Underline(cmd.On)
		case CmdSetDoubleSize:
			err = d.DoubleSize(cmd.On)
		case CmdSetAlignment:
			err = d.Justify(cmd.Align)
		case CmdWrite:
			err = d.WriteText(cmd.Text)
		case CmdFeed:
			err = d.Feed()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

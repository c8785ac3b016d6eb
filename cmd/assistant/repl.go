package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/lennoxconsulting/aiops-assistant/pkg/agent"
	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
)

const promptText = "Assistant> "

// maxLineBytes bounds one input line; longer lines are rejected and skipped.
const maxLineBytes = 64 * 1024

// runner is the part of agent.Agent the REPL drives.
type runner interface {
	Run(ctx context.Context, input string) (agent.Reply, error)
	Reset()
}

// replOptions configures REPL behavior.
type replOptions struct {
	Verbose bool
	Logger  loggerpkg.Logger
}

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	errorColor  = color.New(color.FgRed)
	noticeColor = color.New(color.FgYellow)
)

// runREPL reads questions until quit or end of input and prints each answer.
func runREPL(app runner, opts replOptions, in io.Reader, out io.Writer) error {
	if app == nil {
		return fmt.Errorf("agent is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}

	loggerpkg.Debug(opts.Verbose, opts.Logger, "repl start", nil)

	reader := bufio.NewReader(in)
	printWelcome(out)

	for {
		_, _ = promptColor.Fprint(out, promptText)
		line, tooLong, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(out)
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if tooLong {
			loggerpkg.Warn(opts.Logger, "input line too long", map[string]any{"max_bytes": maxLineBytes})
			_, _ = errorColor.Fprintf(out, "Error: input line exceeds %d bytes and was ignored.\n\n", maxLineBytes)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		handled, shouldQuit := handleCommand(input, app, out)
		if shouldQuit {
			loggerpkg.Info(opts.Logger, "quit requested", nil)
			break
		}
		if handled {
			continue
		}

		loggerpkg.Info(opts.Logger, "question received", map[string]any{"chars": len(input)})
		reply, err := app.Run(context.Background(), input)
		if err != nil {
			loggerpkg.Error(opts.Logger, "turn failed", map[string]any{"error": err.Error()})
			var unavailable *agent.ModelUnavailableError
			if errors.As(err, &unavailable) {
				_, _ = errorColor.Fprintf(out, "The model is unavailable right now, please try again. (%v)\n\n", unavailable.Err)
			} else {
				_, _ = errorColor.Fprintf(out, "Error: %v\n\n", err)
			}
			continue
		}

		if reply.LimitExceeded {
			_, _ = noticeColor.Fprintln(out, "(stopped after reaching the tool call limit)")
		}
		_, _ = fmt.Fprintf(out, "%s\n\n", reply.Content)
	}

	return nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed to its end and reported with tooLong set.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func printWelcome(out io.Writer) {
	_, _ = fmt.Fprintln(out, "=== AIOps Assistant ===")
	_, _ = fmt.Fprintln(out, "Ask about database servers, databases and their health.")
	printCommands(out)
}

// handleCommand reports whether input was a command and whether to quit.
func handleCommand(input string, app runner, out io.Writer) (bool, bool) {
	switch strings.ToLower(input) {
	case "help":
		printCommands(out)
		return true, false
	case "reset":
		app.Reset()
		_, _ = fmt.Fprintln(out, "Conversation history cleared.")
		_, _ = fmt.Fprintln(out)
		return true, false
	case "quit":
		_, _ = fmt.Fprintln(out, "Goodbye!")
		return true, true
	default:
		return false, false
	}
}

func printCommands(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  help  - Show this help message")
	_, _ = fmt.Fprintln(out, "  reset - Clear conversation history")
	_, _ = fmt.Fprintln(out, "  quit  - Exit the program")
	_, _ = fmt.Fprintln(out)
}

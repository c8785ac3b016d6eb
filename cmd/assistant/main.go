// Command assistant is an interactive AIOps assistant that answers questions
// about database servers by chaining model calls with lookup tools.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/lennoxconsulting/aiops-assistant/pkg/agent"
	configpkg "github.com/lennoxconsulting/aiops-assistant/pkg/config"
	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
	"github.com/lennoxconsulting/aiops-assistant/pkg/tools"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run wires the assistant and returns the process exit code.
func run(args []string, in io.Reader, out, errOut io.Writer) int {
	// A .env file may supply variables referenced from the configuration.
	_ = godotenv.Load()

	opts, err := parseCLIConfig(args, errOut)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 2
	}

	cfg, err := configpkg.Load(opts.ConfigPath)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	logHandle, err := loggerpkg.Initialize(loggerpkg.Settings{
		Level:   cfg.Logging.Level,
		Mode:    cfg.Logging.Mode,
		File:    cfg.Logging.File,
		Backups: cfg.Logging.Backups,
	})
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: initialize logging: %v\n", err)
		return 1
	}
	defer func() {
		_ = logHandle.Close()
	}()
	logHandle.Info("configuration loaded", cfg.Fields())

	registry, err := tools.NewDefault(tools.Context{Verbose: cfg.Chain.Verbose, Logger: logHandle})
	if err != nil {
		logHandle.Error("tool registry", map[string]any{"error": err.Error()})
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	completer := agent.NewOpenAICompleter(agent.OpenAISettingsFromConfig(cfg), logHandle)
	app, err := agent.New(agent.SettingsFromConfig(cfg), registry, completer,
		agent.WithLogger(logHandle),
		agent.WithTrace(out),
	)
	if err != nil {
		logHandle.Error("agent init", map[string]any{"error": err.Error()})
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	if err := runREPL(app, replOptions{
		Verbose: cfg.Chain.Verbose,
		Logger:  logHandle,
	}, in, out); err != nil {
		logHandle.Error("repl", map[string]any{"error": err.Error()})
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	logHandle.Info("session ended", nil)
	return 0
}

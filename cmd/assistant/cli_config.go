package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	configpkg "github.com/lennoxconsulting/aiops-assistant/pkg/config"
)

type cliOptions struct {
	ConfigPath string
}

func parseCLIConfig(args []string, errOut io.Writer) (cliOptions, error) {
	fs := flag.NewFlagSet("assistant", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", configpkg.DefaultPath, "Path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	path := strings.TrimSpace(*configPath)
	if path == "" {
		return cliOptions{}, fmt.Errorf("-config must not be empty")
	}
	return cliOptions{ConfigPath: path}, nil
}

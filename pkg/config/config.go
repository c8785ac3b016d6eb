package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read from the working directory when no path is given.
const DefaultPath = "assistant.yaml"

// Log levels accepted in log_level.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log modes accepted in log_mode.
const (
	ModeAppend   = "append"
	ModeTruncate = "truncate"
	ModeRotate   = "rotate"
)

// Early stopping methods accepted in langchain.early_stopping.
const (
	StopForce    = "force"
	StopGenerate = "generate"
)

const (
	defaultLogFile       = "assistant.log"
	defaultModel         = "gpt-3.5-turbo-0613"
	defaultMemory        = 5
	defaultMaxIterations = 5
	defaultTimeout       = 60 * time.Second
	defaultMaxRetries    = 2
	maxTemperature       = 2.0
)

// Config is the validated runtime configuration. It is built once by Load and
// only read afterwards.
type Config struct {
	Path    string
	Logging Logging
	Chain   Chain
	OpenAI  OpenAI
}

// Logging holds the top-level log_* settings.
type Logging struct {
	Level   string
	Mode    string
	File    string
	Backups int
}

// Chain holds the langchain section: memory window and iteration limits.
type Chain struct {
	Memory        int
	MaxIterations int
	Verbose       bool
	EarlyStopping string
}

// OpenAI holds the model provider section.
type OpenAI struct {
	Token             string
	Model             string
	Temperature       float64
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
}

// Default returns the configuration used for every key the document leaves out.
// The token has no default.
func Default() Config {
	return Config{
		Path: DefaultPath,
		Logging: Logging{
			Level:   LevelWarn,
			Mode:    ModeAppend,
			File:    defaultLogFile,
			Backups: 1,
		},
		Chain: Chain{
			Memory:        defaultMemory,
			MaxIterations: defaultMaxIterations,
			Verbose:       false,
			EarlyStopping: StopForce,
		},
		OpenAI: OpenAI{
			Model:       defaultModel,
			Temperature: 0,
			Timeout:     defaultTimeout,
			MaxRetries:  defaultMaxRetries,
		},
	}
}

// document mirrors assistant.yaml. Pointers tell a missing key from an explicit zero.
type document struct {
	LogLevel   *string        `yaml:"log_level"`
	LogMode    *string        `yaml:"log_mode"`
	LogFile    *string        `yaml:"logfile"`
	LogBackups *int           `yaml:"log_backups"`
	Chain      chainDocument  `yaml:"langchain"`
	OpenAI     openAIDocument `yaml:"openai"`
}

type chainDocument struct {
	Memory        *int    `yaml:"memory"`
	MaxIterations *int    `yaml:"max_iterations"`
	Verbose       *bool   `yaml:"verbose"`
	EarlyStopping *string `yaml:"early_stopping"`
}

type openAIDocument struct {
	Token             *string        `yaml:"token"`
	Model             *string        `yaml:"model"`
	Temperature       *float64       `yaml:"temperature"`
	BaseURL           *string        `yaml:"base_url"`
	Timeout           *time.Duration `yaml:"timeout"`
	MaxRetries        *int           `yaml:"max_retries"`
	RequestsPerMinute *int           `yaml:"requests_per_minute"`
}

// Load reads the YAML document at path, expands ${VAR} references from the
// environment and returns the validated configuration. A bare $ is kept as
// written. It has no side effects beyond reading the file.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &NotFoundError{Path: path, Err: err}
	}

	return parse(path, expandReferences(string(raw)))
}

var reference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandReferences replaces ${NAME} with the environment value, empty when unset.
func expandReferences(content string) string {
	return reference.ReplaceAllStringFunc(content, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

func parse(path, content string) (Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}

	var doc document
	if body := documentBody(&root); body != nil {
		if body.Kind != yaml.MappingNode {
			return Config{}, &ParseError{Path: path, Err: errors.New("top level must be a mapping")}
		}
		if err := body.Decode(&doc); err != nil {
			return Config{}, &ParseError{Path: path, Err: err}
		}
	}

	cfg := Default()
	cfg.Path = path
	doc.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// documentBody returns the top-level node, or nil for an empty document.
func documentBody(root *yaml.Node) *yaml.Node {
	if root.Kind == 0 {
		return nil
	}
	if root.Kind != yaml.DocumentNode {
		return root
	}
	if len(root.Content) == 0 {
		return nil
	}
	body := root.Content[0]
	if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
		return nil
	}
	return body
}

func (d document) apply(cfg *Config) {
	setString(&cfg.Logging.Level, d.LogLevel, true)
	setString(&cfg.Logging.Mode, d.LogMode, true)
	setString(&cfg.Logging.File, d.LogFile, false)
	setInt(&cfg.Logging.Backups, d.LogBackups)

	setInt(&cfg.Chain.Memory, d.Chain.Memory)
	setInt(&cfg.Chain.MaxIterations, d.Chain.MaxIterations)
	if d.Chain.Verbose != nil {
		cfg.Chain.Verbose = *d.Chain.Verbose
	}
	setString(&cfg.Chain.EarlyStopping, d.Chain.EarlyStopping, true)

	if d.OpenAI.Token != nil {
		cfg.OpenAI.Token = strings.TrimSpace(*d.OpenAI.Token)
	}
	setString(&cfg.OpenAI.Model, d.OpenAI.Model, false)
	if d.OpenAI.Temperature != nil {
		cfg.OpenAI.Temperature = *d.OpenAI.Temperature
	}
	if d.OpenAI.BaseURL != nil {
		cfg.OpenAI.BaseURL = strings.TrimSpace(*d.OpenAI.BaseURL)
	}
	if d.OpenAI.Timeout != nil {
		cfg.OpenAI.Timeout = *d.OpenAI.Timeout
	}
	setInt(&cfg.OpenAI.MaxRetries, d.OpenAI.MaxRetries)
	setInt(&cfg.OpenAI.RequestsPerMinute, d.OpenAI.RequestsPerMinute)
}

// setString overwrites dst when the document sets a non-blank value.
func setString(dst *string, v *string, lower bool) {
	if v == nil {
		return
	}
	s := strings.TrimSpace(*v)
	if lower {
		s = strings.ToLower(s)
	}
	if s == "" && !lower {
		return
	}
	*dst = s
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks credentials, enumerations and ranges, in that order.
func (c Config) Validate() error {
	if isPlaceholderToken(c.OpenAI.Token) {
		return &MissingCredentialError{Key: "openai.token"}
	}

	if err := oneOf("log_level", c.Logging.Level, LevelInfo, LevelWarn, LevelError, LevelDebug); err != nil {
		return err
	}
	if err := oneOf("log_mode", c.Logging.Mode, ModeAppend, ModeTruncate, ModeRotate); err != nil {
		return err
	}
	if err := oneOf("langchain.early_stopping", c.Chain.EarlyStopping, StopForce, StopGenerate); err != nil {
		return err
	}

	if c.Chain.MaxIterations < 1 {
		return &InvalidValueError{Key: "langchain.max_iterations", Value: c.Chain.MaxIterations, Reason: "must be at least 1"}
	}
	if c.Chain.Memory < 0 {
		return &InvalidValueError{Key: "langchain.memory", Value: c.Chain.Memory, Reason: "must not be negative"}
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > maxTemperature {
		return &InvalidValueError{Key: "openai.temperature", Value: c.OpenAI.Temperature, Reason: "must be between 0 and 2"}
	}
	if c.OpenAI.Timeout <= 0 {
		return &InvalidValueError{Key: "openai.timeout", Value: c.OpenAI.Timeout, Reason: "must be positive"}
	}
	if c.OpenAI.MaxRetries < 0 {
		return &InvalidValueError{Key: "openai.max_retries", Value: c.OpenAI.MaxRetries, Reason: "must not be negative"}
	}
	if c.OpenAI.RequestsPerMinute < 0 {
		return &InvalidValueError{Key: "openai.requests_per_minute", Value: c.OpenAI.RequestsPerMinute, Reason: "must not be negative"}
	}
	if c.Logging.Backups < 1 {
		return &InvalidValueError{Key: "log_backups", Value: c.Logging.Backups, Reason: "must be at least 1"}
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &InvalidValueError{Key: key, Value: value, Reason: fmt.Sprintf("must be one of %s", strings.Join(allowed, "|"))}
}

var placeholderTokens = map[string]struct{}{
	"secret token": {},
	"changeme":     {},
	"change-me":    {},
	"your-token":   {},
	"your-api-key": {},
	"<token>":      {},
	"token":        {},
}

func isPlaceholderToken(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, "${") {
		return true
	}
	_, ok := placeholderTokens[strings.ToLower(token)]
	return ok
}

// Fields returns the configuration as log-friendly key/values, without the token.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"path":                c.Path,
		"log_level":           c.Logging.Level,
		"log_mode":            c.Logging.Mode,
		"logfile":             c.Logging.File,
		"memory":              c.Chain.Memory,
		"max_iterations":      c.Chain.MaxIterations,
		"verbose":             c.Chain.Verbose,
		"early_stopping":      c.Chain.EarlyStopping,
		"model":               c.OpenAI.Model,
		"temperature":         c.OpenAI.Temperature,
		"base_url":            c.OpenAI.BaseURL,
		"timeout":             c.OpenAI.Timeout.String(),
		"max_retries":         c.OpenAI.MaxRetries,
		"requests_per_minute": c.OpenAI.RequestsPerMinute,
	}
}

package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
	"github.com/openai/openai-go"
)

// Tool is a named, read-only lookup the model may call with free-text input.
// Run must not panic on malformed input; it describes the problem in its result instead.
type Tool interface {
	Name() string
	Description() string
	Run(input string) string
}

// Func adapts a plain function to the Tool interface.
func Func(name, description string, run func(input string) string) Tool {
	return funcTool{name: name, description: description, run: run}
}

type funcTool struct {
	name        string
	description string
	run         func(string) string
}

func (t funcTool) Name() string            { return t.name }
func (t funcTool) Description() string     { return t.description }
func (t funcTool) Run(input string) string { return t.run(input) }

// Context carries logging settings shared by the registry.
type Context struct {
	Verbose bool
	Logger  loggerpkg.Logger
}

func (c Context) debugf(format string, args ...any) {
	loggerpkg.Debugf(c.Verbose, c.Logger, format, args...)
}

// DuplicateNameError is returned when a tool name is registered twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError describes a call to a name that is not registered. Invoke
// returns its text rather than the error so the model can read it.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q: available tools are %s", e.Name, strings.Join(e.Available, ", "))
}

// inputProperty is the single free-text parameter every tool exposes to the model.
const inputProperty = "input"

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Registry holds registered tools and handles execution.
type Registry struct {
	registry map[string]Tool
	order    []string
	ctx      Context
	params   []openai.ChatCompletionToolParam
}

// New builds an empty registry.
func New(ctx Context) *Registry {
	ctx.Logger = loggerpkg.OrNop(ctx.Logger)
	return &Registry{
		registry: make(map[string]Tool),
		ctx:      ctx,
	}
}

// NewDefault builds a registry holding every built-in probe tool.
func NewDefault(ctx Context) (*Registry, error) {
	r := New(ctx)
	if err := r.RegisterAll(DatabaseProbe()...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a tool. Names must be unique and usable as function names.
func (t *Registry) Register(toolImpl Tool) error {
	if toolImpl == nil {
		return fmt.Errorf("tool is nil")
	}
	name := toolImpl.Name()
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid tool name %q: use 1-64 letters, digits, '_' or '-'", name)
	}
	if _, exists := t.registry[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	t.registry[name] = toolImpl
	t.order = append(t.order, name)
	t.params = append(t.params, definition(toolImpl))
	t.ctx.debugf("[verbose] registered tool: %s", name)
	return nil
}

// RegisterAll registers tools in order and stops at the first failure.
func (t *Registry) RegisterAll(toolImpls ...Tool) error {
	for _, toolImpl := range toolImpls {
		if err := t.Register(toolImpl); err != nil {
			return err
		}
	}
	return nil
}

// Tools returns the registered tools in registration order.
func (t *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.registry[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (t *Registry) Names() []string {
	return append([]string(nil), t.order...)
}

func (t *Registry) Definitions() []openai.ChatCompletionToolParam {
	return t.params
}

// Invoke runs the named tool and returns its text verbatim. Unknown names and
// handler panics come back as descriptive text.
func (t *Registry) Invoke(name, input string) (output string) {
	toolImpl, ok := t.registry[name]
	if !ok {
		available := t.Names()
		sort.Strings(available)
		err := &UnknownToolError{Name: name, Available: available}
		t.ctx.Logger.Warn("unknown tool requested", map[string]any{"name": name})
		return err.Error()
	}

	defer func() {
		if r := recover(); r != nil {
			t.ctx.Logger.Error("tool panicked", map[string]any{"name": name, "panic": fmt.Sprint(r)})
			output = fmt.Sprintf("tool %q failed: %v", name, r)
		}
	}()

	t.ctx.debugf("[verbose] invoking tool %s input=%q", name, input)
	output = toolImpl.Run(input)
	t.ctx.debugf("[verbose] tool %s returned %d bytes", name, len(output))
	return output
}

// Execute runs a model tool call, decoding its arguments into free text.
func (t *Registry) Execute(call openai.ChatCompletionMessageToolCall) string {
	return t.Invoke(call.Function.Name, DecodeInput(call.Function.Arguments))
}

// DecodeInput extracts free text from tool call arguments. It accepts
// {"input": "..."}, a JSON string, an object of scalar values (joined by
// spaces, in key order) or raw text that is not JSON at all.
func DecodeInput(arguments string) string {
	arguments = strings.TrimSpace(arguments)
	if arguments == "" {
		return ""
	}

	var text string
	if err := json.Unmarshal([]byte(arguments), &text); err == nil {
		return strings.TrimSpace(text)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(arguments), &fields); err != nil {
		return arguments
	}
	if v, ok := fields[inputProperty]; ok {
		return strings.TrimSpace(scalarText(v))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := strings.TrimSpace(scalarText(fields[k])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func scalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func definition(toolImpl Tool) openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        toolImpl.Name(),
			Description: openai.String(toolImpl.Description()),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					inputProperty: map[string]any{
						"type":        "string",
						"description": "Free-text input for the tool. Leave empty when no filter applies.",
					},
				},
			},
		},
	}
}

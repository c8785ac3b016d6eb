package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/lennoxconsulting/aiops-assistant/pkg/config"
	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
	"github.com/lennoxconsulting/aiops-assistant/pkg/prompt"
	"github.com/lennoxconsulting/aiops-assistant/pkg/tools"
	"github.com/openai/openai-go"
)

// FallbackAnswer is returned when a question cannot be answered within the iteration limit.
const FallbackAnswer = "I could not determine an answer to that question."

const finalAnswerInstruction = "The tool call limit for this question has been reached. " +
	"Give your best final answer using only the information gathered so far. Do not request any tools."

// State is a step of the chaining loop for one user turn.
type State int

const (
	StateAwaitingInput State = iota
	StateThinking
	StateToolCall
	StateAnswered
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "AwaitingInput"
	case StateThinking:
		return "Thinking"
	case StateToolCall:
		return "ToolCall"
	case StateAnswered:
		return "Answered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Settings controls the chaining loop and model parameters.
type Settings struct {
	Model         string
	Temperature   float64
	Memory        int
	MaxIterations int
	// EarlyStopping is config.StopForce or config.StopGenerate.
	EarlyStopping string
	Verbose       bool
}

// SettingsFromConfig derives agent settings from the loaded configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		Model:         cfg.OpenAI.Model,
		Temperature:   cfg.OpenAI.Temperature,
		Memory:        cfg.Chain.Memory,
		MaxIterations: cfg.Chain.MaxIterations,
		EarlyStopping: cfg.Chain.EarlyStopping,
		Verbose:       cfg.Chain.Verbose,
	}
}

// OpenAISettingsFromConfig derives completer settings from the loaded configuration.
func OpenAISettingsFromConfig(cfg config.Config) OpenAISettings {
	return OpenAISettings{
		Token:             cfg.OpenAI.Token,
		BaseURL:           cfg.OpenAI.BaseURL,
		Timeout:           cfg.OpenAI.Timeout,
		MaxRetries:        cfg.OpenAI.MaxRetries,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
	}
}

// Reply is the outcome of one user turn.
type Reply struct {
	Content string
	// Iterations counts think/tool-call cycles executed.
	Iterations int
	ToolCalls  int
	// LimitExceeded is set when MaxIterations ran out and Content is a fallback
	// or an answer generated without tools.
	LimitExceeded bool
	// States lists the transitions taken, starting at StateAwaitingInput.
	States []State
}

// Agent holds the chaining loop runtime state. It is not safe for concurrent use.
type Agent struct {
	settings     Settings
	completer    Completer
	tools        *tools.Registry
	systemPrompt string
	memory       *Memory
	state        State

	logger loggerpkg.Logger
	trace  io.Writer
}

// New initializes an Agent bound to a tool registry and a model completer.
func New(settings Settings, registry *tools.Registry, completer Completer, opts ...AgentOption) (*Agent, error) {
	deps := agentDeps{logger: loggerpkg.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	deps.logger = loggerpkg.OrNop(deps.logger)

	settings.Model = strings.TrimSpace(settings.Model)
	settings.EarlyStopping = strings.ToLower(strings.TrimSpace(settings.EarlyStopping))
	if settings.EarlyStopping == "" {
		settings.EarlyStopping = config.StopForce
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if settings.Model == "" {
		return nil, errors.New("model is not set")
	}
	if settings.MaxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", settings.MaxIterations)
	}
	if settings.Memory < 0 {
		return nil, fmt.Errorf("memory must not be negative, got %d", settings.Memory)
	}
	if registry == nil {
		registry = tools.New(tools.Context{Logger: deps.logger})
	}

	systemPrompt := prompt.BuildSystemPrompt(registry.Tools())

	deps.logger.Debug("agent init", map[string]any{
		"model":          settings.Model,
		"memory":         settings.Memory,
		"max_iterations": settings.MaxIterations,
		"early_stopping": settings.EarlyStopping,
		"tools":          registry.Names(),
		"prompt_bytes":   len(systemPrompt),
	})

	trace := deps.trace
	if !settings.Verbose || trace == nil {
		trace = io.Discard
	}

	return &Agent{
		settings:     settings,
		completer:    completer,
		tools:        registry,
		systemPrompt: systemPrompt,
		memory:       NewMemory(settings.Memory),
		state:        StateAwaitingInput,
		logger:       deps.logger,
		trace:        trace,
	}, nil
}

// Run processes one user input and returns the final answer for it.
// A failed model call returns *ModelUnavailableError and leaves memory unchanged.
func (a *Agent) Run(ctx context.Context, userInput string) (Reply, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return Reply{}, errors.New("user input is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	reply := Reply{States: []State{StateAwaitingInput}}
	a.enter(&reply, StateThinking)
	a.traceStart(userInput)

	messages := a.buildMessages(userInput)
	for cycle := 0; cycle < a.settings.MaxIterations; cycle++ {
		a.logger.Debug("thinking", map[string]any{"iteration": cycle + 1, "max": a.settings.MaxIterations, "messages": len(messages)})

		message, err := a.completer.Complete(ctx, a.newChatParams(messages, true))
		if err != nil {
			a.state = StateAwaitingInput
			a.logger.Error("model call failed", map[string]any{"iteration": cycle + 1, "error": err.Error()})
			return Reply{}, &ModelUnavailableError{Err: err}
		}

		if len(message.ToolCalls) == 0 {
			reply.Content = message.Content
			return a.answer(reply, userInput), nil
		}

		a.enter(&reply, StateToolCall)
		// Persist the assistant tool-call turn before appending tool responses.
		messages = append(messages, assistantToolCallMessage(message))
		messages = a.appendToolResponses(messages, message.ToolCalls)
		reply.ToolCalls += len(message.ToolCalls)
		reply.Iterations++
		a.enter(&reply, StateThinking)
	}

	reply.LimitExceeded = true
	a.logger.Warn("iteration limit exceeded", map[string]any{"max_iterations": a.settings.MaxIterations, "early_stopping": a.settings.EarlyStopping})
	if a.settings.EarlyStopping == config.StopGenerate {
		messages = append(messages, openai.SystemMessage(finalAnswerInstruction))
		message, err := a.completer.Complete(ctx, a.newChatParams(messages, false))
		if err != nil {
			a.logger.Warn("final answer generation failed", map[string]any{"error": err.Error()})
		} else {
			reply.Content = message.Content
		}
	}
	return a.answer(reply, userInput), nil
}

// answer moves the turn to Answered, records the exchange and returns to AwaitingInput.
func (a *Agent) answer(reply Reply, userInput string) Reply {
	if strings.TrimSpace(reply.Content) == "" {
		reply.Content = FallbackAnswer
	}
	a.enter(&reply, StateAnswered)
	a.memory.Append(userInput, reply.Content)
	a.state = StateAwaitingInput
	a.traceFinish(reply)

	a.logger.Info("turn answered", map[string]any{
		"iterations":     reply.Iterations,
		"tool_calls":     reply.ToolCalls,
		"limit_exceeded": reply.LimitExceeded,
		"memory_pairs":   a.memory.Pairs(),
	})
	return reply
}

// Reset clears conversation memory.
func (a *Agent) Reset() {
	a.logger.Debug("resetting conversation history", nil)
	a.memory.Clear()
}

// Memory exposes the conversation window.
func (a *Agent) Memory() *Memory {
	return a.memory
}

// State reports the loop state; it is StateAwaitingInput between turns.
func (a *Agent) State() State {
	return a.state
}

// SystemPrompt returns the prompt sent ahead of every conversation.
func (a *Agent) SystemPrompt() string {
	return a.systemPrompt
}

func (a *Agent) enter(reply *Reply, s State) {
	a.state = s
	reply.States = append(reply.States, s)
}

func (a *Agent) buildMessages(userInput string) []openai.ChatCompletionMessageParamUnion {
	turns := a.memory.Turns()
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+2)
	messages = append(messages, openai.SystemMessage(a.systemPrompt))
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}
	return append(messages, openai.UserMessage(userInput))
}

func (a *Agent) newChatParams(messages []openai.ChatCompletionMessageParamUnion, withTools bool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.settings.Model),
		Messages:    messages,
		Temperature: openai.Float(a.settings.Temperature),
	}
	if defs := a.tools.Definitions(); withTools && len(defs) > 0 {
		params.Tools = defs
	}
	return params
}

func (a *Agent) appendToolResponses(
	messages []openai.ChatCompletionMessageParamUnion,
	toolCalls []openai.ChatCompletionMessageToolCall,
) []openai.ChatCompletionMessageParamUnion {
	updated := messages
	for _, call := range toolCalls {
		a.traceAction(call)
		output := a.tools.Execute(call)
		a.traceObservation(output)
		updated = append(updated, openai.ToolMessage(output, call.ID))
	}
	return updated
}

// assistantToolCallMessage converts a tool-requesting reply into request history.
func assistantToolCallMessage(message openai.ChatCompletionMessage) openai.ChatCompletionMessageParamUnion {
	calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(message.ToolCalls))
	for _, call := range message.ToolCalls {
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if message.Content != "" {
		assistant.Content.OfString = openai.String(message.Content)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

var (
	chainColor  = color.New(color.Bold)
	actionColor = color.New(color.FgGreen)
	resultColor = color.New(color.FgYellow)
)

func (a *Agent) traceStart(userInput string) {
	_, _ = chainColor.Fprintf(a.trace, "\n> Entering new chain: %s\n", userInput)
}

func (a *Agent) traceAction(call openai.ChatCompletionMessageToolCall) {
	_, _ = actionColor.Fprintf(a.trace, "Action: %s\nAction Input: %s\n", call.Function.Name, tools.DecodeInput(call.Function.Arguments))
}

func (a *Agent) traceObservation(output string) {
	_, _ = resultColor.Fprintf(a.trace, "Observation: %s\n", strings.TrimRight(output, "\n"))
}

func (a *Agent) traceFinish(reply Reply) {
	_, _ = chainColor.Fprintf(a.trace, "> Finished chain after %d iteration(s).\n\n", reply.Iterations)
}

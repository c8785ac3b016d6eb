package tools

import (
	"bytes"
	"testing"

	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Func(name, "echoes its input", func(input string) string { return "echo:" + input })
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := New(Context{})
	require.NoError(t, r.Register(echoTool("lookup")))

	err := r.Register(echoTool("lookup"))

	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "lookup", dup.Name)
	assert.Len(t, r.Definitions(), 1)
}

func TestRegisterRejectsInvalidNames(t *testing.T) {
	r := New(Context{})
	for _, name := range []string{"", "Database - List Databases", "has/slash"} {
		assert.Error(t, r.Register(echoTool(name)), name)
	}
	assert.Error(t, r.Register(nil))
	assert.Empty(t, r.Names())
}

func TestRegisterAllStopsAtFirstFailure(t *testing.T) {
	r := New(Context{})

	err := r.RegisterAll(echoTool("a"), echoTool("a"), echoTool("b"))

	require.Error(t, err)
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestInvokeReturnsHandlerResultVerbatim(t *testing.T) {
	r := New(Context{})
	require.NoError(t, r.Register(echoTool("lookup")))

	assert.Equal(t, "echo:  spaced  ", r.Invoke("lookup", "  spaced  "))
}

func TestInvokeUnknownToolReturnsText(t *testing.T) {
	var buf bytes.Buffer
	r := New(Context{Logger: loggerpkg.NewWriterLogger(&buf)})
	require.NoError(t, r.Register(echoTool("lookup")))

	out := r.Invoke("missing_tool", "x")

	assert.Contains(t, out, `"missing_tool"`)
	assert.Contains(t, out, "lookup")
	assert.Contains(t, buf.String(), "unknown tool requested")
}

func TestInvokeRecoversFromPanic(t *testing.T) {
	r := New(Context{})
	require.NoError(t, r.Register(Func("fragile", "panics", func(string) string { panic("boom") })))

	var out string
	require.NotPanics(t, func() { out = r.Invoke("fragile", "") })
	assert.Contains(t, out, "boom")
}

func TestDefinitionsExposeFreeTextInput(t *testing.T) {
	r := New(Context{})
	require.NoError(t, r.Register(echoTool("lookup")))

	defs := r.Definitions()
	require.Len(t, defs, 1)
	fn := defs[0].Function
	assert.Equal(t, "lookup", fn.Name)
	assert.Equal(t, "echoes its input", fn.Description.Value)
	props, ok := fn.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "input")
}

func TestDecodeInput(t *testing.T) {
	tests := map[string]string{
		``:                                    "",
		`   `:                                 "",
		`{"input":"sr-dbs01"}`:                "sr-dbs01",
		`{"input":" mysql "}`:                 "mysql",
		`{"input":null}`:                      "",
		`"sr-dbs02"`:                          "sr-dbs02",
		`{"server":"sr-dbs04","type":"MySQL"}`: "sr-dbs04 MySQL",
		`{"count":3}`:                         "3",
		`sr-dbs01 please`:                     "sr-dbs01 please",
		`{not json`:                           "{not json",
	}
	for args, want := range tests {
		assert.Equal(t, want, DecodeInput(args), args)
	}
}

func TestExecuteDecodesArguments(t *testing.T) {
	r := New(Context{})
	require.NoError(t, r.Register(echoTool("lookup")))

	out := r.Execute(openai.ChatCompletionMessageToolCall{
		ID: "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "lookup",
			Arguments: `{"input":"sr-dbs01"}`,
		},
	})

	assert.Equal(t, "echo:sr-dbs01", out)
}

func TestNewDefaultRegistersDatabaseProbe(t *testing.T) {
	r, err := NewDefault(Context{})
	require.NoError(t, err)

	assert.Equal(t, []string{"database_list_servers", "database_list_databases", "database_health_check"}, r.Names())
	assert.Len(t, r.Tools(), 3)
}

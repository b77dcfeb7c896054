package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInvoker replays canned stdout per mode and records calls.
type fakeInvoker struct {
	out   map[Mode][]byte
	err   error
	calls []fakeCall
}

type fakeCall struct {
	mode Mode
	args []string
}

func (f *fakeInvoker) Invoke(_ context.Context, mode Mode, args []string) ([]byte, error) {
	f.calls = append(f.calls, fakeCall{mode: mode, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return f.out[mode], nil
}

func TestClientComplete(t *testing.T) {
	inv := &fakeInvoker{out: map[Mode][]byte{
		ModeComplete: []byte(`[{"name": "name", "type": "str", "docstring": "Display name."}, {"name": "email", "type": "str"}]`),
	}}
	c := NewClient(inv, nil)

	got := c.Complete(context.Background(), "stub.pyi", "user")
	require.Len(t, got, 2)
	assert.Equal(t, Candidate{Name: "name", Type: "str", Docstring: "Display name."}, got[0])
	assert.Equal(t, "email", got[1].Name)

	require.Len(t, inv.calls, 1)
	assert.Equal(t, ModeComplete, inv.calls[0].mode)
	assert.Equal(t, []string{"stub.pyi", "user"}, inv.calls[0].args)
}

func TestClientCompleteMalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"non-JSON", "Traceback (most recent call last):"},
		{"wrong shape", `{"name": "x"}`},
		{"missing required field", `[{"type": "str"}]`},
		{"empty output", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{out: map[Mode][]byte{ModeComplete: []byte(tt.out)}}
			c := NewClient(inv, nil)
			assert.Nil(t, c.Complete(context.Background(), "stub.pyi", "user"))
		})
	}
}

func TestClientHover(t *testing.T) {
	inv := &fakeInvoker{out: map[Mode][]byte{
		ModeHover: []byte(`{"type": "User", "doc": "The signed-in user."}`),
	}}
	c := NewClient(inv, nil)

	h, ok := c.Hover(context.Background(), "stub.pyi", "user")
	require.True(t, ok)
	assert.Equal(t, "User", h.Type)
	assert.Equal(t, "The signed-in user.", h.Doc)
}

func TestClientHoverEmptyAnswer(t *testing.T) {
	inv := &fakeInvoker{out: map[Mode][]byte{ModeHover: []byte(`{}`)}}
	c := NewClient(inv, nil)

	_, ok := c.Hover(context.Background(), "stub.pyi", "user")
	assert.False(t, ok)
}

func TestClientDefinition(t *testing.T) {
	inv := &fakeInvoker{out: map[Mode][]byte{
		ModeDefinition: []byte(`{"file_path": "/src/models.py", "line": 10, "col": 6}`),
	}}
	c := NewClient(inv, nil)

	loc, ok := c.Definition(context.Background(), "stub.pyi", "User", 3, 7)
	require.True(t, ok)
	assert.Equal(t, "/src/models.py", loc.FilePath)
	assert.Equal(t, 10, loc.Line)

	require.Len(t, inv.calls, 1)
	assert.Equal(t, []string{"stub.pyi", "User", "3", "7"}, inv.calls[0].args)
}

func TestClientSignature(t *testing.T) {
	inv := &fakeInvoker{out: map[Mode][]byte{
		ModeSignature: []byte(`[{"name": "label", "kind": "positional"}, {"name": "color", "default": "\"gray\"", "annotation": "str"}]`),
	}}
	c := NewClient(inv, nil)

	params := c.Signature(context.Background(), "stub.pyi", "badge")
	require.Len(t, params, 2)
	assert.Equal(t, "label", params[0].Name)
	assert.Equal(t, `"gray"`, params[1].Default)
}

func TestClientDiagnostics(t *testing.T) {
	inv := &fakeInvoker{out: map[Mode][]byte{
		ModeDiagnostics: []byte(`[{"message": "unknown attribute \"nmae\"", "line": 7, "col": 8, "severity": "error"}]`),
	}}
	c := NewClient(inv, nil)

	diags := c.Diagnostics(context.Background(), "stub.pyi", "t.jinja")
	require.Len(t, diags, 1)
	assert.Equal(t, 7, diags[0].Line)
	assert.Equal(t, "error", diags[0].Severity)
}

func TestClientAbsorbsInvokerErrors(t *testing.T) {
	inv := &fakeInvoker{err: ErrUnavailable}
	c := NewClient(inv, nil)
	ctx := context.Background()

	assert.Nil(t, c.Complete(ctx, "s", "e"))
	assert.Nil(t, c.Signature(ctx, "s", "e"))
	assert.Nil(t, c.Diagnostics(ctx, "s", "t"))

	_, ok := c.Hover(ctx, "s", "n")
	assert.False(t, ok)
	_, ok = c.Definition(ctx, "s", "e", 0, 0)
	assert.False(t, ok)
	_, ok = c.FindMacroDefinition(ctx, "t", "m")
	assert.False(t, ok)
	_, ok = c.HoverMacro(ctx, "t", "m")
	assert.False(t, ok)
}

func TestClientAbsorbsTimeout(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("context deadline exceeded")}
	c := NewClient(inv, nil)
	assert.Nil(t, c.Diagnostics(context.Background(), "s", "t"))
}

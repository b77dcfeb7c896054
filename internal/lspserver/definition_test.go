package lspserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

func TestDefinitionIncludeTarget(t *testing.T) {
	ctx := t.Context()
	clientConn, _ := startServer(t, ctx)

	diagnosticsCh := make(chan *protocol.PublishDiagnosticsParams, 2)
	clientConn.Go(ctx, diagnosticsClient(diagnosticsCh))

	root := t.TempDir()
	navPath := filepath.Join(root, "nav.jinja")
	require.NoError(t, os.WriteFile(navPath, []byte("<nav></nav>"), 0o644))

	params := initializeParams()
	params.RootURI = uri.File(root)
	var initResult protocol.InitializeResult
	_, err := clientConn.Call(ctx, protocol.MethodInitialize, params, &initResult)
	require.NoError(t, err)

	pageURI := uri.File(filepath.Join(root, "page.jinja"))
	openDocument(t, ctx, clientConn, pageURI, `{% include "nav.jinja" %}`)

	var locations []protocol.Location
	_, err = clientConn.Call(ctx, protocol.MethodTextDocumentDefinition, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: pageURI},
			// Inside the quoted path.
			Position: protocol.Position{Line: 0, Character: 15},
		},
	}, &locations)
	require.NoError(t, err)

	require.Len(t, locations, 1)
	assert.Equal(t, uri.File(navPath), locations[0].URI)
}

func TestDefinitionLocalMacro(t *testing.T) {
	ctx := t.Context()
	clientConn, _ := startServer(t, ctx)

	diagnosticsCh := make(chan *protocol.PublishDiagnosticsParams, 1)
	clientConn.Go(ctx, diagnosticsClient(diagnosticsCh))

	var initResult protocol.InitializeResult
	_, err := clientConn.Call(ctx, protocol.MethodInitialize, initializeParams(), &initResult)
	require.NoError(t, err)

	doc := `{% macro badge(label) %}{% endmacro %}
{{ badge("new") }}
`
	macrosURI := docURI(t, "macros.jinja")
	openDocument(t, ctx, clientConn, macrosURI, doc)

	var locations []protocol.Location
	_, err = clientConn.Call(ctx, protocol.MethodTextDocumentDefinition, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: macrosURI},
			// On "badge" at the call site.
			Position: protocol.Position{Line: 1, Character: 5},
		},
	}, &locations)
	require.NoError(t, err)

	require.Len(t, locations, 1)
	assert.Equal(t, uint32(0), locations[0].Range.Start.Line)
	assert.Equal(t, uint32(9), locations[0].Range.Start.Character)
	assert.Equal(t, uint32(14), locations[0].Range.End.Character)
}

func TestDefinitionNothingToAnswer(t *testing.T) {
	ctx := t.Context()
	clientConn, _ := startServer(t, ctx)

	diagnosticsCh := make(chan *protocol.PublishDiagnosticsParams, 1)
	clientConn.Go(ctx, diagnosticsClient(diagnosticsCh))

	var initResult protocol.InitializeResult
	_, err := clientConn.Call(ctx, protocol.MethodInitialize, initializeParams(), &initResult)
	require.NoError(t, err)

	emptyURI := docURI(t, "empty.jinja")
	openDocument(t, ctx, clientConn, emptyURI, "{{  }}\n")

	var locations []protocol.Location
	_, err = clientConn.Call(ctx, protocol.MethodTextDocumentDefinition, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: emptyURI},
			Position:     protocol.Position{Line: 0, Character: 3},
		},
	}, &locations)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/typedjinja/tjls/internal/stub"
	"github.com/typedjinja/tjls/internal/template"
	"github.com/typedjinja/tjls/internal/workspace"
)

// handleHover answers textDocument/hover for the word under the cursor:
// macros show their signature, declared variables their annotated type, and
// everything else falls through to the backend.
func (s *Server) handleHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	doc := s.documents.Get(string(params.TextDocument.URI))
	if doc == nil {
		return reply(ctx, nil, nil)
	}

	pos := template.Pos{Line: int(params.Position.Line), Character: int(params.Position.Character)}
	word, ok := s.resolver.ResolveWord(doc.Content, pos)
	if !ok {
		return reply(ctx, nil, nil)
	}

	if value, ok := s.macroHover(ctx, doc, word); ok {
		return replyHover(ctx, reply, value)
	}
	if value, ok := s.declarationHover(ctx, doc, word); ok {
		return replyHover(ctx, reply, value)
	}
	return reply(ctx, nil, nil)
}

// macroHover renders hover content when the word names an imported or
// locally defined macro.
func (s *Server) macroHover(ctx context.Context, doc *Document, word string) (string, bool) {
	mc := template.ResolveMacroOrImport(doc.Content, word)

	if mc.Imported() {
		srcPath, ok := workspace.ResolveIncludePath(doc.Path(), s.rootPath, mc.SourceTemplate)
		if !ok {
			return fmt.Sprintf("**%s**\n\nImported from `%s`", word, mc.SourceTemplate), true
		}
		if info, ok := s.client.HoverMacro(ctx, srcPath, word); ok {
			return renderHoverInfo(word, info.Type, info.Doc), true
		}
		if sig, ok := macroSignatureInFile(srcPath, word); ok {
			return fmt.Sprintf("```jinja\n{%% macro %s %%}\n```\n\nDefined in `%s`", sig, mc.SourceTemplate), true
		}
		return fmt.Sprintf("**%s**\n\nImported from `%s`", word, mc.SourceTemplate), true
	}

	if sig, ok := template.MacroSignature(doc.Content, word); ok {
		if info, ok := s.client.HoverMacro(ctx, doc.Path(), word); ok {
			return renderHoverInfo(word, info.Type, info.Doc), true
		}
		return fmt.Sprintf("```jinja\n{%% macro %s %%}\n```", sig), true
	}

	return "", false
}

// declarationHover serves annotated variables, preferring the in-document
// block, then the stub artifact, then the backend.
func (s *Server) declarationHover(ctx context.Context, doc *Document, word string) (string, bool) {
	block := template.ParseTypesBlock(doc.Content)
	if a, ok := block.Lookup(word); ok {
		return renderHoverInfo(a.Name, a.Type, a.Doc), true
	}

	stubPath := stub.PathFor(doc.Path(), s.settings.CacheDir)
	if d, ok := stub.Load(stubPath).Lookup(word); ok {
		return renderHoverInfo(d.Name, d.Type, d.Doc), true
	}

	if info, ok := s.client.Hover(ctx, stubPath, word); ok {
		return renderHoverInfo(word, info.Type, info.Doc), true
	}

	return "", false
}

// renderHoverInfo formats a name/type/doc triple as markdown.
func renderHoverInfo(name, typ, doc string) string {
	value := fmt.Sprintf("**%s**: `%s`", name, typ)
	if typ == "" {
		value = fmt.Sprintf("**%s**", name)
	}
	if doc != "" {
		value += "\n\n" + doc
	}
	return value
}

// macroSignatureInFile scans a template file on disk for a macro definition.
func macroSignatureInFile(path, name string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return template.MacroSignature(string(content), name)
}

func replyHover(ctx context.Context, reply jsonrpc2.Replier, value string) error {
	return reply(ctx, protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: value,
		},
	}, nil)
}

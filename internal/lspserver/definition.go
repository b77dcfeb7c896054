package lspserver

import (
	"context"
	"encoding/json"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/typedjinja/tjls/internal/backend"
	"github.com/typedjinja/tjls/internal/stub"
	"github.com/typedjinja/tjls/internal/template"
	"github.com/typedjinja/tjls/internal/workspace"
)

// handleDefinition answers textDocument/definition. Include targets jump to
// the included file, macros to their {% macro %} directive (backend first,
// in-process scan as fallback), and plain expressions to whatever the
// backend reports.
func (s *Server) handleDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	doc := s.documents.Get(string(params.TextDocument.URI))
	if doc == nil {
		return reply(ctx, nil, nil)
	}

	pos := template.Pos{Line: int(params.Position.Line), Character: int(params.Position.Character)}
	rc := s.resolver.ResolveExpression(doc.Content, pos)

	if rc.Kind == template.KindInclude {
		if path, ok := workspace.ResolveIncludePath(doc.Path(), s.rootPath, rc.TargetPath); ok {
			return replyLocations(ctx, reply, []protocol.Location{fileLocation(path)})
		}
		return reply(ctx, nil, nil)
	}

	word, ok := s.resolver.ResolveWord(doc.Content, pos)
	if !ok {
		return reply(ctx, nil, nil)
	}

	if loc, ok := s.macroDefinition(ctx, doc, word); ok {
		return replyLocations(ctx, reply, []protocol.Location{loc})
	}

	stubPath := stub.PathFor(doc.Path(), s.settings.CacheDir)
	if def, ok := s.client.Definition(ctx, stubPath, word, pos.Line, pos.Character); ok {
		return replyLocations(ctx, reply, []protocol.Location{defLocation(def)})
	}

	return reply(ctx, nil, nil)
}

// macroDefinition locates the definition of a macro named word, either in
// the template it is imported from or in the querying document itself.
func (s *Server) macroDefinition(ctx context.Context, doc *Document, word string) (protocol.Location, bool) {
	mc := template.ResolveMacroOrImport(doc.Content, word)

	if mc.Imported() {
		srcPath, ok := workspace.ResolveIncludePath(doc.Path(), s.rootPath, mc.SourceTemplate)
		if !ok {
			return protocol.Location{}, false
		}
		if def, ok := s.client.FindMacroDefinition(ctx, srcPath, word); ok {
			return defLocation(def), true
		}
		content, err := os.ReadFile(srcPath)
		if err != nil {
			return protocol.Location{}, false
		}
		if pos, ok := template.FindMacroDefinition(string(content), word); ok {
			return posLocation(srcPath, pos, word), true
		}
		return protocol.Location{}, false
	}

	if pos, ok := template.FindMacroDefinition(doc.Content, word); ok {
		return posLocation(doc.Path(), pos, word), true
	}
	return protocol.Location{}, false
}

// fileLocation points at the start of a file.
func fileLocation(path string) protocol.Location {
	return protocol.Location{URI: uri.File(path)}
}

// posLocation points at a word starting at pos in the given file.
func posLocation(path string, pos template.Pos, word string) protocol.Location {
	start := protocol.Position{Line: clampUint32(pos.Line), Character: clampUint32(pos.Character)}
	return protocol.Location{
		URI: uri.File(path),
		Range: protocol.Range{
			Start: start,
			End:   protocol.Position{Line: start.Line, Character: start.Character + clampUint32(len(word))},
		},
	}
}

// defLocation converts a backend definition response.
func defLocation(def backend.DefLocation) protocol.Location {
	return protocol.Location{
		URI: uri.File(def.FilePath),
		Range: protocol.Range{
			Start: protocol.Position{Line: clampUint32(def.Line), Character: clampUint32(def.Col)},
			End:   protocol.Position{Line: clampUint32(def.EndLine), Character: clampUint32(def.EndCol)},
		},
	}
}

func replyLocations(ctx context.Context, reply jsonrpc2.Replier, locs []protocol.Location) error {
	return reply(ctx, locs, nil)
}

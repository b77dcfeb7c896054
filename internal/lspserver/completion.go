package lspserver

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/typedjinja/tjls/internal/stub"
	"github.com/typedjinja/tjls/internal/template"
)

// handleCompletion answers textDocument/completion.
//
// Attribute access goes to the backend against the document's stub; anything
// else is served from the declared annotations (or a previously generated
// stub file when the document has no types block).
func (s *Server) handleCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	doc := s.documents.Get(string(params.TextDocument.URI))
	if doc == nil {
		return reply(ctx, nil, nil)
	}

	pos := template.Pos{Line: int(params.Position.Line), Character: int(params.Position.Character)}
	rc := s.resolver.ResolveExpression(doc.Content, pos)

	var items []protocol.CompletionItem
	switch rc.Kind {
	case template.KindAttribute:
		items = s.attributeCompletions(ctx, doc, rc)
	case template.KindWord:
		items = s.declarationCompletions(doc, rc.Word)
	case template.KindNone, template.KindCall:
		items = s.declarationCompletions(doc, "")
	case template.KindInclude:
		// Path completion is the editor's business; nothing to add.
	}

	if len(items) == 0 {
		return reply(ctx, nil, nil)
	}
	return reply(ctx, protocol.CompletionList{IsIncomplete: false, Items: items}, nil)
}

// attributeCompletions asks the backend to complete base.<partial>.
func (s *Server) attributeCompletions(ctx context.Context, doc *Document, rc template.ResolvedContext) []protocol.CompletionItem {
	stubPath := s.syncStub(doc)
	if stubPath == "" {
		return nil
	}

	candidates := s.client.Complete(ctx, stubPath, rc.Base)
	items := make([]protocol.CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		if rc.Partial != "" && !strings.HasPrefix(c.Name, rc.Partial) {
			continue
		}
		item := protocol.CompletionItem{
			Label:  c.Name,
			Kind:   completionKind(c.Type),
			Detail: c.Type,
		}
		if c.Docstring != "" {
			item.Documentation = c.Docstring
		}
		items = append(items, item)
	}
	return items
}

// declarationCompletions serves the template's own declared names, filtered
// by the word under the cursor.
func (s *Server) declarationCompletions(doc *Document, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	block := template.ParseTypesBlock(doc.Content)
	if block.Found {
		for _, a := range block.Annotations {
			if prefix != "" && !strings.HasPrefix(a.Name, prefix) {
				continue
			}
			item := protocol.CompletionItem{
				Label:  a.Name,
				Kind:   protocol.CompletionItemKindVariable,
				Detail: a.Type,
			}
			if a.Doc != "" {
				item.Documentation = a.Doc
			}
			items = append(items, item)
		}
		return items
	}

	// No types block: fall back to a stub generated out-of-band, if any.
	for _, d := range stub.Load(stub.PathFor(doc.Path(), s.settings.CacheDir)) {
		if prefix != "" && !strings.HasPrefix(d.Name, prefix) {
			continue
		}
		item := protocol.CompletionItem{
			Label:  d.Name,
			Kind:   protocol.CompletionItemKindVariable,
			Detail: d.Type,
		}
		if d.Doc != "" {
			item.Documentation = d.Doc
		}
		items = append(items, item)
	}
	return items
}

// completionKind maps the backend's jedi completion types to LSP kinds.
func completionKind(jediType string) protocol.CompletionItemKind {
	switch jediType {
	case "function":
		return protocol.CompletionItemKindFunction
	case "class":
		return protocol.CompletionItemKindClass
	case "module":
		return protocol.CompletionItemKindModule
	case "keyword":
		return protocol.CompletionItemKindKeyword
	case "instance", "statement":
		return protocol.CompletionItemKindVariable
	case "property":
		return protocol.CompletionItemKindProperty
	default:
		return protocol.CompletionItemKindField
	}
}

package lspserver

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/typedjinja/tjls/internal/backend"
	"github.com/typedjinja/tjls/internal/template"
)

// handleSignatureHelp answers textDocument/signatureHelp when the cursor is
// inside a call's argument list.
func (s *Server) handleSignatureHelp(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.SignatureHelpParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	doc := s.documents.Get(string(params.TextDocument.URI))
	if doc == nil {
		return reply(ctx, nil, nil)
	}

	pos := template.Pos{Line: int(params.Position.Line), Character: int(params.Position.Character)}
	rc := s.resolver.ResolveExpression(doc.Content, pos)
	if rc.Kind != template.KindCall {
		return reply(ctx, nil, nil)
	}

	stubPath := s.syncStub(doc)
	if stubPath == "" {
		return reply(ctx, nil, nil)
	}

	sigParams := s.client.Signature(ctx, stubPath, rc.Callee)
	if len(sigParams) == 0 {
		return reply(ctx, nil, nil)
	}

	return reply(ctx, signatureHelp(rc.Callee, sigParams), nil)
}

// signatureHelp builds the single-signature response the backend supports.
func signatureHelp(callee string, params []backend.Param) protocol.SignatureHelp {
	labels := make([]string, 0, len(params))
	infos := make([]protocol.ParameterInformation, 0, len(params))
	doc := ""

	for _, p := range params {
		label := p.Name
		if p.Annotation != "" {
			label += ": " + p.Annotation
		}
		if p.Default != "" {
			label += " = " + p.Default
		}
		labels = append(labels, label)
		infos = append(infos, protocol.ParameterInformation{Label: label})
		if doc == "" && p.Docstring != "" {
			doc = p.Docstring
		}
	}

	sig := protocol.SignatureInformation{
		Label:      callee + "(" + strings.Join(labels, ", ") + ")",
		Parameters: infos,
	}
	if doc != "" {
		sig.Documentation = doc
	}

	return protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{sig},
		ActiveSignature: 0,
		ActiveParameter: 0,
	}
}

package lspserver

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/typedjinja/tjls/internal/lint"
	"github.com/typedjinja/tjls/internal/stub"
)

// publishDiagnostics checks a document's annotation block and publishes the
// results. On save (withBackend), the external type-checker's findings are
// merged in; if the backend is unavailable the annotation diagnostics still
// go out alone.
func (s *Server) publishDiagnostics(ctx context.Context, doc *Document, withBackend bool) {
	result := lint.CheckTemplate(doc.Path(), doc.Content)
	diagnostics := convertDiagnostics(result.Issues)

	if withBackend {
		diagnostics = append(diagnostics, s.backendDiagnostics(ctx, doc)...)
	}

	if err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI),
		Diagnostics: diagnostics,
	}); err != nil {
		s.log.Warnf("lsp: failed to publish diagnostics: %v", err)
	}
}

// clearDiagnostics sends an empty diagnostics array to clear issues for a URI.
func (s *Server) clearDiagnostics(ctx context.Context, docURI string) {
	if err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Diagnostics: []protocol.Diagnostic{},
	}); err != nil {
		s.log.Warnf("lsp: failed to clear diagnostics: %v", err)
	}
}

// syncStub regenerates the document's stub artifact. Returns the stub path,
// or empty when the template has no types block or the write failed.
func (s *Server) syncStub(doc *Document) string {
	path, err := stub.Sync(doc.Path(), doc.Content, s.settings.CacheDir)
	if err != nil {
		s.log.Warnf("lsp: stub sync for %s: %v", doc.URI, err)
		return ""
	}
	return path
}

// backendDiagnostics runs the external type-checker against the saved stub.
func (s *Server) backendDiagnostics(ctx context.Context, doc *Document) []protocol.Diagnostic {
	stubPath := stub.PathFor(doc.Path(), s.settings.CacheDir)
	diags := s.client.Diagnostics(ctx, stubPath, doc.Path())

	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: clampUint32(d.Line), Character: clampUint32(d.Col)},
				End:   protocol.Position{Line: clampUint32(d.EndLine), Character: clampUint32(d.EndCol)},
			},
			Severity: backendSeverity(d.Severity),
			Source:   serverName,
			Message:  d.Message,
		})
	}
	return out
}

// convertDiagnostics converts annotation issues to LSP diagnostics.
func convertDiagnostics(issues []lint.Issue) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    issueRange(issue),
			Severity: severityToLSP(issue.Severity),
			Source:   serverName,
			Code:     issue.Rule,
			Message:  issue.Message,
		})
	}
	return diagnostics
}

// issueRange spans the full issue line. Issues carry no column information,
// so the range extends to a large column the client clamps to the line end.
func issueRange(issue lint.Issue) protocol.Range {
	line := clampUint32(issue.Line)
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: 0},
		End:   protocol.Position{Line: line, Character: 1000},
	}
}

// severityToLSP converts an issue severity to an LSP DiagnosticSeverity.
func severityToLSP(severity string) protocol.DiagnosticSeverity {
	switch severity {
	case "error":
		return protocol.DiagnosticSeverityError
	case "warning":
		return protocol.DiagnosticSeverityWarning
	case "info":
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

// backendSeverity maps the external tool's severity strings.
func backendSeverity(severity string) protocol.DiagnosticSeverity {
	switch severity {
	case "error", "":
		return protocol.DiagnosticSeverityError
	case "warning":
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// clampUint32 safely converts an int to uint32, clamping negative values to 0.
func clampUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v) //nolint:gosec // line/column numbers are well within uint32 range
}

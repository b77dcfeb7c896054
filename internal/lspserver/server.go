// Package lspserver implements the Language Server Protocol server for tjls.
//
// The server tracks open Jinja2 templates, publishes annotation diagnostics,
// and answers completion, hover, definition, and signature-help requests.
// Cursor classification happens in-process (internal/template); everything
// semantically Python-aware is delegated to the external typedjinja backend
// (internal/backend) and degrades silently when that backend is missing.
//
// Transport: stdio only (--stdio) for v1.
// Protocol: LSP 3.16 types via go.lsp.dev/protocol, JSON-RPC via go.lsp.dev/jsonrpc2.
package lspserver

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/typedjinja/tjls/internal/backend"
	"github.com/typedjinja/tjls/internal/config"
	"github.com/typedjinja/tjls/internal/template"
	"github.com/typedjinja/tjls/internal/version"
	"github.com/typedjinja/tjls/internal/workspace"
)

const serverName = "tjls"

// Server is the tjls LSP server. All session state — open documents, active
// connection, resolved settings — lives here; one Server value per session.
type Server struct {
	conn      jsonrpc2.Conn
	documents *DocumentStore

	settings config.Settings
	resolver template.Resolver
	client   *backend.Client
	rootPath string

	log *logrus.Logger
}

// New creates a new LSP server with the given base settings.
func New(settings config.Settings, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		documents: NewDocumentStore(),
		log:       log,
	}
	s.applySettings(settings)
	return s
}

// applySettings installs settings and the collaborators derived from them.
func (s *Server) applySettings(settings config.Settings) {
	s.settings = settings
	s.resolver = template.NewResolver(settings.Strategy)
	invoker := backend.NewPythonInvoker(settings.Python, settings.BackendModule, settings.BackendTimeout, s.log)
	s.client = backend.NewClient(invoker, s.log)
}

// RunStdio starts the LSP server on stdin/stdout.
// It blocks until the connection is closed or the context is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	stream := jsonrpc2.NewStream(stdioReadWriteCloser{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	conn.Go(ctx, jsonrpc2.AsyncHandler(jsonrpc2.ReplyHandler(s.handle)))

	select {
	case <-ctx.Done():
		return conn.Close()
	case <-conn.Done():
		return conn.Err()
	}
}

// handle dispatches incoming JSON-RPC messages to the appropriate handler.
func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	// Lifecycle
	case protocol.MethodInitialize:
		return s.handleInitialize(ctx, reply, req)
	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		return s.conn.Close()
	case protocol.MethodSetTrace:
		return reply(ctx, nil, nil)

	// Document sync
	case protocol.MethodTextDocumentDidOpen:
		return s.handleDidOpen(ctx, reply, req)
	case protocol.MethodTextDocumentDidChange:
		return s.handleDidChange(ctx, reply, req)
	case protocol.MethodTextDocumentDidSave:
		return s.handleDidSave(ctx, reply, req)
	case protocol.MethodTextDocumentDidClose:
		return s.handleDidClose(ctx, reply, req)

	// Language features
	case protocol.MethodTextDocumentCompletion:
		return s.handleCompletion(ctx, reply, req)
	case protocol.MethodTextDocumentHover:
		return s.handleHover(ctx, reply, req)
	case protocol.MethodTextDocumentDefinition:
		return s.handleDefinition(ctx, reply, req)
	case protocol.MethodTextDocumentSignatureHelp:
		return s.handleSignatureHelp(ctx, reply, req)

	// Workspace
	case protocol.MethodWorkspaceDidChangeConfiguration:
		return s.handleDidChangeConfiguration(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

// handleInitialize responds to the initialize request with server
// capabilities, resolves workspace settings, and warms the stub cache.
func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	s.log.Infof("lsp: initialize from %s", clientInfoString(params.ClientInfo))

	s.rootPath = rootPathFromParams(&params)
	settings, err := config.Load(s.rootPath)
	if err != nil {
		s.log.Warnf("lsp: config load error: %v", err)
		settings = config.Default()
	}
	if opts, ok := params.InitializationOptions.(map[string]any); ok {
		settings = config.Resolve(opts, settings)
	}
	s.applySettings(settings)

	if s.rootPath != "" {
		// Stub warm-up can touch many files; keep it off the request path.
		go func(root string, cfg config.Settings) {
			n := workspace.SyncStubs(root, cfg.TemplateGlobs, cfg.CacheDir, s.log)
			s.log.Debugf("lsp: warmed %d stub(s) under %s", n, root)
		}(s.rootPath, settings)
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: true,
				},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"."},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: version.RawVersion(),
		},
	}

	return reply(ctx, result, nil)
}

// handleDidOpen tracks the document, refreshes its stub artifact, and
// publishes annotation diagnostics.
func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	uri := string(params.TextDocument.URI)
	s.documents.Open(uri, string(params.TextDocument.LanguageID), params.TextDocument.Version, params.TextDocument.Text)

	if doc := s.documents.Get(uri); doc != nil {
		s.syncStub(doc)
		s.publishDiagnostics(ctx, doc, false)
	}
	return reply(ctx, nil, nil)
}

// handleDidChange updates the document and re-publishes diagnostics.
func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	uri := string(params.TextDocument.URI)

	// With full sync, there's exactly one content change containing the full text.
	for _, change := range params.ContentChanges {
		s.documents.Update(uri, params.TextDocument.Version, change.Text)
	}

	if doc := s.documents.Get(uri); doc != nil {
		s.publishDiagnostics(ctx, doc, false)
	}
	return reply(ctx, nil, nil)
}

// handleDidSave regenerates the stub artifact and adds backend diagnostics.
func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	uri := string(params.TextDocument.URI)
	if params.Text != "" {
		s.documents.Update(uri, 0, params.Text)
	}

	if doc := s.documents.Get(uri); doc != nil {
		s.syncStub(doc)
		s.publishDiagnostics(ctx, doc, true)
	}
	return reply(ctx, nil, nil)
}

// handleDidClose clears diagnostics and forgets the document.
func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	uri := string(params.TextDocument.URI)
	s.documents.Close(uri)
	s.clearDiagnostics(ctx, uri)
	return reply(ctx, nil, nil)
}

// handleDidChangeConfiguration merges client settings over the current ones.
func (s *Server) handleDidChangeConfiguration(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeConfigurationParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	if opts, ok := params.Settings.(map[string]any); ok {
		s.applySettings(config.Resolve(opts, s.settings))
		s.log.Debugf("lsp: settings updated (strategy=%s)", s.settings.Strategy)
	}
	return reply(ctx, nil, nil)
}

// replyParseError sends a JSON-RPC parse error.
func replyParseError(ctx context.Context, reply jsonrpc2.Replier, err error) error {
	return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.ParseError, "invalid params: %v", err))
}

// clientInfoString formats client info for logging.
func clientInfoString(info *protocol.ClientInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}

// rootPathFromParams extracts the workspace root from initialize params.
func rootPathFromParams(params *protocol.InitializeParams) string {
	if len(params.WorkspaceFolders) > 0 {
		return uriToPath(params.WorkspaceFolders[0].URI)
	}
	if params.RootURI != "" {
		return uriToPath(string(params.RootURI))
	}
	return ""
}

// uriToPath converts a file:// URI to a local file path.
func uriToPath(docURI string) string {
	parsed, err := url.Parse(docURI)
	if err != nil {
		return strings.TrimPrefix(docURI, "file://")
	}
	path := parsed.Path
	// On Windows, file URIs look like file:///C:/path, so Path is /C:/path.
	if runtime.GOOS == "windows" && len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// stdioReadWriteCloser wraps stdin/stdout as an io.ReadWriteCloser for JSON-RPC.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }

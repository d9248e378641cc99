package server

import (
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/internal/util"
	"github.com/teranos/sqb/search/lsp"
	"github.com/teranos/sqb/search/syntax"
	"github.com/teranos/sqb/version"
)

const (
	// maxDocumentsPerClient limits document cache size to prevent memory exhaustion
	maxDocumentsPerClient = 100

	languageServerName = "sqb Search Language Server"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
)

// GLSPHandler implements LSP protocol handlers for one WebSocket client.
// Each open document holds a single search query.
type GLSPHandler struct {
	service   *lsp.Service
	server    *Server
	documents map[string]string // URI → query
	mu        sync.RWMutex
}

// NewGLSPHandler creates a new GLSP handler wrapping the language service
func NewGLSPHandler(service *lsp.Service, server *Server) *GLSPHandler {
	return &GLSPHandler{
		service:   service,
		server:    server,
		documents: make(map[string]string),
	}
}

// Initialize handles LSP initialize request
func (h *GLSPHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.server.logger.Infow("LSP client initializing",
		"client", params.ClientInfo,
		"capabilities", "completion, hover, semanticTokens, diagnostics",
	)

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities := protocol.ServerCapabilities{
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{" ", ":", "!", "("},
		},
		HoverProvider: &protocol.HoverOptions{},
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: util.Ptr(true),
			Change:    &syncKind,
		},
		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: protocol.SemanticTokensLegend{
				TokenTypes:     lsp.TokenTypeLegend,
				TokenModifiers: lsp.TokenModifierLegend,
			},
			Full: true,
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    languageServerName,
			Version: util.Ptr(version.Get().Version),
		},
	}, nil
}

// Initialized is called after client receives InitializeResult
func (h *GLSPHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.server.logger.Infow("LSP client initialized successfully")
	return nil
}

// Shutdown handles LSP shutdown request
func (h *GLSPHandler) Shutdown(ctx *glsp.Context) error {
	h.server.logger.Infow("LSP client shutting down")
	return nil
}

// TextDocumentDidOpen caches the query and publishes its diagnostics
func (h *GLSPHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	if _, exists := h.documents[uri]; !exists && len(h.documents) >= maxDocumentsPerClient {
		h.mu.Unlock()
		h.server.logger.Warnw("Document cache limit reached, rejecting new document",
			"uri", uri,
			"max_allowed", maxDocumentsPerClient,
		)
		return errors.Newf("document cache limit reached (%d documents open)", maxDocumentsPerClient)
	}
	h.documents[uri] = params.TextDocument.Text
	total := len(h.documents)
	h.mu.Unlock()

	h.server.logger.Debugw("Document opened",
		"uri", uri,
		"length", len(params.TextDocument.Text),
		"total_documents", total,
	)

	h.publishDiagnostics(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

// TextDocumentDidChange replaces the cached query and republishes diagnostics
func (h *GLSPHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	query := h.documents[uri]
	for _, change := range params.ContentChanges {
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			query = textChange.Text
		}
	}
	h.documents[uri] = query
	h.mu.Unlock()

	h.server.logger.Debugw("Document changed",
		"uri", uri,
		"changes", len(params.ContentChanges),
	)

	h.publishDiagnostics(ctx, params.TextDocument.URI, query)
	return nil
}

// TextDocumentDidClose drops the cached query
func (h *GLSPHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	delete(h.documents, uri)

	h.server.logger.Debugw("Document closed", "uri", uri)
	return nil
}

// publishDiagnostics sends the query's diagnostics to the client
func (h *GLSPHandler) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, query string) {
	resp, err := h.service.Parse(h.server.ctx, query, len(query))
	if err != nil {
		h.server.logger.Warnw("Failed to parse for diagnostics", "error", err)
		return
	}

	diagnostics := make([]protocol.Diagnostic, len(resp.Diagnostics))
	for i, d := range resp.Diagnostics {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == string(syntax.SeverityWarning) {
			severity = protocol.DiagnosticSeverityWarning
		}
		diagnostics[i] = protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(d.Kind)},
			Source:   util.Ptr("sqb"),
			Message:  d.Message,
		}
	}

	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(methodPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})

	h.server.logger.Debugw("LSP diagnostics published", "uri", uri, "count", len(diagnostics))
}

// TextDocumentCompletion provides context-aware completions
func (h *GLSPHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	// Panic recovery: if completion logic panics, return empty list instead of crashing
	defer func() {
		if r := recover(); r != nil {
			h.server.logger.Errorw("Panic in completion handler",
				"panic", r,
				"uri", params.TextDocument.URI,
			)
			result = []protocol.CompletionItem{}
			err = nil
		}
	}()

	query, ok := h.document(params.TextDocument.URI)
	if !ok {
		return []protocol.CompletionItem{}, nil
	}
	cursor := offsetAt(query, params.Position)

	h.server.logger.Debugw("LSP completion details",
		"uri", params.TextDocument.URI,
		"line", params.Position.Line,
		"cursor", cursor,
		"query", query,
	)

	trigger := "auto"
	if params.Context != nil && params.Context.TriggerKind == protocol.CompletionTriggerKindInvoked {
		trigger = "manual"
	}

	// Use server's context for cancellation on shutdown
	items, err := h.service.GetCompletions(h.server.ctx, lsp.CompletionRequest{
		Query:   query,
		Cursor:  cursor,
		Trigger: trigger,
	})
	if err != nil {
		h.server.logger.Errorw("Completion error", "error", err)
		return nil, err
	}

	completionItems := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		completionItems[i] = protocol.CompletionItem{
			Label:      item.Label,
			Kind:       mapCompletionKind(item.Kind),
			Detail:     stringPtrOrNil(item.Detail),
			InsertText: stringPtrOrNil(item.InsertText),
			SortText:   stringPtrOrNil(item.SortText),
		}
		if item.Documentation != "" {
			completionItems[i].Documentation = item.Documentation
		}
	}

	h.server.logger.Infow("LSP completion result", "count", len(completionItems))
	return completionItems, nil
}

// TextDocumentHover provides hover information
func (h *GLSPHandler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (result *protocol.Hover, err error) {
	// Panic recovery: if hover logic panics, return nil instead of crashing
	defer func() {
		if r := recover(); r != nil {
			h.server.logger.Errorw("Panic in hover handler",
				"panic", r,
				"uri", params.TextDocument.URI,
			)
			result = nil
			err = nil
		}
	}()

	query, ok := h.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	cursor := offsetAt(query, params.Position)

	hover, err := h.service.Hover(h.server.ctx, query, cursor)
	if err != nil || hover == nil {
		return nil, nil // Silently fail for hover
	}

	h.server.logger.Debugw("LSP hover content", "cursor", cursor, "hover", hover.Contents)

	rng := toProtocolRange(hover.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hover.Contents,
		},
		Range: &rng,
	}, nil
}

// TextDocumentSemanticTokensFull handles semantic tokens request for syntax highlighting
func (h *GLSPHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (result *protocol.SemanticTokens, err error) {
	// Panic recovery: if parser or encoder panics, return empty tokens instead of crashing
	defer func() {
		if r := recover(); r != nil {
			h.server.logger.Errorw("Panic in semantic tokens handler",
				"panic", r,
				"uri", params.TextDocument.URI,
			)
			result = &protocol.SemanticTokens{Data: []uint32{}}
			err = nil
		}
	}()

	query, ok := h.document(params.TextDocument.URI)
	if !ok || query == "" {
		return &protocol.SemanticTokens{Data: []uint32{}}, nil
	}

	resp, err := h.service.Parse(h.server.ctx, query, 0)
	if err != nil {
		h.server.logger.Warnw("Failed to parse for semantic tokens", "error", err)
		return &protocol.SemanticTokens{Data: []uint32{}}, nil
	}

	data := encodeSemanticTokens(resp.Tokens)
	h.server.logger.Debugw("LSP semantic tokens result",
		"token_count", len(resp.Tokens),
		"data_length", len(data),
	)
	return &protocol.SemanticTokens{Data: data}, nil
}

func (h *GLSPHandler) document(uri protocol.DocumentUri) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	query, ok := h.documents[string(uri)]
	return query, ok
}

// Helper functions

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mapCompletionKind maps our completion kinds to LSP CompletionItemKind
func mapCompletionKind(kind string) *protocol.CompletionItemKind {
	var k protocol.CompletionItemKind
	switch kind {
	case lsp.CompletionKey:
		k = protocol.CompletionItemKindProperty
	case lsp.CompletionValue:
		k = protocol.CompletionItemKindValue
	case lsp.CompletionKeyword:
		k = protocol.CompletionItemKindKeyword
	default:
		k = protocol.CompletionItemKindText
	}
	return &k
}

// offsetAt converts an LSP position (0-based line, rune column) to a byte offset in text
func offsetAt(text string, pos protocol.Position) int {
	line, col := uint32(0), uint32(0)
	for i := 0; i < len(text); {
		if line == pos.Line && col == pos.Character {
			return i
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			if line == pos.Line {
				return i // column past the end of the line
			}
			line++
			col = 0
		} else {
			col++
		}
		i += size
	}
	return len(text)
}

// toProtocolRange converts a query range (1-based lines) to an LSP range
func toProtocolRange(r syntax.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(max(r.Start.Line-1, 0)), Character: uint32(r.Start.Character)},
		End:   protocol.Position{Line: uint32(max(r.End.Line-1, 0)), Character: uint32(r.End.Character)},
	}
}

// encodeSemanticTokens converts query tokens to LSP semantic tokens format
// LSP format: array of 5-tuples (deltaLine, deltaStart, length, tokenType, tokenModifiers)
// All positions are deltas from the previous token
func encodeSemanticTokens(tokens []syntax.SemanticToken) []uint32 {
	if len(tokens) == 0 {
		return []uint32{}
	}

	data := make([]uint32, 0, len(tokens)*5)
	var prevLine, prevChar uint32

	for _, token := range tokens {
		line := uint32(max(token.Range.Start.Line-1, 0))
		char := uint32(token.Range.Start.Character)
		length := uint32(utf8.RuneCountInString(token.Text))
		modifiers := uint32(0)
		if token.Invalid {
			modifiers |= lsp.TokenModifierInvalid
		}

		deltaLine := line - prevLine
		deltaStart := char
		if deltaLine == 0 {
			deltaStart = char - prevChar
		}

		data = append(data,
			deltaLine,
			deltaStart,
			length,
			lsp.SemanticTypeIndex(token.Type),
			modifiers,
		)

		prevLine = line
		prevChar = char
	}

	return data
}

// HandleGLSPWebSocket upgrades HTTP to WebSocket and serves LSP protocol
func (s *Server) HandleGLSPWebSocket(w http.ResponseWriter, r *http.Request) {
	s.logger.Infow("GLSP WebSocket connection request", "remote", r.RemoteAddr)

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("Failed to upgrade WebSocket", "error", err)
		return
	}

	glspHandler := NewGLSPHandler(s.langService, s)
	protocolHandler := protocol.Handler{
		Initialize:                     glspHandler.Initialize,
		Initialized:                    glspHandler.Initialized,
		Shutdown:                       glspHandler.Shutdown,
		TextDocumentDidOpen:            glspHandler.TextDocumentDidOpen,
		TextDocumentDidChange:          glspHandler.TextDocumentDidChange,
		TextDocumentDidClose:           glspHandler.TextDocumentDidClose,
		TextDocumentCompletion:         glspHandler.TextDocumentCompletion,
		TextDocumentHover:              glspHandler.TextDocumentHover,
		TextDocumentSemanticTokensFull: glspHandler.TextDocumentSemanticTokensFull,
	}

	glspServer := glspserver.NewServer(&protocolHandler, languageServerName, false)

	// Close the connection on shutdown so ServeWebSocket returns
	s.wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.logger.Infow("Serving GLSP over WebSocket", "remote", r.RemoteAddr)
	glspServer.ServeWebSocket(conn)
	close(done)

	s.logger.Infow("GLSP WebSocket connection closed", "remote", r.RemoteAddr)
}

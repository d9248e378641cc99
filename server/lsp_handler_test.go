package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/sqb/search/lsp"
	"github.com/teranos/sqb/search/syntax"
)

// lspClient speaks JSON-RPC over the test WebSocket
type lspClient struct {
	t             *testing.T
	conn          *websocket.Conn
	nextID        int
	notifications []map[string]interface{}
}

func dialLSP(t *testing.T, srv *Server) *lspClient {
	t.Helper()
	testServer := httptest.NewServer(http.HandlerFunc(srv.HandleGLSPWebSocket))
	t.Cleanup(testServer.Close)

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &lspClient{t: t, conn: conn}
}

func (c *lspClient) read() map[string]interface{} {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

// call sends a request and returns its result, queueing notifications read on the way
func (c *lspClient) call(method string, params interface{}) interface{} {
	c.t.Helper()
	c.nextID++
	id := c.nextID
	require.NoError(c.t, c.conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}))

	for {
		msg := c.read()
		if _, isNotification := msg["method"]; isNotification {
			c.notifications = append(c.notifications, msg)
			continue
		}
		require.EqualValues(c.t, id, msg["id"])
		require.Nil(c.t, msg["error"], "unexpected error response: %v", msg["error"])
		return msg["result"]
	}
}

func (c *lspClient) notify(method string, params interface{}) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}))
}

// awaitNotification returns the next notification with the given method
func (c *lspClient) awaitNotification(method string) map[string]interface{} {
	c.t.Helper()
	for i, msg := range c.notifications {
		if msg["method"] == method {
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			return msg
		}
	}
	for {
		msg := c.read()
		if msg["method"] == method {
			return msg
		}
		c.notifications = append(c.notifications, msg)
	}
}

func (c *lspClient) initialize() map[string]interface{} {
	c.t.Helper()
	result := c.call("initialize", map[string]interface{}{
		"processId":    nil,
		"clientInfo":   map[string]interface{}{"name": "TestClient", "version": "1.0"},
		"capabilities": map[string]interface{}{},
	})
	c.notify("initialized", map[string]interface{}{})
	return result.(map[string]interface{})
}

func (c *lspClient) open(uri, text string) []interface{} {
	c.t.Helper()
	c.notify("textDocument/didOpen", map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri": uri, "languageId": "sqb", "version": 1, "text": text,
		},
	})
	return c.diagnostics(uri)
}

func (c *lspClient) change(uri, text string, version int) []interface{} {
	c.t.Helper()
	c.notify("textDocument/didChange", map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": uri, "version": version},
		"contentChanges": []interface{}{map[string]interface{}{"text": text}},
	})
	return c.diagnostics(uri)
}

func (c *lspClient) diagnostics(uri string) []interface{} {
	c.t.Helper()
	msg := c.awaitNotification(methodPublishDiagnostics)
	params := msg["params"].(map[string]interface{})
	require.Equal(c.t, uri, params["uri"])
	return params["diagnostics"].([]interface{})
}

func TestGLSPHandlerLifecycle(t *testing.T) {
	srv := createTestServer(t, nil)
	client := dialLSP(t, srv)

	result := client.initialize()
	capabilities := result["capabilities"].(map[string]interface{})
	assert.NotNil(t, capabilities["hoverProvider"])
	assert.NotNil(t, capabilities["completionProvider"])

	semantic := capabilities["semanticTokensProvider"].(map[string]interface{})
	legend := semantic["legend"].(map[string]interface{})
	assert.Len(t, legend["tokenTypes"], len(lsp.TokenTypeLegend))
	assert.Equal(t, []interface{}{"invalid"}, legend["tokenModifiers"])

	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, languageServerName, serverInfo["name"])

	client.call("shutdown", nil)
}

func TestGLSPDocumentFlow(t *testing.T) {
	srv := createTestServer(t, nil)
	client := dialLSP(t, srv)
	client.initialize()

	const uri = "file:///search.sqb"

	diags := client.open(uri, "level:error unknown.key:x")
	require.Len(t, diags, 1)
	diag := diags[0].(map[string]interface{})
	assert.EqualValues(t, protocol.DiagnosticSeverityWarning, diag["severity"])
	assert.Equal(t, "unknown_key", diag["code"])

	diags = client.change(uri, "level:error brow", 2)
	assert.Empty(t, diags)

	t.Run("completion", func(t *testing.T) {
		result := client.call("textDocument/completion", map[string]interface{}{
			"textDocument": map[string]interface{}{"uri": uri},
			"position":     map[string]interface{}{"line": 0, "character": 16},
		})
		items := result.([]interface{})
		require.NotEmpty(t, items)
		first := items[0].(map[string]interface{})
		assert.Equal(t, "browser", first["label"])
		assert.EqualValues(t, protocol.CompletionItemKindProperty, first["kind"])
	})

	t.Run("hover", func(t *testing.T) {
		result := client.call("textDocument/hover", map[string]interface{}{
			"textDocument": map[string]interface{}{"uri": uri},
			"position":     map[string]interface{}{"line": 0, "character": 2},
		})
		hover := result.(map[string]interface{})
		contents := hover["contents"].(map[string]interface{})
		assert.Equal(t, "markdown", contents["kind"])
		assert.Contains(t, contents["value"], "**level**")
	})

	t.Run("semantic tokens", func(t *testing.T) {
		result := client.call("textDocument/semanticTokens/full", map[string]interface{}{
			"textDocument": map[string]interface{}{"uri": uri},
		})
		data := result.(map[string]interface{})["data"].([]interface{})
		require.NotEmpty(t, data)
		assert.Zero(t, len(data)%5)
		assert.Equal(t, []interface{}{0.0, 0.0, 5.0, float64(lsp.TokenTypeProperty), 0.0}, data[:5])
	})

	t.Run("unknown document", func(t *testing.T) {
		result := client.call("textDocument/completion", map[string]interface{}{
			"textDocument": map[string]interface{}{"uri": "file:///other.sqb"},
			"position":     map[string]interface{}{"line": 0, "character": 0},
		})
		assert.Empty(t, result)
	})
}

func TestEncodeSemanticTokens(t *testing.T) {
	tokens := []syntax.SemanticToken{
		{
			Text:  "level",
			Type:  syntax.SemanticKey,
			Range: syntax.Range{Start: syntax.Position{Line: 1, Character: 0}},
		},
		{
			Text:    "nope",
			Type:    syntax.SemanticValue,
			Range:   syntax.Range{Start: syntax.Position{Line: 1, Character: 6}},
			Invalid: true,
		},
		{
			Text:  "AND",
			Type:  syntax.SemanticBoolean,
			Range: syntax.Range{Start: syntax.Position{Line: 2, Character: 1}},
		},
	}

	assert.Equal(t, []uint32{
		0, 0, 5, lsp.TokenTypeProperty, 0,
		0, 6, 4, lsp.TokenTypeString, lsp.TokenModifierInvalid,
		1, 1, 3, lsp.TokenTypeKeyword, 0,
	}, encodeSemanticTokens(tokens))

	assert.Equal(t, []uint32{}, encodeSemanticTokens(nil))
}

func TestOffsetAt(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want int
	}{
		{"start", "level:error", protocol.Position{Line: 0, Character: 0}, 0},
		{"middle", "level:error", protocol.Position{Line: 0, Character: 6}, 6},
		{"end", "level:error", protocol.Position{Line: 0, Character: 11}, 11},
		{"past end", "level:error", protocol.Position{Line: 0, Character: 40}, 11},
		{"second line", "ab\ncd", protocol.Position{Line: 1, Character: 1}, 4},
		{"past end of line", "ab\ncd", protocol.Position{Line: 0, Character: 9}, 2},
		{"missing line", "ab", protocol.Position{Line: 3, Character: 0}, 2},
		{"multibyte", "é:x", protocol.Position{Line: 0, Character: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, offsetAt(tt.text, tt.pos))
		})
	}
}

func TestMapCompletionKind(t *testing.T) {
	assert.Equal(t, protocol.CompletionItemKindProperty, *mapCompletionKind(lsp.CompletionKey))
	assert.Equal(t, protocol.CompletionItemKindValue, *mapCompletionKind(lsp.CompletionValue))
	assert.Equal(t, protocol.CompletionItemKindKeyword, *mapCompletionKind(lsp.CompletionKeyword))
	assert.Equal(t, protocol.CompletionItemKindText, *mapCompletionKind("other"))
}

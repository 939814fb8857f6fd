package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/oarkflow/log"

	"github.com/xirelogy/go-mumei"
	"github.com/xirelogy/go-mumei/internal/config"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	quiet := &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
	opts := []mumei.Option{mumei.WithLogger(quiet)}
	if cfg != nil {
		opts = append(opts, mumei.WithConfig(cfg))
	}
	engine, err := mumei.New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return New(engine, WithAccessLog(io.Discard))
}

func do(t *testing.T, s *Server, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestEvaluateEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		body   string
		status int
		result string
		output string
	}{
		{`{"source": "println(\"hi\")\n1 + 2"}`, 200, "3", "hi\n"},
		{`{"source": "let = 1"}`, 400, "", ""},
		{`{"source": "\"open"}`, 400, "", ""},
		{`{"source": "1 / 0"}`, 422, "", ""},
		{`{"source": "\"a\" * 10000000000000000000"}`, 422, "", ""},
		{`{"source": "  "}`, 400, "", ""},
		{`not json`, 400, "", ""},
	}
	for _, tt := range tests {
		var resp struct {
			Result string `json:"result"`
			Output string `json:"output"`
			Error  string `json:"error"`
		}
		status := do(t, s, "POST", "/api/evaluate", tt.body, &resp)
		if status != tt.status {
			t.Fatalf("%s: expected status %d, got %d (%s)", tt.body, tt.status, status, resp.Error)
		}
		if status == 200 && (resp.Result != tt.result || resp.Output != tt.output) {
			t.Fatalf("%s: unexpected %+v", tt.body, resp)
		}
		if status != 200 && resp.Error == "" {
			t.Fatalf("%s: missing error message", tt.body)
		}
	}
}

func TestTokenizeAndASTEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	var toks []TokenResponse
	if status := do(t, s, "POST", "/api/tokenize", `{"source": "let x = 1"}`, &toks); status != 200 {
		t.Fatalf("tokenize status %d", status)
	}
	if len(toks) < 5 || toks[1].Literal != "x" || toks[1].Column != 5 {
		t.Fatalf("unexpected tokens %+v", toks)
	}

	var tree struct {
		AST string `json:"ast"`
	}
	if status := do(t, s, "POST", "/api/ast", `{"source": "1 + 2"}`, &tree); status != 200 || tree.AST == "" {
		t.Fatalf("ast status %d: %q", status, tree.AST)
	}
}

func TestBytecodeEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	var compiled CompileResponse
	if status := do(t, s, "POST", "/api/bytecode", `{"source": "let n = 6\nprintln(n)\nn * 7"}`, &compiled); status != 201 {
		t.Fatalf("compile status %d", status)
	}
	path := "/api/bytecode/" + strconv.FormatUint(compiled.Handle, 10)

	var listing struct {
		Listing string `json:"listing"`
	}
	if status := do(t, s, "GET", path, "", &listing); status != 200 || !strings.Contains(listing.Listing, "OP_PRINT") {
		t.Fatalf("disassemble status %d: %q", status, listing.Listing)
	}

	var run EvalResponse
	if status := do(t, s, "POST", path+"/execute", "", &run); status != 200 || run.Result != "42" || run.Output != "6\n" {
		t.Fatalf("execute status %d: %+v", status, run)
	}

	var fast struct {
		Result float64 `json:"result"`
	}
	if status := do(t, s, "POST", path+"/fast", "", &fast); status != 200 || fast.Result != 42 {
		t.Fatalf("fast status %d: %+v", status, fast)
	}

	if status := do(t, s, "DELETE", path, "", nil); status != 204 {
		t.Fatalf("release status %d", status)
	}
	if status := do(t, s, "POST", path+"/execute", "", &run); status != 404 {
		t.Fatalf("released handle should be 404, got %d", status)
	}
	if status := do(t, s, "GET", "/api/bytecode/abc", "", &listing); status != 400 {
		t.Fatalf("bad handle should be 400, got %d", status)
	}

	var failed struct {
		Error string `json:"error"`
	}
	if status := do(t, s, "POST", "/api/bytecode", `{"source": "class A {\n  fun f() { 1 }\n}"}`, &failed); status != 400 {
		t.Fatalf("compile error should be 400, got %d", status)
	}
	if !strings.Contains(failed.Error, "not supported") {
		t.Fatalf("unexpected error %q", failed.Error)
	}
}

func TestSessionEndpoints(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxSessions = 1
	s := newTestServer(t, cfg)

	var opened struct {
		ID string `json:"id"`
	}
	if status := do(t, s, "POST", "/api/sessions", "", &opened); status != 201 || opened.ID == "" {
		t.Fatalf("open status %d: %+v", status, opened)
	}
	if status := do(t, s, "POST", "/api/sessions", "", nil); status != 503 {
		t.Fatalf("second session should hit the limit, got %d", status)
	}

	path := "/api/sessions/" + opened.ID
	var run EvalResponse
	if status := do(t, s, "POST", path+"/eval", `{"source": "let total = 40"}`, &run); status != 200 {
		t.Fatalf("eval status %d", status)
	}
	if status := do(t, s, "POST", path+"/eval", `{"source": "print(total)\ntotal + 2"}`, &run); status != 200 {
		t.Fatalf("eval status %d", status)
	}
	if run.Result != "42" || run.Output != "40" {
		t.Fatalf("session lost state: %+v", run)
	}

	var names struct {
		Names []string `json:"names"`
	}
	if status := do(t, s, "GET", path, "", &names); status != 200 || len(names.Names) != 1 || names.Names[0] != "total" {
		t.Fatalf("names status %d: %+v", status, names)
	}

	var stats struct {
		Sessions int `json:"sessions"`
	}
	do(t, s, "GET", "/api/stats", "", &stats)
	if stats.Sessions != 1 {
		t.Fatalf("expected 1 session, got %d", stats.Sessions)
	}

	if status := do(t, s, "DELETE", path, "", nil); status != 204 {
		t.Fatalf("close status %d", status)
	}
	if status := do(t, s, "POST", path+"/eval", `{"source": "1"}`, &run); status != 404 {
		t.Fatalf("closed session should be 404, got %d", status)
	}
}

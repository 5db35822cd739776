package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/goleak"

	"github.com/louisbranch/arcana/internal/platform/timeouts"
	"github.com/louisbranch/arcana/internal/services/arcana/app"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
	"github.com/louisbranch/arcana/internal/services/arcana/storage/jsonfile"
)

func newTestService(t *testing.T) *app.Service {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "ordinances_db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc, err := app.NewService(rules.NewEngine(cat), store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := New(newTestService(t), "en-US", nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

// connect serves server over in-memory transports and returns a client
// session. Cleanup closes the session and waits for the server to stop.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer clientCancel()
	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancel")
		}
	})
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result == nil {
		t.Fatalf("call %s returned nil", name)
	}
	return result
}

func decodeStructuredContent[T any](t *testing.T, value any) T {
	t.Helper()

	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var output T
	if err := json.Unmarshal(data, &output); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return output
}

func errorText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, " ")
}

func scenarioA() map[string]any {
	return map[string]any{
		"precept_id": "ENCENDER",
		"numen_ids":  []string{"IGNIS"},
		"modifiers":  []string{"FORMA_CONO"},
	}
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(nil, "en-US", nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestListTools(t *testing.T) {
	running := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, running) })
	session := connect(t, newTestServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	got := map[string]bool{}
	for _, tool := range listed.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{"ordinance_compose", "ordinance_save", "ordinance_list", "ordinance_roll", "catalog_list"} {
		if !got[name] {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestComposeTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	result := callTool(t, session, "ordinance_compose", map[string]any{"composition": scenarioA()})
	if result.IsError {
		t.Fatalf("ordinance_compose failed: %s", errorText(result))
	}
	out := decodeStructuredContent[ComposeResult](t, result.StructuredContent)
	if out.CanonicalKey != "ENCENDER|IGNIS|[FORMA_CONO]" {
		t.Fatalf("canonical key = %q", out.CanonicalKey)
	}
	if out.Complexity != 3 || out.Tier != 2 || out.Suggestion.Type != rules.EffectControl {
		t.Fatalf("compose = %+v", out)
	}
	if out.ExistingID != "" {
		t.Fatalf("existing id = %q, want empty", out.ExistingID)
	}
}

func TestComposeToolErrors(t *testing.T) {
	session := connect(t, newTestServer(t))

	tests := []struct {
		name string
		comp map[string]any
		want string
	}{
		{
			name: "unknown precept",
			comp: map[string]any{"precept_id": "NOPE"},
			want: "UNKNOWN_PRECEPT",
		},
		{
			name: "bad token",
			comp: map[string]any{"precept_id": "CURAR", "modifiers": []string{"FORMA_CONO:q1"}},
			want: "INVALID_SELECTION_TOKEN",
		},
		{
			name: "status code",
			comp: map[string]any{"precept_id": "NOPE"},
			want: "(InvalidArgument)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := callTool(t, session, "ordinance_compose", map[string]any{"composition": tc.comp})
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := errorText(result); !strings.Contains(text, tc.want) {
				t.Fatalf("error = %q, want code %s", text, tc.want)
			}
		})
	}
}

func TestSaveAndListTools(t *testing.T) {
	session := connect(t, newTestServer(t))

	save := callTool(t, session, "ordinance_save", map[string]any{
		"composition": scenarioA(),
		"name":        "Abanico de Ceniza",
		"created_by":  "Manu",
	})
	if save.IsError {
		t.Fatalf("ordinance_save failed: %s", errorText(save))
	}
	saved := decodeStructuredContent[SaveResult](t, save.StructuredContent)
	if !saved.Created || saved.Ordinance.ID != "ORD_000001" {
		t.Fatalf("save = %+v", saved)
	}

	again := callTool(t, session, "ordinance_save", map[string]any{"composition": scenarioA(), "name": "Otra"})
	if again.IsError {
		t.Fatalf("ordinance_save failed: %s", errorText(again))
	}
	if dup := decodeStructuredContent[SaveResult](t, again.StructuredContent); dup.Created || dup.Ordinance.Name != "Abanico de Ceniza" {
		t.Fatalf("duplicate save = %+v", dup)
	}

	compose := callTool(t, session, "ordinance_compose", map[string]any{"composition": scenarioA()})
	if out := decodeStructuredContent[ComposeResult](t, compose.StructuredContent); out.ExistingID != "ORD_000001" {
		t.Fatalf("existing id = %q, want ORD_000001", out.ExistingID)
	}

	list := callTool(t, session, "ordinance_list", map[string]any{"filter": `tier = 2 AND created_by = "Manu"`})
	if list.IsError {
		t.Fatalf("ordinance_list failed: %s", errorText(list))
	}
	listed := decodeStructuredContent[ListResult](t, list.StructuredContent)
	if len(listed.Ordinances) != 1 || listed.Ordinances[0].EffectType != "control" {
		t.Fatalf("list = %+v", listed)
	}

	empty := callTool(t, session, "ordinance_list", map[string]any{"effect_type": "heal"})
	if got := decodeStructuredContent[ListResult](t, empty.StructuredContent); len(got.Ordinances) != 0 {
		t.Fatalf("heal list = %+v, want none", got)
	}

	bad := callTool(t, session, "ordinance_list", map[string]any{"filter": "tier ="})
	if !bad.IsError || !strings.Contains(errorText(bad), "INVALID_FILTER") {
		t.Fatalf("bad filter result = %q", errorText(bad))
	}
}

func TestSaveToolRequiresName(t *testing.T) {
	session := connect(t, newTestServer(t))

	result := callTool(t, session, "ordinance_save", map[string]any{"composition": scenarioA(), "name": " "})
	if !result.IsError || !strings.Contains(errorText(result), "ORDINANCE_NAME_EMPTY") {
		t.Fatalf("result = %q, want ORDINANCE_NAME_EMPTY", errorText(result))
	}
}

func TestRollTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	args := map[string]any{
		"composition": map[string]any{
			"precept_id": "CURAR",
			"numen_ids":  []string{"VITALIS"},
			"modifiers":  []string{"INTENSIDAD_MULTIPLICADO:x2", "INTENSIDAD_POTENCIADO:r2"},
		},
		"seed": 42,
	}
	first := decodeStructuredContent[RollResult](t, callTool(t, session, "ordinance_roll", args).StructuredContent)
	second := decodeStructuredContent[RollResult](t, callTool(t, session, "ordinance_roll", args).StructuredContent)
	if first.Type != "heal" || first.Expression != "1d4+1d4+1d4" || len(first.Instances) != 3 {
		t.Fatalf("roll = %+v", first)
	}
	if first.Total != second.Total || first.Seed != 42 {
		t.Fatalf("seeded rolls differ: %+v vs %+v", first, second)
	}

	control := callTool(t, session, "ordinance_roll", map[string]any{"composition": scenarioA(), "seed": 1})
	out := decodeStructuredContent[RollResult](t, control.StructuredContent)
	if out.DC != 12 || out.Resisted == nil || out.Margin == nil {
		t.Fatalf("control roll = %+v", out)
	}

	args["bonus"] = "1d6"
	boosted := decodeStructuredContent[RollResult](t, callTool(t, session, "ordinance_roll", args).StructuredContent)
	if boosted.Expression != "1d4+1d6+1d4+1d6+1d4+1d6" || len(boosted.Instances) != 3 {
		t.Fatalf("bonus roll = %+v", boosted)
	}
	args["bonus"] = "2x6"
	invalid := callTool(t, session, "ordinance_roll", args)
	if !invalid.IsError || !strings.Contains(errorText(invalid), "DICE_INVALID_SPEC") {
		t.Fatalf("invalid bonus = %q, want DICE_INVALID_SPEC", errorText(invalid))
	}

	utility := callTool(t, session, "ordinance_roll", map[string]any{"composition": map[string]any{"precept_id": "ILUMINAR"}})
	if !utility.IsError || !strings.Contains(errorText(utility), "DICE_MISSING") {
		t.Fatalf("utility roll = %q, want DICE_MISSING", errorText(utility))
	}
}

func TestCatalogListTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	precepts := decodeStructuredContent[CatalogListResult](t,
		callTool(t, session, "catalog_list", map[string]any{"kind": "precepts", "category": "Vital"}).StructuredContent)
	if len(precepts.Precepts) == 0 {
		t.Fatal("expected vital precepts")
	}
	for _, p := range precepts.Precepts {
		if p.Category != "Vital" {
			t.Fatalf("precept %s category = %q", p.ID, p.Category)
		}
	}

	mods := decodeStructuredContent[CatalogListResult](t,
		callTool(t, session, "catalog_list", map[string]any{"kind": "modifiers", "family": "forma"}).StructuredContent)
	if len(mods.Modifiers) != 5 {
		t.Fatalf("forma modifiers = %d, want 5", len(mods.Modifiers))
	}

	numen := decodeStructuredContent[CatalogListResult](t,
		callTool(t, session, "catalog_list", map[string]any{"kind": "numen"}).StructuredContent)
	if len(numen.Numen) != 21 {
		t.Fatalf("numen = %d, want 21", len(numen.Numen))
	}

	if bad := callTool(t, session, "catalog_list", map[string]any{"kind": "spells"}); !bad.IsError {
		t.Fatal("expected error for unknown kind")
	}
}

func TestStreamableHTTPHandler(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	httpClient := &http.Client{Transport: &http.Transport{}}
	defer httpClient.CloseIdleConnections()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL, HTTPClient: httpClient}, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "ordinance_compose", Arguments: map[string]any{"composition": scenarioA()}})
	if err != nil {
		t.Fatalf("call ordinance_compose: %v", err)
	}
	if result.IsError {
		t.Fatalf("ordinance_compose failed: %s", errorText(result))
	}
	if out := decodeStructuredContent[ComposeResult](t, result.StructuredContent); out.Tier != 2 {
		t.Fatalf("tier = %d, want 2", out.Tier)
	}
}

func TestRunUnsupportedTransport(t *testing.T) {
	err := Run(context.Background(), newTestService(t), Config{Transport: "websocket"}, nil)
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected 'not supported' in error, got: %v", err)
	}
}

func TestServeHTTPStopsOnCancel(t *testing.T) {
	server := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.ServeHTTP(ctx, "127.0.0.1:0")
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ServeHTTP returned error: %v", err)
		}
	case <-time.After(2 * timeouts.Shutdown):
		t.Fatal("ServeHTTP did not stop after cancel")
	}
}

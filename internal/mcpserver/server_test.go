package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	approoms "split-or-steal/internal/app/rooms"
	"split-or-steal/internal/commitment"
	"split-or-steal/internal/game"
	"split-or-steal/internal/identity"
	"split-or-steal/internal/ledger"
	"split-or-steal/internal/store"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	hostAddr  = "0x00000000000000000000000000000000000a11ce"
	guestAddr = "0x0000000000000000000000000000000000000b0b"
)

func newTestServer(t *testing.T) *client.Client {
	t.Helper()
	mem := store.NewMemory()
	led := ledger.New(mem, nil, nil)
	eng := game.NewEngine(mem, identity.NewRegistry(false, nil), led, game.Options{})
	srv := New(approoms.NewService(eng, led, 100))
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)

	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	t.Cleanup(closeClient)
	return mcpClient
}

func TestMCPServerRoomFlow(t *testing.T) {
	c := newTestServer(t)

	assertToolNames(t, mustListTools(t, c),
		"create_room", "join_room", "commit", "reveal", "settle",
		"withdraw", "get_room", "list_joinable", "get_balance",
	)

	now := time.Now()
	created := mustCallTool(t, c, "create_room", map[string]any{
		"player_address":  hostAddr,
		"nullifier":       "11",
		"stake":           100,
		"commit_deadline": now.Add(time.Hour).Unix(),
		"reveal_deadline": now.Add(2 * time.Hour).Unix(),
	})
	if created.IsError {
		t.Fatalf("create_room expected success, got: %v", created.StructuredContent)
	}
	roomID := asFloat64(mapFromStructured(t, created)["id"])
	if roomID != 1 {
		t.Fatalf("room id = %v, want 1", roomID)
	}

	list := mapFromStructured(t, mustCallTool(t, c, "list_joinable", map[string]any{}))
	items, _ := list["items"].([]any)
	if len(items) != 1 || asFloat64(items[0]) != 1 {
		t.Fatalf("unexpected joinable list: %v", list)
	}

	same := mustCallTool(t, c, "join_room", map[string]any{"player_address": guestAddr, "nullifier": "11", "room_id": 1})
	assertToolErrorCode(t, same, "same_identity")

	joined := mustCallTool(t, c, "join_room", map[string]any{"player_address": guestAddr, "nullifier": "12", "room_id": 1})
	if joined.IsError {
		t.Fatalf("join_room expected success, got: %v", joined.StructuredContent)
	}

	early := mustCallTool(t, c, "settle", map[string]any{"room_id": 1})
	assertToolErrorCode(t, early, "settle_not_eligible")

	hostSalt, guestSalt := commitment.Salt{0x01}, commitment.Salt{0x02}
	for _, p := range []struct {
		addr, nullifier string
		packed          uint8
		salt            commitment.Salt
	}{
		{hostAddr, "11", 0, hostSalt},
		{guestAddr, "12", 1, guestSalt},
	} {
		res := mustCallTool(t, c, "commit", map[string]any{
			"player_address": p.addr,
			"nullifier":      p.nullifier,
			"room_id":        1,
			"commitment":     commitment.Commit(1, p.packed, p.salt).Hex(),
		})
		if res.IsError {
			t.Fatalf("commit expected success, got: %v", res.StructuredContent)
		}
	}

	bad := mustCallTool(t, c, "reveal", map[string]any{
		"player_address": hostAddr, "nullifier": "11", "room_id": 1,
		"choices": "steal,split,split,split,split", "salt": hostSalt.Hex(),
	})
	assertToolErrorCode(t, bad, "invalid_reveal")

	for _, args := range []map[string]any{
		{"player_address": hostAddr, "nullifier": "11", "room_id": 1, "choices": "split,split,split,split,split", "salt": hostSalt.Hex()},
		{"player_address": guestAddr, "nullifier": "12", "room_id": 1, "choices": "1", "salt": guestSalt.Hex()},
	} {
		res := mustCallTool(t, c, "reveal", args)
		if res.IsError {
			t.Fatalf("reveal expected success, got: %v", res.StructuredContent)
		}
	}

	settled := mustCallTool(t, c, "settle", map[string]any{"room_id": 1})
	if settled.IsError {
		t.Fatalf("settle expected success, got: %v", settled.StructuredContent)
	}
	room := mapFromStructured(t, mustCallTool(t, c, "get_room", map[string]any{"room_id": 1}))
	if asString(room["phase"]) != "settled" {
		t.Fatalf("phase = %v, want settled", room["phase"])
	}

	bal := mapFromStructured(t, mustCallTool(t, c, "get_balance", map[string]any{"address": guestAddr}))
	if asFloat64(bal["pending"]) != 120 {
		t.Fatalf("guest pending = %v, want 120", bal["pending"])
	}
	w := mustCallTool(t, c, "withdraw", map[string]any{"player_address": guestAddr})
	if w.IsError || asFloat64(mapFromStructured(t, w)["amount"]) != 120 {
		t.Fatalf("withdraw unexpected result: %v", w.StructuredContent)
	}
	assertToolErrorCode(t, mustCallTool(t, c, "withdraw", map[string]any{"player_address": guestAddr}), "nothing_to_withdraw")
}

func TestMCPServerToolErrors(t *testing.T) {
	c := newTestServer(t)

	missing := mustCallTool(t, c, "create_room", map[string]any{"player_address": hostAddr})
	assertToolErrorCode(t, missing, "invalid_request")

	badAddr := mustCallTool(t, c, "withdraw", map[string]any{"player_address": "nobody"})
	assertToolErrorCode(t, badAddr, "invalid_address")

	badRoom := mustCallTool(t, c, "settle", map[string]any{"room_id": 0})
	assertToolErrorCode(t, badRoom, "invalid_room_id")

	unknown := mustCallTool(t, c, "settle", map[string]any{"room_id": 9})
	assertToolErrorCode(t, unknown, "room_not_found")
}

func newMCPClient(t *testing.T, endpoint string) (*client.Client, func()) {
	t.Helper()
	ctx := context.Background()
	trans, err := transport.NewStreamableHTTP(endpoint)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, func() { _ = trans.Close() }
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tools = %v, want %v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tools = %v, want %v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func assertToolErrorCode(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error %q, got success: %v", want, res.StructuredContent)
	}
	payload := mapFromStructured(t, res)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error payload missing 'error': %v", payload)
	}
	if got := asString(errObj["code"]); got != want {
		t.Fatalf("error code=%q want=%q payload=%v", got, want, payload)
	}
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat64(v any) float64 {
	f, _ := v.(float64)
	return f
}

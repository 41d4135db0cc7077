package integration_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
)

// procdashBinary builds cmd/server once per test run.
func procdashBinary(t *testing.T) string {
	t.Helper()
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "procdash-bin")
		if err != nil {
			buildErr = err
			return
		}
		binPath = filepath.Join(dir, "procdash")
		out, err := exec.Command(goTool, "build", "-o", binPath, "../../cmd/server").CombinedOutput()
		if err != nil {
			buildErr = &buildFailure{err: err, output: string(out)}
		}
	})
	require.NoError(t, buildErr)
	return binPath
}

type buildFailure struct {
	err    error
	output string
}

func (b *buildFailure) Error() string { return b.err.Error() + "\n" + b.output }

// stdioCommand runs the server on stdio against a throwaway database.
func stdioCommand(ctx context.Context, t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.CommandContext(ctx, procdashBinary(t), "serve")
	cmd.Env = append(os.Environ(),
		"PROCDASH_TRANSPORT=stdio",
		"PROCDASH_DB_PATH=:memory:",
		"PROCDASH_ENV_FILE="+filepath.Join(t.TempDir(), "absent.env"),
	)
	return cmd
}

func callText(ctx context.Context, t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, name)
	require.False(t, result.IsError, "%s: %v", name, result.Content)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "%s returns text content", name)
	return text.Text
}

func TestStdio_ToolsRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "stdio-test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: stdioCommand(ctx, t)}, nil)
	require.NoError(t, err)
	defer session.Close()

	info := session.InitializeResult().ServerInfo
	require.Equal(t, "procdash", info.Name)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_projects", "get_project", "save_project", "get_dashboard",
		"get_filter_options", "get_protection", "unlock_plan_dates",
	}, names)

	require.Contains(t, callText(ctx, t, session, "list_projects", map[string]any{}), `"total":1`, "demo record is seeded")

	saved := callText(ctx, t, session, "save_project", map[string]any{
		"fields": map[string]any{"buyer": "stdio", "planStart": "2026-01-01", "planEnd": "2026-02-01"},
	})
	require.Contains(t, saved, `"buyer":"stdio"`)

	var list struct {
		Total     int      `json:"total"`
		Unmatched []string `json:"unmatched"`
	}
	require.NoError(t, json.Unmarshal([]byte(callText(ctx, t, session, "list_projects", map[string]any{
		"filters": map[string]any{"buyer": "stdio"},
	})), &list))
	require.Equal(t, 1, list.Total)
	require.Empty(t, list.Unmatched)
}

func TestStdio_StdoutCarriesOnlyJSONRPC(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := stdioCommand(ctx, t)
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	_, err = stdin.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"raw","version":"1.0"}}}` + "\n"))
	require.NoError(t, err)

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	select {
	case line, ok := <-lines:
		require.True(t, ok, "server closed stdout without answering")
		require.True(t, json.Valid([]byte(line)), "first stdout line is not JSON: %q", line)
		var msg struct {
			ID     int             `json:"id"`
			Result json.RawMessage `json:"result"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		require.Equal(t, 1, msg.ID)
		require.NotEmpty(t, msg.Result)
	case <-ctx.Done():
		t.Fatal("no initialize response on stdout")
	}
}

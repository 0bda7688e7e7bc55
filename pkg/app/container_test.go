package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilhg/designgate/pkg/adapters/llm/fake"
	"github.com/wilhg/designgate/pkg/config"
	"github.com/wilhg/designgate/pkg/gateway"
	"github.com/wilhg/designgate/pkg/logging"
	"github.com/wilhg/designgate/pkg/mcpclient/mcptest"
	"github.com/wilhg/designgate/pkg/store"
	"github.com/wilhg/designgate/pkg/store/entstore"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Provider: "openai", Model: "gpt-4.1-mini", APIKey: "sk-test", Temperature: 0.1},
		Upstream: config.UpstreamConfig{
			ServerName:  "leanix",
			DisplayName: "LeanIX",
			Transport:   config.TransportStreamableHTTP,
			URL:         "http://upstream.invalid/mcp",
		},
		Agent: config.AgentConfig{MaxSteps: 5, ToolOutputTokens: 100},
	}
}

func TestNew_WiresGateway(t *testing.T) {
	d := mcptest.NewDialer(map[string]*mcp.Server{"leanix": mcptest.NewServer("leanix", mcptest.Echo("search_items", "ok"))})
	j := store.NewMemoryJournal()
	c, err := New(context.Background(), testConfig(), logging.Nop(), "v1.2.3",
		WithEngine(fake.New(fake.Reply("wired"))),
		WithJournal(j),
		WithClientOptions(d.Option()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "fake", c.Engine().Name())
	assert.NotNil(t, c.MCPServer())

	res := c.Gateway().Query(context.Background(), gateway.OpSearchDesignStandards, "apis")
	assert.Equal(t, gateway.Result{OK: true, Message: "wired"}, res)

	recs, err := j.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNew_BuildsConfiguredEngine(t *testing.T) {
	c, err := New(context.Background(), testConfig(), logging.Nop(), "dev")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, "openai", c.Engine().Name())
	_, isMemory := c.Journal().(*store.MemoryJournal)
	assert.True(t, isMemory)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "llama"
	_, err := New(context.Background(), cfg, logging.Nop(), "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama")
}

func TestNew_SQLiteJournal(t *testing.T) {
	cfg := testConfig()
	cfg.Journal.DatabaseURL = "sqlite:file:" + filepath.Join(t.TempDir(), "runs.sqlite")
	c, err := New(context.Background(), cfg, logging.Nop(), "dev", WithEngine(fake.New(fake.Reply("x"))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_, isEnt := c.Journal().(*entstore.Store)
	assert.True(t, isEnt)
}

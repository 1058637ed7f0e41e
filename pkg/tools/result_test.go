package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

// resultText returns the first text block of a tool result.
func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	for _, c := range res.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func requireSuccess(t *testing.T, res *mcp.CallToolResult) {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "tool failed: %s", resultText(res))
}

// decodeResult unmarshals the JSON body of a tool result into out.
func decodeResult(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	body := resultText(res)
	require.NotEmpty(t, body, "result has no text content")
	require.NoError(t, json.Unmarshal([]byte(body), out), body)
}

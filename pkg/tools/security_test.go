package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/resumeflow/pkg/core"
)

func TestSecurityServer_ValidateSuccess(t *testing.T) {
	s := NewSecurityServer(t.TempDir(), 0)

	payload, err := s.Call(context.Background(), "validate", map[string]any{
		"target_server": "record_store",
		"method":        "query_roles",
		"params":        map[string]any{"client_id": "c1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, 1, s.Invocations())
}

func TestSecurityServer_RejectsUnknownTarget(t *testing.T) {
	s := NewSecurityServer(t.TempDir(), 0)

	payload, err := s.Call(context.Background(), "validate", map[string]any{
		"target_server": "shell_executor",
	})
	require.NoError(t, err)
	assert.Equal(t, "failure_security_validation", payload["status"])
	assert.Contains(t, payload["error"], "not allowed")
}

func TestSecurityServer_RejectsTraversalPath(t *testing.T) {
	s := NewSecurityServer(t.TempDir(), 0)

	payload, err := s.Call(context.Background(), "validate", map[string]any{
		"target_server": "document_processor",
		"method":        "extract_text",
		"params":        map[string]any{"file_path": "../../etc/passwd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "failure_security_validation", payload["status"])
	assert.Contains(t, payload["error"], "traversal")
}

func TestSecurityServer_RejectsPathOutsideBase(t *testing.T) {
	s := NewSecurityServer(t.TempDir(), 0)

	payload, err := s.Call(context.Background(), "validate", map[string]any{
		"target_server": "document_processor",
		"params":        map[string]any{"file_path": "/etc/passwd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "failure_security_validation", payload["status"])
	assert.Contains(t, payload["error"], "outside the allowed directory")
}

func TestSecurityServer_RateLimitIsFatal(t *testing.T) {
	s := NewSecurityServer(t.TempDir(), 1)
	params := map[string]any{"target_server": "record_store"}

	_, err := s.Call(context.Background(), "validate", params)
	require.NoError(t, err)

	_, err = s.Call(context.Background(), "validate", params)
	assert.ErrorIs(t, err, core.ErrRateLimited, "exceeding the limit is a transport error, not a payload failure")
}

func TestSecurityServer_UnknownOperation(t *testing.T) {
	s := NewSecurityServer(t.TempDir(), 0)
	_, err := s.Call(context.Background(), "execute", nil)
	assert.Error(t, err)
}

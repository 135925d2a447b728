package service

import (
	"context"
	"testing"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/retry"
	"github.com/mradkov043/discite-omnes-app/internal/store/memory"
	"github.com/stretchr/testify/require"
)

var fastRetry = retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

func writeUser(t *testing.T, s *memory.Store, id, name string) {
	t.Helper()
	require.NoError(t, s.Write(context.Background(), "users/"+id, map[string]any{
		"id":    id,
		"name":  name,
		"email": id + "@example.com",
	}))
}

func writeGroup(t *testing.T, s *memory.Store, id, name string, members ...string) {
	t.Helper()
	if members == nil {
		members = []string{}
	}
	require.NoError(t, s.Write(context.Background(), "groups/"+id, map[string]any{
		"id":          id,
		"name":        name,
		"description": "",
		"members":     members,
	}))
}

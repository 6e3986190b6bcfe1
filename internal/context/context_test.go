package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"greentic.software/resolver/internal/engine"
	"greentic.software/resolver/internal/workspace"
)

func TestBind(t *testing.T) {
	tests := []struct {
		name   string
		engine *engine.Engine
		config *workspace.Config
		dir    string
	}{
		{
			name:   "full binding",
			engine: engine.New(),
			config: &workspace.Config{CacheDir: "/tmp/cache", Offline: true},
			dir:    "/workspaces/demo",
		},
		{
			name: "nil members",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)

			ctx := Bind(context.Background(), tt.engine, tt.config, tt.dir)

			rctx := FromContext(ctx)
			r.NotNil(rctx)
			r.Same(tt.engine, rctx.Engine())
			r.Same(tt.config, rctx.Configuration())
			r.Equal(tt.dir, rctx.WorkspaceDir())
		})
	}
}

func TestFromContext_Unbound(t *testing.T) {
	r := require.New(t)

	rctx := FromContext(context.Background())
	r.NotNil(rctx)
	r.Nil(rctx.Engine())
	r.Nil(rctx.Configuration())
	r.Empty(rctx.WorkspaceDir())
}

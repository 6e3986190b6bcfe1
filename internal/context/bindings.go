// Package context binds the resolver runtime to a command context so
// subcommands can share one engine and one workspace configuration.
package context

import (
	"context"

	"greentic.software/resolver/internal/engine"
	"greentic.software/resolver/internal/workspace"
)

type Reader interface {
	Context() context.Context
}

type Writer interface {
	SetContext(ctx context.Context)
}

type ReaderWriter interface {
	Reader
	Writer
}

type resolverContextKey struct{}

// ResolverContext carries everything the command tree shares per
// invocation.
type ResolverContext struct {
	engine        *engine.Engine
	configuration *workspace.Config
	workspaceDir  string
}

// FromContext returns the bound ResolverContext, or an empty one when
// nothing was bound.
func FromContext(ctx context.Context) *ResolverContext {
	if rctx, ok := ctx.Value(resolverContextKey{}).(*ResolverContext); ok {
		return rctx
	}
	return &ResolverContext{}
}

// Bind attaches the resolver runtime to the context.
func Bind(ctx context.Context, e *engine.Engine, cfg *workspace.Config, workspaceDir string) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, &ResolverContext{
		engine:        e,
		configuration: cfg,
		workspaceDir:  workspaceDir,
	})
}

// Engine returns the shared resolution engine, or nil when unbound.
func (c *ResolverContext) Engine() *engine.Engine {
	return c.engine
}

// Configuration returns the loaded workspace configuration, or nil when
// unbound.
func (c *ResolverContext) Configuration() *workspace.Config {
	return c.configuration
}

// WorkspaceDir returns the workspace directory the invocation operates on.
func (c *ResolverContext) WorkspaceDir() string {
	return c.workspaceDir
}

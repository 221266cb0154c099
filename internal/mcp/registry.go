package mcp

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolNotFound is returned by Invoke for unregistered tool names.
var ErrToolNotFound = errors.New("tool not found")

// ToolFunc represents the implementation of an MCP tool call. It returns
// the rendered text output for the client.
type ToolFunc func(ctx context.Context, arguments map[string]interface{}) (string, error)

// Registry maintains the available tools.
type Registry struct {
	tools    map[string]ToolFunc
	toolInfo map[string]ToolDescriptor
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]ToolFunc),
		toolInfo: make(map[string]ToolDescriptor),
	}
}

// Register adds a tool implementation. Re-registering a name replaces the
// implementation but keeps its listing position.
func (r *Registry) Register(desc ToolDescriptor, fn ToolFunc) {
	if _, exists := r.toolInfo[desc.Name]; !exists {
		r.order = append(r.order, desc.Name)
	}
	r.toolInfo[desc.Name] = desc
	r.tools[desc.Name] = fn
}

// List returns tool descriptors in registration order.
func (r *Registry) List() []ToolDescriptor {
	descriptors := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.toolInfo[name])
	}
	return descriptors
}

// Invoke executes a tool by name.
func (r *Registry) Invoke(ctx context.Context, name string, arguments map[string]interface{}) (string, error) {
	fn, ok := r.tools[name]
	if !ok || fn == nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return fn(ctx, arguments)
}

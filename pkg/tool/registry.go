// Package tool executes the tool calls a model emits, validating arguments
// against each tool's declared input schema before dispatch.
package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cexll/modelbridge-go/pkg/content"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

// Func implements one tool. It receives the parsed arguments and returns the
// textual result handed back to the model.
type Func func(ctx context.Context, args content.Value) (string, error)

// Tool pairs a declaration with its implementation.
type Tool struct {
	Decl    transcript.ToolDecl
	Handler Func
}

// Registry keeps the mapping between tool names and implementations.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register inserts a tool when its name is not in use.
func (r *Registry) Register(t Tool) error {
	if t.Handler == nil {
		return fmt.Errorf("tool handler is nil")
	}
	name := t.Decl.Name
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Get fetches a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tools[name]
	if !exists {
		return Tool{}, fmt.Errorf("tool %s not found", name)
	}
	return t, nil
}

// Declarations produces the registered declarations sorted by name, ready to
// attach to transcript instructions.
func (r *Registry) Declarations() []transcript.ToolDecl {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]transcript.ToolDecl, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, t.Decl)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// Execute runs the tool named by call and maps the outcome into a transcript
// entry. Execution failures are reported to the model as error outputs, not
// returned to the caller; only an unknown tool name is a hard error.
func (r *Registry) Execute(ctx context.Context, call transcript.ToolCall) (transcript.ToolOutput, error) {
	t, err := r.Get(call.Name)
	if err != nil {
		return transcript.ToolOutput{}, err
	}

	if err := validateArgs(call.Arguments, t.Decl.InputSchema); err != nil {
		return errorOutput(call.ID, fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	result, err := t.Handler(ctx, call.Arguments)
	if err != nil {
		return errorOutput(call.ID, err.Error()), nil
	}
	return transcript.TextOutput(call.ID, result), nil
}

func errorOutput(callID, message string) transcript.ToolOutput {
	out := transcript.TextOutput(callID, message)
	out.IsError = true
	return out
}

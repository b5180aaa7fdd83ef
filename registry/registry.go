package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opsloop/agentrt/agent"
)

// Tool is the capability bound into a Registry: a name, description,
// input schema, and an executor. Execute may return an error; it must not
// panic across the process boundary uncaught, though Registry.Execute
// recovers a panic defensively and converts it to *agent.ToolExecutionError.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, arguments map[string]any) (agent.ToolResult, error)
}

// Registry is a name-to-tool mapping built once per agent construction.
// Lookup is O(1). It is immutable after construction is conventionally
// understood to mean "after the wiring phase completes" — Register itself
// is safe for concurrent use, should a caller need to add tools lazily.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

var _ agent.ToolExecutor = (*Registry)(nil)

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names fail with *agent.DuplicateToolError.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("registry: cannot register a nil tool")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return &agent.DuplicateToolError{Name: tool.Name()}
	}
	r.tools[tool.Name()] = tool
	return nil
}

// MustRegister registers a tool and panics on failure; intended for
// wiring code where a duplicate name is a programming error, not a
// runtime condition.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Lookup returns the tool registered under name, if any.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Definitions returns the ToolDefinition for every registered tool, sorted
// by tool name so the order is stable across calls, suitable for a
// ModelRequest.
func (r *Registry) Definitions() []agent.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]agent.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, agent.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute dispatches a tool call to its registered tool. Unknown names
// fail with *agent.ToolNotFoundError. A panic inside the tool is recovered
// and converted to *agent.ToolExecutionError so it never escapes this
// boundary; per-call timeouts and the unknown-tool/invalid-argument
// synthesis required by §4.F live one layer up, in the step executor,
// since they depend on the tool call's schema and the configured timeout,
// neither of which the registry owns.
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) (result agent.ToolResult, err error) {
	tool, ok := r.Lookup(call.Name)
	if !ok {
		return agent.ToolResult{}, &agent.ToolNotFoundError{Name: call.Name}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = &agent.ToolExecutionError{Name: call.Name, Err: fmt.Errorf("panic: %v", recovered)}
		}
	}()

	result, err = tool.Execute(ctx, call.Arguments)
	if err != nil {
		return agent.ToolResult{}, &agent.ToolExecutionError{Name: call.Name, Err: err}
	}
	if result.CallID == "" {
		result.CallID = call.ID
	}
	if result.Name == "" {
		result.Name = call.Name
	}
	return result, nil
}

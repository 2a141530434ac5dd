package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ToolHandler executes one tool call. The returned map is serialized back to
// the model as the function response.
type ToolHandler func(ctx context.Context, args map[string]any) (map[string]any, error)

type ToolSpec struct {
	Name        string
	Description string
	Parameters  *genai.Schema
	Handler     ToolHandler
}

func (t ToolSpec) FunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

type ToolRegistry struct {
	tools map[string]ToolSpec
	order []string
}

func NewToolRegistry(tools ...ToolSpec) (*ToolRegistry, error) {
	r := &ToolRegistry{tools: make(map[string]ToolSpec, len(tools))}
	for _, t := range tools {
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name)
		}
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

func (r *ToolRegistry) Get(name string) (ToolSpec, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns the tool set in registration order for the model's
// tool config.
func (r *ToolRegistry) Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].FunctionDeclaration())
	}
	return decls
}

// ToolRunner executes tool calls requested by the model. Failures never abort
// the calling loop; they come back as error-shaped results the model can
// react to.
type ToolRunner struct {
	registry *ToolRegistry
	log      *zap.Logger
}

func NewToolRunner(registry *ToolRegistry, log *zap.Logger) *ToolRunner {
	return &ToolRunner{registry: registry, log: log}
}

func (tr *ToolRunner) Registry() *ToolRegistry {
	return tr.registry
}

func (tr *ToolRunner) Run(ctx context.Context, name string, args map[string]any) map[string]any {
	tool, ok := tr.registry.Get(name)
	if !ok {
		return map[string]any{"ok": false, "error": fmt.Sprintf("unknown tool: %s", name)}
	}

	if args == nil {
		args = map[string]any{}
	}
	result, err := tool.Handler(ctx, args)
	if err != nil {
		tr.log.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		return map[string]any{"ok": false, "error": err.Error()}
	}
	return map[string]any{"ok": true, "result": result}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/registry"
)

// clockTool reports the current time, demonstrating a zero-argument tool.
type clockTool struct{}

// clockArguments is the (empty) argument shape accepted by clockTool, named
// so registry.Schema can register it in its definitions map.
type clockArguments struct{}

func (clockTool) Name() string        { return "current_time" }
func (clockTool) Description() string { return "Returns the current UTC time." }
func (clockTool) InputSchema() map[string]any {
	schema, err := registry.Schema(&clockArguments{})
	if err != nil {
		panic(fmt.Sprintf("demotools: build current_time schema: %v", err))
	}
	return schema
}

func (clockTool) Execute(_ context.Context, _ map[string]any) (agent.ToolResult, error) {
	return agent.TextResult("", "current_time", time.Now().UTC().Format(time.RFC3339), false), nil
}

// echoArguments is the argument shape accepted by echoTool, also used to
// derive its JSON Schema via registry.Schema.
type echoArguments struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo back"`
}

// echoTool echoes its input back, demonstrating schema-driven argument
// decoding via registry.DecodeArguments.
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echoes the given text back to the caller." }
func (echoTool) InputSchema() map[string]any {
	schema, err := registry.Schema(&echoArguments{})
	if err != nil {
		panic(fmt.Sprintf("demotools: build echo schema: %v", err))
	}
	return schema
}

func (echoTool) Execute(_ context.Context, arguments map[string]any) (agent.ToolResult, error) {
	var args echoArguments
	if err := registry.DecodeArguments(arguments, &args); err != nil {
		return agent.ToolResult{}, err
	}
	return agent.TextResult("", "echo", args.Text, false), nil
}

func demoRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(clockTool{})
	reg.MustRegister(echoTool{})
	return reg
}

// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
)

type fakeMCPCaller struct {
	lastName string
	lastArgs map[string]any
	result   *mcp.CallToolResult
	err      error
}

func (f *fakeMCPCaller) CallTool(_ context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	f.lastName = name
	f.lastArgs = args
	return f.result, f.err
}

func pdfTool() mcp.Tool {
	return mcp.Tool{
		Name:        "pdf_extract",
		Description: "extract text from a PDF page",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{"type": "string", "description": "document path"},
				"page": map[string]any{"type": "integer"},
			},
			Required: []string{"path"},
		},
	}
}

func TestRegisterMCPTools(t *testing.T) {
	r := NewRegistry()
	caller := &fakeMCPCaller{
		result: &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "page text"}},
		},
	}
	if err := RegisterMCPTools(r, caller, []mcp.Tool{pdfTool()}, []core.Role{core.RoleInstructor}); err != nil {
		t.Fatalf("RegisterMCPTools: %v", err)
	}

	def, ok := r.GetDefinition("pdf_extract")
	if !ok {
		t.Fatal("pdf_extract not registered")
	}
	if len(def.Params) != 2 {
		t.Fatalf("params = %d, want 2", len(def.Params))
	}
	for _, p := range def.Params {
		switch p.Name {
		case "path":
			if p.Type != TypeString || !p.Required {
				t.Errorf("path spec = %+v, want required string", p)
			}
		case "page":
			if p.Type != TypeInteger || p.Required {
				t.Errorf("page spec = %+v, want optional integer", p)
			}
		default:
			t.Errorf("unexpected param %q", p.Name)
		}
	}

	if r.CheckPermission("pdf_extract", core.RoleStudent) {
		t.Error("student must not reach an instructor-gated tool")
	}

	res, err := r.Execute(context.Background(), "pdf_extract",
		map[string]any{"path": "/tmp/doc.pdf"}, testContext(core.RoleInstructor))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Data != "page text" {
		t.Errorf("data = %v, want extracted text", res.Data)
	}
	if caller.lastName != "pdf_extract" {
		t.Errorf("caller saw %q", caller.lastName)
	}
	if caller.lastArgs["path"] != "/tmp/doc.pdf" {
		t.Errorf("args = %v", caller.lastArgs)
	}
}

func TestRegisterMCPToolsRejectsBadSchema(t *testing.T) {
	r := NewRegistry()
	caller := &fakeMCPCaller{result: &mcp.CallToolResult{}}

	bad := pdfTool()
	bad.InputSchema.Type = "array"
	if err := RegisterMCPTools(r, caller, []mcp.Tool{bad}, nil); err == nil {
		t.Error("expected error for non-object schema")
	}

	unnamed := pdfTool()
	unnamed.Name = ""
	if err := RegisterMCPTools(r, caller, []mcp.Tool{unnamed}, nil); err == nil {
		t.Error("expected error for unnamed tool")
	}

	if err := RegisterMCPTools(r, nil, []mcp.Tool{pdfTool()}, nil); err == nil {
		t.Error("expected error for nil caller")
	}
}

func TestMCPErrorResultBecomesToolFailure(t *testing.T) {
	r := NewRegistry()
	caller := &fakeMCPCaller{
		result: &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "backend exploded"}},
		},
	}
	if err := RegisterMCPTools(r, caller, []mcp.Tool{pdfTool()}, nil); err != nil {
		t.Fatalf("RegisterMCPTools: %v", err)
	}

	_, err := r.Execute(context.Background(), "pdf_extract",
		map[string]any{"path": "x"}, testContext(core.RoleStudent))
	if err == nil {
		t.Fatal("expected execution failure")
	}
	if errors.CodeOf(err) != errors.CodeToolExecutionFailed {
		t.Errorf("code = %v, want tool execution failure", errors.CodeOf(err))
	}
}

func TestMCPStructuredContentPassthrough(t *testing.T) {
	r := NewRegistry()
	caller := &fakeMCPCaller{
		result: &mcp.CallToolResult{
			StructuredContent: map[string]any{"pages": 3},
		},
	}
	if err := RegisterMCPTools(r, caller, []mcp.Tool{pdfTool()}, nil); err != nil {
		t.Fatalf("RegisterMCPTools: %v", err)
	}
	res, err := r.Execute(context.Background(), "pdf_extract",
		map[string]any{"path": "x"}, testContext(core.RoleStudent))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	m, ok := res.Data.(map[string]any)
	if !ok || m["pages"] != 3 {
		t.Errorf("data = %v, want structured content", res.Data)
	}
}

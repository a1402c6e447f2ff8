package memorybank

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed catalog.cue
var catalogCUE string

// Tool names in the operation catalog.
const (
	ToolInitialize = "initialize_memory_bank"
	ToolStatus     = "check_memory_bank_status"
	ToolRead       = "read_memory_bank_file"
	ToolAppend     = "append_memory_bank_entry"
)

// Tool describes one operation as advertised to protocol clients.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema is the JSON Schema of a tool's argument object.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one argument in an InputSchema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

var (
	catalogOnce  sync.Once
	catalogTools []Tool
	catalogErr   error
)

// Catalog returns the tool catalog compiled from the embedded CUE source.
// The result is computed once; callers must not modify it.
func Catalog() ([]Tool, error) {
	catalogOnce.Do(func() {
		catalogTools, catalogErr = compileCatalog(catalogCUE)
	})
	return catalogTools, catalogErr
}

// compileCatalog evaluates CUE source and decodes its "tools" list.
func compileCatalog(src string) ([]Tool, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("catalog.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog: %s", errors.Details(err, nil))
	}

	toolsVal := v.LookupPath(cue.ParsePath("tools"))
	if !toolsVal.Exists() {
		return nil, fmt.Errorf("compile catalog: tools list is required")
	}
	if err := toolsVal.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("compile catalog: %s", errors.Details(err, nil))
	}

	var tools []Tool
	if err := toolsVal.Decode(&tools); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(tools))
	for i := range tools {
		if seen[tools[i].Name] {
			return nil, fmt.Errorf("compile catalog: duplicate tool %q", tools[i].Name)
		}
		seen[tools[i].Name] = true
		if tools[i].InputSchema.Properties == nil {
			tools[i].InputSchema.Properties = map[string]Property{}
		}
	}
	return tools, nil
}

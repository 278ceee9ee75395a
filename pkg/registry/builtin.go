package registry

import "sync"

func ptr(f float64) *float64 { return &f }

// builtinTemplates is the editor's stock palette, in display order.
var builtinTemplates = []Template{
	{
		Kind:     "customInput",
		Title:    "Input",
		Subtitle: "Provide data to start",
		Icon:     "IN",
		Accent:   "#0ea5e9",
		Defaults: map[string]any{"inputName": "input", "inputType": "Text"},
		Fields: []Field{
			{Key: "inputName", Label: "Name", Type: FieldText, Placeholder: "input_1"},
			{Key: "inputType", Label: "Type", Type: FieldSelect, Options: []string{"Text", "File", "JSON"}},
		},
		Outputs: []Port{{ID: "value", Label: "Value"}},
	},
	{
		Kind:     "llm",
		Title:    "LLM",
		Subtitle: "Model inference",
		Icon:     "LL",
		Accent:   "#6366f1",
		Defaults: map[string]any{"model": "gpt-4", "temperature": "0.7"},
		Fields: []Field{
			{Key: "model", Label: "Model", Type: FieldSelect, Options: []string{"gpt-4", "gpt-3.5", "mixtral"}},
			{Key: "temperature", Label: "Temp", Type: FieldNumber, Min: ptr(0), Max: ptr(1), Placeholder: "0.7"},
		},
		Inputs: []Port{
			{ID: "system", Label: "System"},
			{ID: "prompt", Label: "Prompt"},
		},
		Outputs: []Port{{ID: "response", Label: "Response"}},
	},
	{
		Kind:     "customOutput",
		Title:    "Output",
		Subtitle: "Expose results",
		Icon:     "OUT",
		Accent:   "#22c55e",
		Defaults: map[string]any{"outputName": "output", "outputType": "Text"},
		Fields: []Field{
			{Key: "outputName", Label: "Name", Type: FieldText, Placeholder: "output_1"},
			{Key: "outputType", Label: "Type", Type: FieldSelect, Options: []string{"Text", "Image", "JSON"}},
		},
		Inputs: []Port{{ID: "value", Label: "Value"}},
	},
	{
		Kind:     "http",
		Title:    "HTTP Request",
		Subtitle: "Call external API",
		Icon:     "HT",
		Accent:   "#ef4444",
		Defaults: map[string]any{"url": "https://api.example.com", "method": "GET"},
		Fields: []Field{
			{Key: "url", Label: "URL", Type: FieldText, Placeholder: "https://..."},
			{Key: "method", Label: "Method", Type: FieldSelect, Options: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
		},
		Inputs:  []Port{{ID: "body", Label: "Body"}},
		Outputs: []Port{{ID: "httpResponse", Label: "Response"}},
	},
	{
		Kind:     "branch",
		Title:    "Branch",
		Subtitle: "Conditional route",
		Icon:     "BR",
		Accent:   "#f59e0b",
		Defaults: map[string]any{"condition": "status === 200"},
		Fields:   []Field{{Key: "condition", Label: "Condition", Type: FieldText, Placeholder: "status === 200"}},
		Inputs:   []Port{{ID: "input", Label: "Input"}},
		Outputs: []Port{
			{ID: "true", Label: "True"},
			{ID: "false", Label: "False"},
		},
	},
	{
		Kind:     "merge",
		Title:    "Merge",
		Subtitle: "Combine streams",
		Icon:     "MG",
		Accent:   "#10b981",
		Inputs: []Port{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
		},
		Outputs: []Port{{ID: "merged", Label: "Merged"}},
	},
	{
		Kind:     "delay",
		Title:    "Delay",
		Subtitle: "Throttle execution",
		Icon:     "DL",
		Accent:   "#14b8a6",
		Defaults: map[string]any{"delayMs": "1000"},
		Fields:   []Field{{Key: "delayMs", Label: "Delay (ms)", Type: FieldNumber, Min: ptr(0), Placeholder: "1000"}},
		Inputs:   []Port{{ID: "input", Label: "In"}},
		Outputs:  []Port{{ID: "delayed", Label: "Out"}},
	},
	{
		Kind:     "math",
		Title:    "Math",
		Subtitle: "Add numbers",
		Icon:     "MA",
		Accent:   "#3b82f6",
		Defaults: map[string]any{"operand": "10"},
		Fields:   []Field{{Key: "operand", Label: "Add", Type: FieldNumber, Placeholder: "10"}},
		Inputs:   []Port{{ID: "value", Label: "Value"}},
		Outputs:  []Port{{ID: "sum", Label: "Sum"}},
	},
	{
		Kind:     "formatter",
		Title:    "Formatter",
		Subtitle: "String template",
		Icon:     "FM",
		Accent:   "#9333ea",
		Defaults: map[string]any{"template": "Hello, {{name}}"},
		Fields:   []Field{{Key: "template", Label: "Template", Type: FieldTextarea, Rows: 3}},
		Inputs:   []Port{{ID: "data", Label: "Data"}},
		Outputs:  []Port{{ID: "text", Label: "Text"}},
	},
	{
		Kind:     "text",
		Title:    "Text",
		Subtitle: "Dynamic variables",
		Icon:     "TX",
		Accent:   "#f97316",
		Defaults: map[string]any{"text": "{{input}}"},
		Fields:   []Field{{Key: "text", Label: "Content", Type: FieldTextarea, Placeholder: "Type text and use {{variables}}"}},
		Dynamic:  &DynamicPorts{Param: "text", InputPrefix: "var-", OutputSuffix: "-output"},
	},
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the registry of stock node kinds.
// The registry is immutable and shared.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin = MustNew(builtinTemplates...)
	})
	return builtin
}

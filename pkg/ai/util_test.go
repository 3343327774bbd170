package ai

import (
	"reflect"
	"testing"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare array",
			input: `[{"name":"张三"}]`,
			want:  `[{"name":"张三"}]`,
		},
		{
			name:  "array wrapped in prose",
			input: "以下是提取结果：\n[{\"name\":\"张三\"}]\n希望对您有帮助。",
			want:  `[{"name":"张三"}]`,
		},
		{
			name:  "no array",
			input: "抱歉，无法提取任何实体。",
			want:  "",
		},
		{
			name:  "closing bracket before opening",
			input: "] oops [",
			want:  "",
		},
		{
			name:  "nested arrays take outermost span",
			input: `x [1, [2, 3], 4] y`,
			want:  `[1, [2, 3], 4]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONArray(tt.input); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name  string
		input string
		want  payload
	}{
		{
			name:  "standard json",
			input: `{"name": "test"}`,
			want:  payload{Name: "test"},
		},
		{
			name:  "double encoded",
			input: `"{\"name\": \"test\"}"`,
			want:  payload{Name: "test"},
		},
		{
			name:  "malformed repaired",
			input: `{name: 'test',}`,
			want:  payload{Name: "test"},
		},
		{
			name:  "leading whitespace",
			input: "\n  {\"name\": \"test\"}",
			want:  payload{Name: "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrepairable(t *testing.T) {
	var out map[string]any
	if err := UnmarshalFlexible("not json at all {{{", &out); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateSchema(t *testing.T) {
	type sample struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	schema := GenerateSchema(sample{})
	if schema == nil {
		t.Fatal("expected schema")
	}

	// Pointer input reflects the element type.
	fromPointer := GenerateSchema(&sample{})
	if fromPointer == nil {
		t.Fatal("expected schema from pointer input")
	}
}

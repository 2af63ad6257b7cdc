package domain

import (
	"encoding/json"
	"testing"
)

func TestParsePersistedQuery(t *testing.T) {
	const hash = "ecf4edb46db40b5132295c0291d62fb65d6759a9eedfa4d5d612dd5ec54a6b38"

	tests := []struct {
		name        string
		extensions  map[string]any
		want        PersistedQuery
		wantPresent bool
		wantErr     bool
	}{
		{name: "nil extensions"},
		{name: "no persistedQuery", extensions: map[string]any{"tracing": true}},
		{name: "null persistedQuery", extensions: map[string]any{"persistedQuery": nil}},
		{
			name:        "int version",
			extensions:  map[string]any{"persistedQuery": map[string]any{"version": 1, "sha256Hash": hash}},
			want:        PersistedQuery{Version: 1, SHA256Hash: hash},
			wantPresent: true,
		},
		{
			name:        "float version from encoding/json",
			extensions:  map[string]any{"persistedQuery": map[string]any{"version": float64(2), "sha256Hash": hash}},
			want:        PersistedQuery{Version: 2, SHA256Hash: hash},
			wantPresent: true,
		},
		{
			name:        "json.Number version",
			extensions:  map[string]any{"persistedQuery": map[string]any{"version": json.Number("1"), "sha256Hash": hash}},
			want:        PersistedQuery{Version: 1, SHA256Hash: hash},
			wantPresent: true,
		},
		{
			name:        "non-string hash is dropped",
			extensions:  map[string]any{"persistedQuery": map[string]any{"version": 1, "sha256Hash": 42}},
			want:        PersistedQuery{Version: 1},
			wantPresent: true,
		},
		{
			name:        "not an object",
			extensions:  map[string]any{"persistedQuery": "v1"},
			wantPresent: true,
			wantErr:     true,
		},
		{
			name:        "missing version",
			extensions:  map[string]any{"persistedQuery": map[string]any{"sha256Hash": hash}},
			wantPresent: true,
			wantErr:     true,
		},
		{
			name:        "fractional version",
			extensions:  map[string]any{"persistedQuery": map[string]any{"version": 1.5, "sha256Hash": hash}},
			wantPresent: true,
			wantErr:     true,
		},
		{
			name:        "string version",
			extensions:  map[string]any{"persistedQuery": map[string]any{"version": "1", "sha256Hash": hash}},
			wantPresent: true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, err := ParsePersistedQuery(tt.extensions)
			if present != tt.wantPresent {
				t.Errorf("present = %v, want %v", present, tt.wantPresent)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOperation_Clone(t *testing.T) {
	op := &Operation{Query: "{ a }", Extensions: map[string]any{"k": "v"}}
	c := op.Clone()
	c.Query = "{ b }"

	if op.Query != "{ a }" {
		t.Error("Clone shares the query field")
	}
	if c.Extensions["k"] != "v" {
		t.Error("Clone lost extensions")
	}

	var nilOp *Operation
	if nilOp.Clone() != nil || nilOp.HasQuery() {
		t.Error("nil operation helpers should be nil-safe")
	}
}

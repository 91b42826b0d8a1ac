package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"briefing": "all good"}`,
			want:  `{"briefing": "all good"}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"briefing\": \"all good\"}\n```",
			want:  `{"briefing": "all good"}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"urgency\": \"high\"}\n```",
			want:  `{"urgency": "high"}`,
		},
		{
			name:  "object buried in prose",
			input: `Here is my assessment: {"urgency": "low"} Hope that helps!`,
			want:  `{"urgency": "low"}`,
		},
		{
			name:    "no json at all",
			input:   "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "broken object",
			input:   `{"briefing": `,
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
			assert.True(t, json.Valid(got))
		})
	}
}

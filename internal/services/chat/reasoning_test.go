package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJudgment_Sufficient(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"plain", "SUFFICIENT: true\nREASON: weather data covers the question"},
		{"lowercase keyword", "sufficient: TRUE\nreason: done"},
		{"extra prose", "Here is my judgment.\nSUFFICIENT: true\nREASON: all set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := ParseJudgment(tt.reply)
			assert.True(t, j.Sufficient)
			assert.Empty(t, j.Instruction)
		})
	}
}

func TestParseJudgment_InsufficientWithInstruction(t *testing.T) {
	reply := `SUFFICIENT: false
REASON: still need the weather for Sanya
NEXT_INSTRUCTION: [{"name": "get_weather", "parameters": {"city": "Sanya"}}]`

	j := ParseJudgment(reply)

	assert.False(t, j.Sufficient)
	assert.Equal(t, "still need the weather for Sanya", j.Reason)
	assert.Equal(t, `[{"name": "get_weather", "parameters": {"city": "Sanya"}}]`, j.Instruction)
}

func TestParseJudgment_ReasonStopsAtNextInstruction(t *testing.T) {
	reply := "SUFFICIENT: false\nREASON: need places near the hotel\nNEXT_INSTRUCTION: [{\"name\": \"search_nearby\", \"parameters\": {\"location\": \"110.3,20.0\", \"keywords\": \"food\", \"types\": \"\"}}]"

	j := ParseJudgment(reply)

	assert.Equal(t, "need places near the hotel", j.Reason)
	assert.Contains(t, j.Instruction, "search_nearby")
}

func TestParseJudgment_UnparseableFailsSafeToSufficient(t *testing.T) {
	tests := []string{
		"I think we have enough information now.",
		"",
		"MAYBE: true",
	}

	for _, reply := range tests {
		j := ParseJudgment(reply)
		assert.True(t, j.Sufficient, "reply %q should fail safe", reply)
	}
}

func TestParseJudgment_InsufficientWithoutInstruction(t *testing.T) {
	j := ParseJudgment("SUFFICIENT: false\nREASON: not sure what to do next")

	assert.False(t, j.Sufficient)
	assert.Empty(t, j.Instruction)
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare array", `[{"name": "x"}]`, `[{"name": "x"}]`},
		{"surrounded by prose", `run this: [{"name": "x"}] please`, `[{"name": "x"}]`},
		{"nested arrays", `[{"name": "x", "tags": ["a", "b"]}]`, `[{"name": "x", "tags": ["a", "b"]}]`},
		{"bracket inside string", `[{"name": "a]b"}]`, `[{"name": "a]b"}]`},
		{"no array", `nothing here`, ""},
		{"unbalanced", `[{"name": "x"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extractJSONArray(tt.text))
		})
	}
}

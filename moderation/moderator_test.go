package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Single word keeps spacing",
			input:    "hola bob, the badger is here",
			expected: "hola bob, the ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Repeated word",
			input:    "snake snake",
			expected: "***** *****",
			words:    []string{"snake", "snake"},
		},
		{
			name:     "Leet speak with punctuation inside the word",
			input:    "look: B.4.d.g.€r",
			expected: "look: **********",
			words:    []string{"badger"},
		},
		{
			name:     "Uppercase with separators",
			input:    "M-U-S-H-R-O-O-M soup",
			expected: "*************** soup",
			words:    []string{"mushroom"},
		},
		{
			name:     "Accents untouched",
			input:    "Un café con badger",
			expected: "Un café con ******",
			words:    []string{"badger"},
		},
		{
			name:     "Nothing to censor",
			input:    "see you tomorrow",
			expected: "see you tomorrow",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words, "expected=%s,words=%s", tt.expected, words)
		})
	}
}

func TestModerator_NoiseOnlyDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a dictionary made only of noise
	mod, err := NewModerator([]string{"...", ",,,", ""}, replacementChar, log)
	req.NoError(err)

	// Then nothing is ever censored
	content, words := mod.Censor("Hello ... badger")
	req.Equal("Hello ... badger", content)
	req.Nil(words)
}

package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor_MasksBlacklistedWords(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"flop", "navet"}, '*')
	req.NoError(err)

	sanitized, found := mod.Censor("quel flop ce navet")

	req.Equal("quel **** ce *****", sanitized)
	req.ElementsMatch([]string{"flop", "navet"}, found)
}

func TestCensor_CatchesLeetAndPunctuation(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"flop"}, '*')
	req.NoError(err)

	tests := []struct {
		name  string
		input string
	}{
		{"Leet speak", "fl0p"},
		{"Dotted", "f.l.o.p"},
		{"Mixed case", "FlOp"},
		{"Spaced out", "f l o p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sanitized, found := mod.Censor(tt.input)
			req.NotEqual(tt.input, sanitized)
			req.Contains(found, "flop")
		})
	}
}

func TestCensor_LeavesCleanTextAlone(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"flop"}, '*')
	req.NoError(err)

	sanitized, found := mod.Censor("bonjour tout le monde")

	req.Equal("bonjour tout le monde", sanitized)
	req.Empty(found)
}

func TestNewModerator_SkipsEmptyWords(t *testing.T) {
	req := require.New(t)

	mod, err := NewModerator([]string{"...", "flop"}, '*')
	req.NoError(err)

	sanitized, found := mod.Censor("un flop et ...")
	req.Equal("un **** et ...", sanitized)
	req.ElementsMatch([]string{"flop"}, found)
}

func TestNewModerator_EmptyBlacklist(t *testing.T) {
	req := require.New(t)

	mod, err := NewModerator(nil, '*')
	req.NoError(err)

	sanitized, found := mod.Censor("n'importe quoi")
	req.Equal("n'importe quoi", sanitized)
	req.Empty(found)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	req.Equal("en", DetectLanguage("The quick brown fox jumps over the lazy dog and keeps on running"))
	req.Empty(DetectLanguage("ok"))
}

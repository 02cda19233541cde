// Package moderation screens outgoing message content against a word
// blacklist before it reaches the conversation pipeline.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator masks blacklisted words in message content. Matching runs on a
// normalized view of the text so obfuscations like "h3llo" or "h.e.l.l.o"
// still hit, while the mask is applied to the original runes.
type Moderator struct {
	matcher  *goahocorasick.Machine
	maskRune rune
}

// textMapping links each normalized rune back to its index in the original
// string, so a match span on the normalized text can be masked in place.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// blacklist. Words that normalize to nothing are skipped.
func NewModerator(blacklist []string, maskRune rune) (Moderator, error) {
	patterns := make([][]rune, 0, len(blacklist))
	for _, word := range blacklist {
		if normalized := normalize(word).normalized; len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}

	if len(patterns) == 0 {
		return Moderator{maskRune: maskRune}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, maskRune: maskRune}, nil
}

// Censor replaces every blacklisted span with the mask rune and reports the
// normalized words that were found. Spacing and punctuation are preserved.
func (m *Moderator) Censor(original string) (string, []string) {
	if m.matcher == nil {
		return original, nil
	}

	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	found := make([]string, 0, len(spans))
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		found = append(found, string(span.Word))

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.maskRune
		}
	}

	return string(origRunes), found
}

// normalize lowercases, strips noise and undoes common leet substitutions,
// keeping a map from normalized positions to original rune indexes.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

// simplifyRune maps common leet speak characters back to their standard alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during the pattern matching phase.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

package notifier

import "unicode/utf8"

const (
	// maxMessageRunes is the Bot API limit for sendMessage text.
	maxMessageRunes  = 4096
	truncationSuffix = "..."
)

// truncateMessage shortens text to maxRunes characters, counted in runes so
// Cyrillic text is never cut inside a code point. A truncated message ends
// with truncationSuffix.
func truncateMessage(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	keep := maxRunes - utf8.RuneCountInString(truncationSuffix)
	if keep < 0 {
		keep = 0
	}

	n := 0
	for i := range text {
		if n == keep {
			return text[:i] + truncationSuffix
		}
		n++
	}
	return text + truncationSuffix
}

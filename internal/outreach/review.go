package outreach

import (
	"fmt"
	"strings"
)

// Limits are the acceptance rules a draft must meet.
type Limits struct {
	MaxIterations int
	MinWords      int
	MaxWords      int
}

// DefaultLimits matches the shipped configuration.
var DefaultLimits = Limits{MaxIterations: 5, MinWords: 150, MaxWords: 300}

// Review is the outcome of checking one draft.
type Review struct {
	Passed    bool
	WordCount int
	Message   string
}

// Check applies the length, hashtag and emoji rules in that order and
// reports the first failure.
func Check(text string, l Limits) Review {
	n := len(strings.Fields(text))
	switch {
	case n < l.MinWords:
		return Review{WordCount: n, Message: fmt.Sprintf(
			"Email is too short. Add %d more words to reach minimum length of %d.", l.MinWords-n, l.MinWords)}
	case n > l.MaxWords:
		return Review{WordCount: n, Message: fmt.Sprintf(
			"Email is too long. Remove %d words to meet maximum length of %d.", n-l.MaxWords, l.MaxWords)}
	case strings.Contains(text, "#"):
		return Review{WordCount: n, Message: "Email contains hashtags. Remove hashtags."}
	case ContainsEmoji(text):
		return Review{WordCount: n, Message: "Email contains emojis. Remove emojis."}
	}
	return Review{Passed: true, WordCount: n, Message: fmt.Sprintf("Email length is good (%d words).", n)}
}

var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols and pictographs
	{0x1F680, 0x1F6FF}, // transport and map
	{0x1F1E0, 0x1F1FF}, // flags
	{0x2700, 0x27BF},   // dingbats
	{0x1F900, 0x1F9FF}, // supplemental symbols
	{0x1FA70, 0x1FAFF}, // symbols and pictographs extended-A
}

// ContainsEmoji reports whether text has a character from the common emoji blocks.
func ContainsEmoji(text string) bool {
	for _, r := range text {
		for _, rg := range emojiRanges {
			if r >= rg[0] && r <= rg[1] {
				return true
			}
		}
	}
	return false
}

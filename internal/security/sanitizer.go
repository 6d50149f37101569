package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mroshb/economy_bot/pkg/utils"
)

const (
	MaxCharacterNameLength = 100
	MaxTitleLength         = 255
	MaxDescriptionLength   = 2000
)

var (
	htmlPolicy   = bluemonday.StrictPolicy()
	spaceRegex   = regexp.MustCompile(`\s+`)
	mentionRegex = regexp.MustCompile(`<@[!&]?\d+>`)
)

// SanitizeString removes potentially dangerous characters and truncates
// to max runes.
func SanitizeString(input string, max int) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if utf8.RuneCountInString(input) > max {
		input = string([]rune(input)[:max])
	}
	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// CharacterName normalises a user supplied character name: quotes and
// markup are stripped, chat mentions dropped, whitespace collapsed.
func CharacterName(input string) string {
	name := utils.StripQuotes(strings.ReplaceAll(input, "\x00", ""))
	name = mentionRegex.ReplaceAllString(name, "")
	name = SanitizeHTML(name)
	name = spaceRegex.ReplaceAllString(name, " ")
	return SanitizeString(name, MaxCharacterNameLength)
}

// AuctionTitle cleans an auction title.
func AuctionTitle(input string) string {
	title := spaceRegex.ReplaceAllString(SanitizeHTML(input), " ")
	return SanitizeString(title, MaxTitleLength)
}

// AuctionDescription cleans an auction description, keeping line breaks.
func AuctionDescription(input string) string {
	return SanitizeString(SanitizeHTML(input), MaxDescriptionLength)
}

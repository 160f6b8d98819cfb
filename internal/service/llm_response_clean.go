package service

import (
	"regexp"
	"strings"
)

var (
	reFenceStart  = regexp.MustCompile("(?is)^\\s*```(?:markdown|md|text)?\\s*")
	reFenceEnd    = regexp.MustCompile("(?is)\\s*```\\s*$")
	reHeading     = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	reBoldItalic  = regexp.MustCompile(`(\*\*\*|\*\*|__)(.+?)(\*\*\*|\*\*|__)`)
	reStarBullet  = regexp.MustCompile(`(?m)^(\s*)\*\s+`)
	reStrayStars  = regexp.MustCompile(`\*{2,}`)
	reBlankBlocks = regexp.MustCompile(`\n{3,}`)
)

// cleanGuidanceText quita fences, BOM y sintaxis markdown que el modelo
// agrega aunque se le pida texto plano. Las viñetas "* " pasan a "- ".
func cleanGuidanceText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")
	s = reFenceStart.ReplaceAllString(s, "")
	s = reFenceEnd.ReplaceAllString(s, "")
	s = reHeading.ReplaceAllString(s, "")
	s = reBoldItalic.ReplaceAllString(s, "$2")
	s = reStarBullet.ReplaceAllString(s, "$1- ")
	s = reStrayStars.ReplaceAllString(s, "")
	s = reBlankBlocks.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

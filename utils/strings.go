package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// HumanizeField turns a struct field or snake_case name into a
// title-cased, space-separated label for user-facing messages.
// Example: "template_code" -> "Template Code".
func HumanizeField(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return titleCaser.String(s)
}

// MaskMobile hides the middle digits of a mobile number for log output.
// Numbers shorter than 7 digits are masked entirely.
func MaskMobile(mobile string) string {
	if len(mobile) < 7 {
		return strings.Repeat("*", len(mobile))
	}
	return mobile[:3] + strings.Repeat("*", len(mobile)-7) + mobile[len(mobile)-4:]
}

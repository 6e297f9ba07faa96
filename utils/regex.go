package utils

import "regexp"

// MobileRegex matches mainland-China mobile numbers.
var MobileRegex = regexp.MustCompile(`^1[3-9]\d{9}$`)

// EnglishRegex matches strings consisting only of English letters.
var EnglishRegex = regexp.MustCompile(`^[a-zA-Z]+$`)

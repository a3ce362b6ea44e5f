package mask

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Full replaces any non-empty value with the literal "****". Masking an
// already-masked value yields "****" again, so the method is idempotent.
func Full(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// KeepHeadTail keeps the first head and last tail characters and masks the
// middle with '*'. Counts are in runes, not bytes. When head+tail meets or
// exceeds the length the middle segment is empty and the head and tail
// slices may duplicate characters at the boundary; that overlap is accepted
// behavior, not guarded against.
func KeepHeadTail(s string, head, tail int) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	h := head
	if h > len(r) {
		h = len(r)
	}
	t := tail
	if t > len(r) {
		t = len(r)
	}
	mid := len(r) - head - tail
	if mid < 0 {
		mid = 0
	}
	return string(r[:h]) + strings.Repeat("*", mid) + string(r[len(r)-t:])
}

// Hash returns the hex SHA-256 digest of salt+s. An empty value stays empty.
func Hash(s, salt string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + s))
	return hex.EncodeToString(sum[:])
}

// RegexMask replaces every non-overlapping match of re in s with '*' repeated
// to the match's rune length.
func RegexMask(re *regexp.Regexp, s string) string {
	if s == "" {
		return ""
	}
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat("*", utf8.RuneCountInString(m))
	})
}

// Preset patterns. These match the subset of real-world shapes the presets
// commit to; values that do not match pass through unmasked.
var (
	emailRe    = regexp.MustCompile(`([A-Za-z0-9._%+-]+)@([A-Za-z0-9.-]+)`)
	phoneRe    = regexp.MustCompile(`(\d{2,4})([- ]?)(\d{2,4})([- ]?)(\d{3,4})`)
	nonDigitRe = regexp.MustCompile(`[^\d]`)
)

// MaskEmail keeps the local part and masks every domain character — dots
// included — with '*' of equal length.
func MaskEmail(s string) string {
	if s == "" {
		return ""
	}
	return emailRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := emailRe.FindStringSubmatch(m)
		return sub[1] + "@" + strings.Repeat("*", utf8.RuneCountInString(sub[2]))
	})
}

// MaskPhone masks only the middle group of a 3-group phone number (2-4
// digits, optional separator, 2-4 digits, optional separator, 3-4 digits).
// Separators and the outer groups are preserved.
func MaskPhone(s string) string {
	if s == "" {
		return ""
	}
	return phoneRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := phoneRe.FindStringSubmatch(m)
		return sub[1] + sub[2] + strings.Repeat("*", len(sub[3])) + sub[4] + sub[5]
	})
}

// MaskCreditCard strips all non-digit characters and masks everything but
// the last four digits.
func MaskCreditCard(s string) string {
	if s == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	keep := 4
	if keep > len(digits) {
		keep = len(digits)
	}
	return strings.Repeat("*", len(digits)-keep) + digits[len(digits)-keep:]
}

// presetFunc returns the transform for a concrete preset, or nil for
// PresetNone.
func presetFunc(p Preset) func(string) string {
	switch p {
	case PresetEmail:
		return MaskEmail
	case PresetPhone:
		return MaskPhone
	case PresetCreditCard:
		return MaskCreditCard
	default:
		return nil
	}
}

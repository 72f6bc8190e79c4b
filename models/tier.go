package models

// MarksTier is the visual severity bucket for a marks value
type MarksTier string

const (
	TierLow    MarksTier = "low"
	TierMedium MarksTier = "medium"
	TierHigh   MarksTier = "high"
)

// Class returns the CSS class used for the marks badge.
func (t MarksTier) Class() string {
	return "marks-" + string(t)
}

// TierFor buckets marks into low (<50), medium (50-74) and high (>=75).
// Only the leading integer is considered; a value with no leading integer
// compares false against both thresholds and lands in low.
func TierFor(marks string) MarksTier {
	n, ok := leadingInt(marks)
	if !ok {
		return TierLow
	}
	switch {
	case n >= 75:
		return TierHigh
	case n >= 50:
		return TierMedium
	default:
		return TierLow
	}
}

func leadingInt(s string) (int64, bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var n int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n < 1<<53 {
			n = n*10 + int64(s[i]-'0')
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

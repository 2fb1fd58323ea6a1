package utils

// Truncate cuts s to at most max characters. LINE counts characters, not
// bytes, so multi-byte text is cut on rune boundaries.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

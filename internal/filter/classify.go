package filter

// Replacement is written in place of every byte that is not allowed.
const Replacement byte = ' '

// Allowed reports whether b passes through the filter unchanged.
func Allowed(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z':
		return true
	case b == ' ', b == '\n':
		return true
	default:
		return false
	}
}

// Map returns the output byte for b.
func Map(b byte) byte {
	if Allowed(b) {
		return b
	}

	return Replacement
}

// Apply filters p in place and returns the number of replaced bytes.
func Apply(p []byte) int {
	replaced := 0

	for i, b := range p {
		if !Allowed(b) {
			p[i] = Replacement
			replaced++
		}
	}

	return replaced
}

// Bytes returns a filtered copy of p. A nil input yields an empty, non-nil slice.
func Bytes(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	Apply(out)

	return out
}

// String returns the filtered form of s.
func String(s string) string {
	return string(Bytes([]byte(s)))
}

// Scan reports the statistics filtering p would produce, without modifying it.
func Scan(p []byte) Stats {
	var s Stats
	s.record(len(p), countDisallowed(p))

	return s
}

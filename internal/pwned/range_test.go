package pwned

import (
	"strings"
	"testing"
)

func TestRangeKnownDigest(t *testing.T) {
	// SHA-1("password") = 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8
	prefix, suffix := Range("password")

	if prefix != "5BAA6" {
		t.Fatalf("expected prefix 5BAA6, got %q", prefix)
	}
	if suffix != "1E4C9B93F3F0682250B6CF8331B7EE68FD8" {
		t.Fatalf("unexpected suffix %q", suffix)
	}
}

func TestRangeShape(t *testing.T) {
	for _, password := range []string{"a", "correcthorsebatterystaple", "päss wörd ☃"} {
		prefix, suffix := Range(password)

		if len(prefix) != PrefixLen {
			t.Fatalf("prefix length %d for %q", len(prefix), password)
		}
		if len(suffix) != SuffixLen {
			t.Fatalf("suffix length %d for %q", len(suffix), password)
		}

		full := prefix + suffix
		if full != strings.ToUpper(full) {
			t.Fatalf("digest not uppercase: %q", full)
		}
		for _, c := range full {
			if !strings.ContainsRune("0123456789ABCDEF", c) {
				t.Fatalf("non-hex character %q in digest %q", c, full)
			}
		}
	}
}

func TestRangeDeterminism(t *testing.T) {
	p1, s1 := Range("hunter2")
	p2, s2 := Range("hunter2")

	if p1 != p2 || s1 != s2 {
		t.Fatalf("digest not stable across calls: %s%s vs %s%s", p1, s1, p2, s2)
	}
}

package logger

import (
	"testing"
)

func TestBuildRID(t *testing.T) {
	if rid := BuildRID(42, -100123, 7); rid != "42:-100123:7" {
		t.Fatalf("rid = %q", rid)
	}
}

func TestContextMetaRoundTrip(t *testing.T) {
	ctx := WithRID(Background(), "1:2:3")
	ctx = WithUpdateMeta(ctx, 1, 3, 2)
	ctx = WithHandler(ctx, "start")

	if got := RIDFrom(ctx); got != "1:2:3" {
		t.Fatalf("rid = %q", got)
	}
	if got := UpdateIDFrom(ctx); got != 1 {
		t.Fatalf("update id = %d", got)
	}
	if got := UserIDFrom(ctx); got != 3 {
		t.Fatalf("user id = %d", got)
	}
	if got := ChatIDFrom(ctx); got != 2 {
		t.Fatalf("chat id = %d", got)
	}
	if got := HandlerFrom(ctx); got != "start" {
		t.Fatalf("handler = %q", got)
	}
}

func TestSanitizeStripsControlRunes(t *testing.T) {
	in := "ab\x00c\td\ne\x7f"
	want := "abc\td\ne"
	if got := Sanitize(in); got != want {
		t.Fatalf("Sanitize(%q) = %q, want %q", in, got, want)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("hello", 0); got != "" {
		t.Fatalf("limit 0 = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("rune limit = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	allowed := 0
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, expected 3", allowed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		spec     string
		num, den int
	}{
		{"1/10", 1, 10},
		{"25", 1, 25},
		{"0", 0, 0},
		{"junk", 0, 0},
		{"", 0, 0},
	}
	for _, tc := range cases {
		num, den := parseRatioSpec(tc.spec)
		if num != tc.num || den != tc.den {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", tc.spec, num, den, tc.num, tc.den)
		}
	}
}

package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitQuarterRate(t *testing.T) {
	split := Split(450000, DefaultPlatformRate)
	if split.PlatformMinor != 112500 {
		t.Fatalf("expected platform share 112500, got %d", split.PlatformMinor)
	}
	if split.TutorMinor != 337500 {
		t.Fatalf("expected tutor share 337500, got %d", split.TutorMinor)
	}
}

func TestSplitAlwaysSumsExactly(t *testing.T) {
	rate := decimal.RequireFromString("0.25")
	for _, amount := range []int64{1, 2, 3, 99, 101, 4999, 450000, 1000001} {
		split := Split(amount, rate)
		if split.PlatformMinor+split.TutorMinor != amount {
			t.Fatalf("split of %d does not sum: platform %d, tutor %d", amount, split.PlatformMinor, split.TutorMinor)
		}
		if split.PlatformMinor < 0 || split.TutorMinor < 0 {
			t.Fatalf("negative share for %d: %+v", amount, split)
		}
	}
}

func TestSplitRoundsAtMinorUnit(t *testing.T) {
	// 0.25 * 2 = 0.50, bankers' rounding lands on the even side.
	split := Split(2, decimal.RequireFromString("0.25"))
	if split.PlatformMinor != 0 || split.TutorMinor != 2 {
		t.Fatalf("unexpected split: %+v", split)
	}
	split = Split(6, decimal.RequireFromString("0.25"))
	if split.PlatformMinor != 2 || split.TutorMinor != 4 {
		t.Fatalf("unexpected split: %+v", split)
	}
}

func TestParseRate(t *testing.T) {
	if got := ParseRate("0.30"); !got.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("unexpected rate: %s", got)
	}
	for _, raw := range []string{"", "abc", "-0.1", "1.5"} {
		if got := ParseRate(raw); !got.Equal(DefaultPlatformRate) {
			t.Fatalf("ParseRate(%q) = %s, expected default", raw, got)
		}
	}
}

package scheduler

import (
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeAndCorrect(t *testing.T) {
	t.Run("accepts an ordered pair unchanged", func(t *testing.T) {
		got, err := NormalizeAndCorrect("09:00", "10:30")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Start != "09:00" || got.End != "10:30" {
			t.Fatalf("unexpected range: %+v", got)
		}
		if got.DurationMinutes() != 90 {
			t.Fatalf("expected 90 minutes, got %d", got.DurationMinutes())
		}
	})

	t.Run("swaps an inverted pair", func(t *testing.T) {
		got, err := NormalizeAndCorrect("10:00", "09:00")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Start != "09:00" || got.End != "10:00" {
			t.Fatalf("expected swapped range, got %+v", got)
		}
		if got.DurationMinutes() != 60 {
			t.Fatalf("expected 60 minutes, got %d", got.DurationMinutes())
		}
	})

	t.Run("truncates inputs carrying seconds", func(t *testing.T) {
		got, err := NormalizeAndCorrect("09:00:00", "10:30:00")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Start != "09:00" || got.End != "10:30" || got.DurationMinutes() != 90 {
			t.Fatalf("unexpected range: %+v (%d minutes)", got, got.DurationMinutes())
		}
	})

	t.Run("rejects equal start and end", func(t *testing.T) {
		_, err := NormalizeAndCorrect("09:00", "09:00")

		var pErr *ParseError
		if !errors.As(err, &pErr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
		if pErr.Kind != ParseErrorZeroOrNegativeDuration {
			t.Fatalf("expected zero duration kind, got %s", pErr.Kind)
		}
	})

	t.Run("reports bad format with the offending field", func(t *testing.T) {
		cases := []struct {
			start, end string
			field      TimeField
		}{
			{start: "9:00", end: "10:00", field: FieldStart},
			{start: "", end: "10:00", field: FieldStart},
			{start: "09:00", end: "1030", field: FieldEnd},
			{start: "09:00", end: "ab:cd", field: FieldEnd},
		}
		for _, tc := range cases {
			_, err := NormalizeAndCorrect(tc.start, tc.end)
			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("%q-%q: expected ParseError, got %v", tc.start, tc.end, err)
			}
			if pErr.Kind != ParseErrorBadFormat || pErr.Field != tc.field {
				t.Fatalf("%q-%q: expected bad format on %s, got %s on %s", tc.start, tc.end, tc.field, pErr.Kind, pErr.Field)
			}
		}
	})

	t.Run("reports unparseable clock values", func(t *testing.T) {
		_, err := NormalizeAndCorrect("09:00", "25:99")

		var pErr *ParseError
		if !errors.As(err, &pErr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
		if pErr.Kind != ParseErrorUnparseable || pErr.Field != FieldEnd {
			t.Fatalf("expected unparseable end, got %s on %s", pErr.Kind, pErr.Field)
		}
	})

	t.Run("is idempotent on its own output", func(t *testing.T) {
		for h := 0; h < 24; h += 3 {
			for m := 0; m < 60; m += 25 {
				start := fmt.Sprintf("%02d:%02d", h, m)
				end := fmt.Sprintf("%02d:%02d", (h+5)%24, (m+10)%60)

				first, err := NormalizeAndCorrect(start, end)
				if err != nil {
					continue
				}
				second, err := NormalizeAndCorrect(first.Start, first.End)
				if err != nil {
					t.Fatalf("renormalizing %+v failed: %v", first, err)
				}
				if first != second {
					t.Fatalf("expected idempotent result, got %+v then %+v", first, second)
				}
				if first.Start >= first.End || first.DurationMinutes() <= 0 {
					t.Fatalf("expected positive ordered range, got %+v", first)
				}
			}
		}
	})
}

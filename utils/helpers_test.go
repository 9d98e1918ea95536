package utils

import "testing"

func TestNormalizePage(t *testing.T) {
	testCases := []struct {
		in   int
		want int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{42, 42},
	}

	for _, tc := range testCases {
		if got := NormalizePage(tc.in); got != tc.want {
			t.Errorf("NormalizePage(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	testCases := []struct {
		in   int
		want int
	}{
		{-1, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{200, 200},
		{201, MaxLimit},
		{9999, MaxLimit},
	}

	for _, tc := range testCases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	testCases := []struct {
		total int
		limit int
		want  int
	}{
		{0, 50, 0},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{101, 50, 3},
		{100, 10, 10},
	}

	for _, tc := range testCases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

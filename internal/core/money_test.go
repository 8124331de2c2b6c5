package core

import "testing"

func TestParseWon(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 1, true},
		{"1,234,000", 1234000, true},
		{" 350,000,000 ", 350000000, true},
		{"350000000원", 350000000, true},
		{"12.5", 12, true}, // half to even
		{"13.5", 14, true},
		{"0", 0, true},
		{"-1,000", -1000, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseWon(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestWonOrZero(t *testing.T) {
	if got := WonOrZero("n/a"); got != 0 {
		t.Fatalf("WonOrZero(n/a) = %d", got)
	}
	if got := WonOrZero("2,500"); got != 2500 {
		t.Fatalf("WonOrZero(2,500) = %d", got)
	}
}

func TestMillions(t *testing.T) {
	cases := []struct {
		won  int64
		want int64
	}{
		{0, 0},
		{499_999, 0},
		{500_000, 0}, // 0.5 rounds to even
		{1_500_000, 2},
		{2_500_000, 2},
		{350_400_000, 350},
		{-1_500_000, -2},
	}
	for _, tc := range cases {
		if got := Millions(tc.won); got != tc.want {
			t.Errorf("Millions(%d) = %d, want %d", tc.won, got, tc.want)
		}
	}
}

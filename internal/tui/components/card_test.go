package components

import "testing"

func TestLayoutRowSumsExactly(t *testing.T) {
	cases := []struct {
		total, n int
	}{
		{100, 3},
		{80, 4},
		{77, 5},
		{10, 1},
	}
	for _, tc := range cases {
		widths := LayoutRow(tc.total, tc.n)
		if len(widths) != tc.n {
			t.Fatalf("LayoutRow(%d, %d) returned %d widths", tc.total, tc.n, len(widths))
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tc.total, tc.n, sum)
		}
	}
}

func TestLayoutRowZero(t *testing.T) {
	if got := LayoutRow(50, 0); got != nil {
		t.Errorf("LayoutRow with n=0 = %v, want nil", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if idx := TabIdxByKey('o'); idx != 0 {
		t.Errorf("TabIdxByKey('o') = %d", idx)
	}
	if idx := TabIdxByKey('x'); idx != 3 {
		t.Errorf("TabIdxByKey('x') = %d", idx)
	}
	if idx := TabIdxByKey('z'); idx != -1 {
		t.Errorf("TabIdxByKey('z') = %d", idx)
	}
}

func TestClip(t *testing.T) {
	if got := clip("reading", 4); got != "rea…" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("ok", 4); got != "ok" {
		t.Errorf("clip = %q", got)
	}
}

package logpanel

import "testing"

func TestHeight(t *testing.T) {
	cases := []struct {
		screen int
		want   int
	}{
		{60, 15}, // capped at 15 rows
		{21, 7},  // a third of the screen
		{12, 4},
		{0, 0},
	}
	for _, c := range cases {
		if got := Height(c.screen); got != c.want {
			t.Errorf("Height(%d) = %d, want %d", c.screen, got, c.want)
		}
	}
}

package similarity

import "testing"

func strp(s string) *string { return &s }

func TestSim(t *testing.T) {
	cases := []struct {
		name string
		a, b *string
		want float64
	}{
		{"both nil", nil, nil, 0},
		{"one nil", strp("Acme"), nil, 0},
		{"exact match", strp("Acme Widgets Limited"), strp("Acme Widgets Limited"), 1},
		{"case and whitespace insensitive exact match", strp("  acme widgets LIMITED "), strp("ACME WIDGETS LIMITED"), 1},
		{"both empty after trim", strp("  "), strp(""), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sim(tc.a, tc.b); got != tc.want {
				t.Errorf("Sim(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSimSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Acme Widgets Limited", "Acme Widgets YE Limited"},
		{"John Doe", "Jane Roe"},
		{"", "something"},
	}
	for _, p := range pairs {
		a, b := strp(p[0]), strp(p[1])
		if Sim(a, b) != Sim(b, a) {
			t.Errorf("Sim not symmetric for %q, %q", p[0], p[1])
		}
	}
}

func TestSimIdentity(t *testing.T) {
	s := strp("Acme Widgets Limited")
	if got := Sim(s, s); got != 1 {
		t.Errorf("Sim(a,a) = %v, want 1", got)
	}
}

func TestSimPartialMatch(t *testing.T) {
	a := strp("Acme Widgets & E Limited")
	b := strp("Acme Widgets YE Limited")
	got := Sim(a, b)
	if got <= 0.7 || got >= 1.0 {
		t.Errorf("Sim(%q,%q) = %v, want a high but non-exact similarity", *a, *b, got)
	}
}

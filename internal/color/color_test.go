package color

import "testing"

func TestForKey_EmptyKeyIsUnmatchedGray(t *testing.T) {
	got := ForKey("")
	want := RGBA{R: 128, G: 128, B: 128, A: 200}
	if got != want {
		t.Fatalf("want %+v, got %+v", want, got)
	}
}

func TestForKey_Deterministic(t *testing.T) {
	keys := []string{"seg-123", "disp-0042", "a", "Überführung"}
	for _, k := range keys {
		first := ForKey(k)
		for i := 0; i < 100; i++ {
			if ForKey(k) != first {
				t.Fatalf("key %q: color changed between calls", k)
			}
		}
	}
}

func TestForKey_FixedAlphaAndValidChannels(t *testing.T) {
	for _, k := range []string{"seg-123", "x", "some/very/long/display/key/0001"} {
		c := ForKey(k)
		if c.A != 220 {
			t.Fatalf("key %q: want alpha 220, got %d", k, c.A)
		}
		// At l=0.5, s=0.7 one channel sits at the 0.15 offset and one
		// at 0.85, so pure black/white can never come out.
		if c.R == 0 && c.G == 0 && c.B == 0 {
			t.Fatalf("key %q: hashed to black", k)
		}
	}
}

func TestForKey_DistinctKeysUsuallyDiffer(t *testing.T) {
	// Collisions are allowed but these known-distinct hashes must not
	// all collapse onto one color.
	a := ForKey("seg-1")
	b := ForKey("seg-2")
	c := ForKey("seg-3")
	if a == b && b == c {
		t.Fatalf("three distinct keys mapped to one color: %+v", a)
	}
}

func TestForCategory_PaletteAndDefault(t *testing.T) {
	cases := []struct {
		name     string
		category string
		want     RGBA
	}{
		{name: "roadworks", category: "roadworks", want: RGBA{R: 255, G: 140, B: 0, A: 230}},
		{name: "case insensitive", category: "RoadWorks", want: RGBA{R: 255, G: 140, B: 0, A: 230}},
		{name: "enforcement", category: "enforcement", want: RGBA{R: 220, G: 20, B: 60, A: 230}},
		{name: "unknown falls back", category: "parade", want: CategoryDefault},
		{name: "empty falls back", category: "", want: CategoryDefault},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ForCategory(tc.category); got != tc.want {
				t.Fatalf("want %+v, got %+v", tc.want, got)
			}
		})
	}
}

package weather

import "testing"

func TestLocationSameAs(t *testing.T) {
	base := Location{Name: "A", Latitude: 48.8566, Longitude: 2.3522}

	cases := []struct {
		name  string
		other Location
		want  bool
	}{
		{"identical", base, true},
		{"within threshold", Location{Latitude: 48.8570, Longitude: 2.3518}, true},
		{"longitude too far", Location{Latitude: 48.8566, Longitude: 2.3537}, false},
		{"latitude too far", Location{Latitude: 48.8586, Longitude: 2.3522}, false},
		// Axes are checked independently: 0.0009 on both is still the same place.
		{"diagonal", Location{Latitude: 48.8575, Longitude: 2.3531}, true},
	}

	for _, tc := range cases {
		if got := base.SameAs(tc.other); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		if got := tc.other.SameAs(base); got != tc.want {
			t.Errorf("%s (reversed): expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestLocationKey(t *testing.T) {
	l := Location{Latitude: 48.85661, Longitude: -2.35222}
	if got := l.Key(); got != "48.857,-2.352" {
		t.Fatalf("unexpected key %q", got)
	}
}

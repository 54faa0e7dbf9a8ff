package config

import "testing"

func TestParseStyle(t *testing.T) {
	cases := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"cut", StyleCut, false},
		{"crossfade", StyleCrossfade, false},
		{"zoom", StyleZoom, false},
		{"panzoom", StylePanZoom, false},
		{"", StylePanZoom, false},
		{"wipe", "", true},
		{"PanZoom", "", true},
	}
	for _, c := range cases {
		got, err := ParseStyle(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseStyle(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("ParseStyle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStyleProperties(t *testing.T) {
	if StyleCut.HasTransition() {
		t.Error("cut must not have a transition region")
	}
	for _, s := range []Style{StyleCrossfade, StyleZoom, StylePanZoom} {
		if !s.HasTransition() {
			t.Errorf("%s must have a transition region", s)
		}
	}

	if StyleCut.MovesCamera() || StyleCrossfade.MovesCamera() {
		t.Error("static styles must not move the camera")
	}
	if !StyleZoom.MovesCamera() || !StylePanZoom.MovesCamera() {
		t.Error("zoom styles must move the camera")
	}
}

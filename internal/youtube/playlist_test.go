package youtube

import "testing"

func TestNormalizePlaylistID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf", "PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf"},
		{"https://www.youtube.com/playlist?list=PLabc123", "PLabc123"},
		{"https://www.youtube.com/watch?v=xyz&list=PLabc123&index=4", "PLabc123"},
		{"list=PLabc123&foo=bar", "PLabc123"},
		{"  PLabc123 ", "PLabc123"},
		{"https://youtube.com/playlist?list=PLabc123#top", "PLabc123"},
	}

	for _, c := range cases {
		if got := NormalizePlaylistID(c.in); got != c.want {
			t.Errorf("NormalizePlaylistID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsUnavailableTitle(t *testing.T) {
	if !isUnavailableTitle("Deleted video") || !isUnavailableTitle("Private video") {
		t.Error("placeholder titles should be detected as unavailable")
	}
	if isUnavailableTitle("A video about deleted files") {
		t.Error("ordinary titles must not match")
	}
}

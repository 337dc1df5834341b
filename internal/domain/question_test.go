package domain

import "testing"

func TestNormalizeContent(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"hello", "hello", true},
		{"  spaced  ", "spaced", true},
		{"", "", false},
		{"   ", "", false},
		{"\n\t", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeContent(c.in)
		if got != c.want || ok != c.wantOK {
			t.Errorf("NormalizeContent(%q) = %q/%v, want %q/%v", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestViewerAuthenticated(t *testing.T) {
	if (Viewer{}).Authenticated() {
		t.Fatal("zero viewer must be unauthenticated")
	}
	if !(Viewer{ID: "u1"}).Authenticated() {
		t.Fatal("viewer with id must be authenticated")
	}
}

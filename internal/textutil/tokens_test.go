package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello,", "hello"},
		{"WORLD!", "world"},
		{"don't", "don't"},
		{"don’t", "don't"},
		{"'round", "round"},
		{"...", ""},
		{"3.5%", "35"},
		{"co-op", "coop"},
	}
	for _, tc := range cases {
		if got := NormalizeToken(tc.in); got != tc.want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitWordsDropsPunctuationOnlyWords(t *testing.T) {
	got := SplitWords("Hello, bright - world!")
	want := []Word{
		{Display: "Hello,", Token: "hello"},
		{Display: "bright", Token: "bright"},
		{Display: "world!", Token: "world"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitWords mismatch: got %v want %v", got, want)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := NewFingerprint("the quick brown fox")
	b := NewFingerprint("the quick brown fox")
	if sim := CosineSimilarity(a, b); sim < 0.999 {
		t.Fatalf("identical text similarity = %f, want ~1", sim)
	}
	c := NewFingerprint("completely unrelated sentence here")
	if sim := CosineSimilarity(a, c); sim != 0 {
		t.Fatalf("disjoint text similarity = %f, want 0", sim)
	}
	if sim := CosineSimilarity(nil, a); sim != 0 {
		t.Fatalf("nil fingerprint similarity = %f, want 0", sim)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName("a/b: c*?"); got != "a-b- c-" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}

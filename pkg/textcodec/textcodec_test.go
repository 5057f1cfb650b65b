package textcodec

import (
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"hello",
		"",
		"обсуждение в канале",
		"emoji 🎉 and ascii",
		"line\nbreaks\tand tabs",
	}
	for _, in := range inputs {
		encoded := Encode(in)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("decode %q: %v", encoded, err)
		}
		if decoded != in {
			t.Fatalf("round trip mismatch: got %q want %q", decoded, in)
		}
	}
}

func TestEncodeIsURLSafe(t *testing.T) {
	encoded := Encode("characters that force +/ in standard base64: \xff\xfe?>")
	for _, c := range encoded {
		if c == '+' || c == '/' || c == '=' {
			t.Fatalf("encoded text contains %q: %s", c, encoded)
		}
	}
}

func TestDecodeAcceptsPadding(t *testing.T) {
	decoded, err := Decode("aGVsbG8=")
	if err != nil {
		t.Fatalf("decode padded input: %v", err)
	}
	if decoded != "hello" {
		t.Fatalf("decoded = %q, want %q", decoded, "hello")
	}
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	if _, err := Decode("not base64 at all!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDecodeRejectsNonTextPayload(t *testing.T) {
	// "abcd" is syntactically valid base64 but decodes to bytes that
	// are not UTF-8. Callers rely on the error to keep the raw text.
	cases := []string{
		"abcd",
		Encode("\xff\xfe binary"),
	}
	for _, in := range cases {
		if _, err := Decode(in); !errors.Is(err, ErrNotText) {
			t.Fatalf("Decode(%q) err = %v, want ErrNotText", in, err)
		}
	}
}

func TestIsEmptyMarker(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"base64()", true},
		{"Base64(abc)", true},
		{"aGVsbG8", false},
		{"", false},
		{"text mentioning base64 later", false},
	}
	for _, c := range cases {
		if got := IsEmptyMarker(c.in); got != c.want {
			t.Fatalf("IsEmptyMarker(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

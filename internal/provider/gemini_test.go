package provider

import (
	"strings"
	"testing"
)

func TestTruncatePost(t *testing.T) {
	short := "a short post"
	if got := TruncatePost(short); got != short {
		t.Fatalf("short posts must pass through, got %q", got)
	}

	exact := strings.Repeat("x", 280)
	if got := TruncatePost(exact); got != exact {
		t.Fatal("280-rune posts must pass through untouched")
	}

	long := strings.Repeat("x", 281)
	got := TruncatePost(long)
	if runes := []rune(got); len(runes) != 280 {
		t.Fatalf("expected 280 runes, got %d", len(runes))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated post must end with ellipsis, got %q", got[len(got)-10:])
	}

	// Multibyte runes count as one character each.
	wide := strings.Repeat("é", 300)
	got = TruncatePost(wide)
	if runes := []rune(got); len(runes) != 280 {
		t.Fatalf("expected 280 runes for multibyte input, got %d", len(runes))
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                        "{\"a\":1}",
		"```json\n{\"a\":1}\n```":          "{\"a\":1}",
		"```\n{\"a\":1}\n```":              "{\"a\":1}",
		"  \n```json\n{\"a\":1}\n```  \n ": "{\"a\":1}",
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPromptIncludesInstructions(t *testing.T) {
	prompt := buildPrompt("the transcript", "keep it casual")
	if !strings.Contains(prompt, "the transcript") {
		t.Fatal("prompt must contain the transcript")
	}
	if !strings.Contains(prompt, "keep it casual") {
		t.Fatal("prompt must contain custom instructions")
	}
	for _, format := range PostFormats {
		if !strings.Contains(prompt, format) {
			t.Errorf("prompt missing format %q", format)
		}
	}
}

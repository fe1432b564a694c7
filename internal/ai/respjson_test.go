package ai

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `Sure! Here it is: {"a": 1} hope that helps`, `{"a": 1}`},
		{"whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.raw); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	data, err := DecodeObject("```json\n{\"score\": 7, \"feedback\": \"ok\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data["score"].(float64) != 7 {
		t.Fatalf("unexpected score: %v", data["score"])
	}
}

func TestDecodeObjectRejectsNonJSON(t *testing.T) {
	_, err := DecodeObject("the candidate looks fine to me")
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo wörld", 5); got != "héllo" {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("expected input unchanged, got %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Fatalf("expected no-op for non-positive limit, got %q", got)
	}
}

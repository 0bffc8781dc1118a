package models

import (
	"errors"
	"testing"
)

func TestParseSearchRequest(t *testing.T) {
	req, err := ParseSearchRequest("cats", "3")
	if err != nil {
		t.Fatal(err)
	}
	if req.Query != "cats" || req.Count != 3 {
		t.Errorf("unexpected request: %+v", req)
	}

	req, err = ParseSearchRequest("  red fox ", " 99 ")
	if err != nil {
		t.Fatal(err)
	}
	if req.Query != "red fox" || req.Count != 99 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestParseSearchRequestInvalid(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		number string
	}{
		{"empty query", "", "3"},
		{"blank query", "   ", "3"},
		{"missing number", "cats", ""},
		{"non-numeric", "cats", "abc"},
		{"fractional", "cats", "2.5"},
		{"fractional rounding up", "cats", "3.5"},
		{"trailing garbage", "cats", "3abc"},
		{"tab only query", "\t", "3"},
		{"zero", "cats", "0"},
		{"negative", "cats", "-4"},
		{"too large", "cats", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSearchRequest(tt.query, tt.number)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParseSearchRequestBounds(t *testing.T) {
	for _, n := range []string{"1", "99"} {
		if _, err := ParseSearchRequest("q", n); err != nil {
			t.Errorf("%s should be accepted: %v", n, err)
		}
	}
}

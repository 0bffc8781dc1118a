package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Bounds on the number of images a single search may request.
const (
	MinCount = 1
	MaxCount = 99
)

// ErrInvalidInput is returned when a search request fails validation.
var ErrInvalidInput = errors.New("invalid input")

// SearchRequest is a validated search: a non-empty query and a count in [MinCount, MaxCount].
type SearchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// ParseSearchRequest validates raw form values and returns a typed request.
// All failures wrap ErrInvalidInput.
func ParseSearchRequest(query, number string) (SearchRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchRequest{}, fmt.Errorf("%w: missing query", ErrInvalidInput)
	}

	number = strings.TrimSpace(number)
	if number == "" {
		return SearchRequest{}, fmt.Errorf("%w: missing number", ErrInvalidInput)
	}
	n, err := strconv.Atoi(number)
	if err != nil {
		return SearchRequest{}, fmt.Errorf("%w: number %q is not an integer", ErrInvalidInput, number)
	}
	if n < MinCount || n > MaxCount {
		return SearchRequest{}, fmt.Errorf("%w: number %d out of range [%d, %d]", ErrInvalidInput, n, MinCount, MaxCount)
	}

	return SearchRequest{Query: query, Count: n}, nil
}

// Outcome is the terminal state a search request resolved to.
type Outcome string

const (
	OutcomeInvalidInput Outcome = "invalid_input"
	OutcomeNoResults    Outcome = "no_results"
	OutcomeError        Outcome = "error"
	OutcomeResults      Outcome = "results"
)

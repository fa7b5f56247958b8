package quality

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FallbackCritique replaces a critique that could not be read.
// It doubles as the corrective instruction for the next draft.
const FallbackCritique = "The critic response was not in the expected format. Rewrite the report more clearly and completely."

// Errors describing why a critic response was rejected
var (
	ErrNoJSONObject = errors.New("no JSON object found in critic response")
	ErrInvalidScore = errors.New("score must be an integer between 0 and 10")
)

// Result is the outcome of reading one critic response
type Result struct {
	Score    int
	Critique string
	Parsed   bool
	// Err explains why the response was rejected when Parsed is false
	Err error
}

// critiquePayload is the object the critic is asked to embed in its response
type critiquePayload struct {
	Score    *float64 `json:"score" validate:"required,min=0,max=10"`
	Critique *string  `json:"critique" validate:"required"`
}

// Gate extracts {score, critique} from free-form critic output
type Gate struct {
	validate *validator.Validate
}

// NewGate creates a gate
func NewGate() *Gate {
	return &Gate{validate: validator.New()}
}

// Evaluate never fails. A response without a usable object yields score 0 and FallbackCritique.
func (g *Gate) Evaluate(response string) Result {
	payload, err := g.parse(response)
	if err != nil {
		return Fallback(err)
	}
	return Result{
		Score:    int(*payload.Score),
		Critique: *payload.Critique,
		Parsed:   true,
	}
}

// Fallback builds the substitute result used for unreadable or missing critiques
func Fallback(reason error) Result {
	return Result{
		Score:    0,
		Critique: FallbackCritique,
		Parsed:   false,
		Err:      reason,
	}
}

func (g *Gate) parse(response string) (*critiquePayload, error) {
	raw, err := ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var payload critiquePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid critique JSON: %w", err)
	}

	if err := g.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("critique failed validation: %w", err)
	}

	if *payload.Score != math.Trunc(*payload.Score) {
		return nil, ErrInvalidScore
	}

	return &payload, nil
}

// ExtractJSONObject returns the substring from the first '{' to the last '}'
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

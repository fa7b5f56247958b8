package models

// Reflection records one generate-then-critique iteration.
// Parsed is false when the critic response was unusable and a fallback was substituted.
type Reflection struct {
	Attempt  int    `json:"attempt"`
	Analysis string `json:"analysis"`
	Critique string `json:"critique"`
	Score    int    `json:"score"`
	Parsed   bool   `json:"parsed"`
}

package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"fintower/internal/core"
)

// Guess is the structured result of classifying one transaction line.
type Guess struct {
	Amount      core.Money
	Description string
	Category    core.Category
	Tag         string
}

// ClassificationError describes why a model reply could not be used.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classification failed: %s", e.Reason)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

type modelReply struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Tag         *string     `json:"tag"`
}

// Normalize parses a raw model reply into a validated Guess. It tolerates
// markdown fences and surrounding chatter that the model sometimes emits
// despite instructions.
func Normalize(raw string) (Guess, error) {
	clean := cleanModelJSON(raw)

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()

	var reply modelReply
	if err := dec.Decode(&reply); err != nil {
		return Guess{}, &ClassificationError{Reason: "invalid JSON from model", Err: err}
	}

	if reply.Amount == "" {
		return Guess{}, &ClassificationError{Reason: "missing amount"}
	}
	cents, err := core.ParseDecimalToCents(reply.Amount.String())
	if err != nil {
		return Guess{}, &ClassificationError{Reason: "invalid amount", Err: err}
	}

	desc := strings.TrimSpace(reply.Description)
	if desc == "" {
		return Guess{}, &ClassificationError{Reason: "missing description"}
	}

	// Unknown or absent categories fall back to the catch-all bucket.
	cat, err := core.ParseCategory(reply.Category)
	if err != nil {
		cat = core.CategoryGuiltFree
	}

	var tag string
	if reply.Tag != nil {
		tag = strings.TrimSpace(*reply.Tag)
	}
	if cat == core.CategoryGoldPurchase {
		tag = core.TagGold
	}

	return Guess{
		Amount:      core.Money{Cents: cents},
		Description: desc,
		Category:    cat,
		Tag:         tag,
	}, nil
}

// cleanModelJSON strips markdown fences and keeps only the outermost JSON
// object when the model wraps its reply in extra text.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

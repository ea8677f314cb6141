package models

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/memora/internal/common"
)

// Verdict labels produced by the analysis backend.
const (
	LabelAIGenerated = "AI-generated"
	LabelHuman       = "human"
)

// Verdict is the classification of a submitted media URL.
type Verdict struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

func (v Verdict) IsAIGenerated() bool { return v.Label == LabelAIGenerated }

// Confidence renders Probability as a percentage with one decimal.
func (v Verdict) Confidence() string {
	return fmt.Sprintf("%.1f%%", v.Probability*100)
}

// DecodeVerdict decodes and validates an analysis response.
func DecodeVerdict(data []byte) (Verdict, error) {
	var w struct {
		Label       *string  `json:"label"`
		Probability *float64 `json:"probability"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	if w.Label == nil || (*w.Label != LabelAIGenerated && *w.Label != LabelHuman) {
		return Verdict{}, fmt.Errorf("%w: unknown verdict label", common.ErrMalformedPayload)
	}
	if w.Probability == nil || *w.Probability < 0 || *w.Probability > 1 {
		return Verdict{}, fmt.Errorf("%w: probability out of range", common.ErrMalformedPayload)
	}
	return Verdict{Label: *w.Label, Probability: *w.Probability}, nil
}

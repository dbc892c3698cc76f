package analyzer

import (
	"encoding/json"
	"fmt"
)

// Result is one analysis response from the body-check service. Scores are
// kept as json.Number so the reply text reproduces the service output
// verbatim: an integer 7 stays "7", a fractional 7.5 stays "7.5".
type Result struct {
	Posture   json.Number `json:"姿勢スコア"`
	Balance   json.Number `json:"ボディバランススコア"`
	MuscleFat json.Number `json:"筋肉脂肪スコア"`
	Fashion   json.Number `json:"ファッション映えスコア"`
	Overall   json.Number `json:"全体印象スコア"`
}

// Validate reports an error when any of the five score keys is missing or
// not numeric.
func (r Result) Validate() error {
	scores := map[string]json.Number{
		"姿勢スコア":       r.Posture,
		"ボディバランススコア":  r.Balance,
		"筋肉脂肪スコア":     r.MuscleFat,
		"ファッション映えスコア": r.Fashion,
		"全体印象スコア":     r.Overall,
	}
	for key, score := range scores {
		if score.String() == "" {
			return fmt.Errorf("missing score %q", key)
		}
		if _, err := score.Float64(); err != nil {
			return fmt.Errorf("score %q is not numeric: %w", key, err)
		}
	}
	return nil
}

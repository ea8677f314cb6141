package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/memora/internal/common"
)

// SearchHit is one scored reference returned by the search collaborator.
// ID refers to Photo.ID by numeric value.
type SearchHit struct {
	ID      string
	Score   float64
	Payload HitPayload
}

type HitPayload struct {
	Note    string `json:"note,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// PhotoID parses ID as a photo id.
func (h SearchHit) PhotoID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(h.ID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: hit id %q is not numeric", common.ErrMalformedPayload, h.ID)
	}
	return id, nil
}

type hitWire struct {
	ID      json.RawMessage `json:"id"`
	Score   *float64        `json:"score"`
	Payload HitPayload      `json:"payload"`
}

// DecodeSearchHits decodes a hit list, keeping the server's order. Ids may be
// JSON strings or numbers; an integral number such as 3.0 becomes "3". Ids
// that do not name a photo (index ids, stale entries) are kept and never
// match. A missing id or score is rejected.
func DecodeSearchHits(data []byte) ([]SearchHit, error) {
	var ws []hitWire
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}

	hits := make([]SearchHit, 0, len(ws))
	for i, w := range ws {
		if len(w.ID) == 0 || isJSONNull(w.ID) {
			return nil, fmt.Errorf("%w: hit %d has no id", common.ErrMalformedPayload, i)
		}
		if w.Score == nil {
			return nil, fmt.Errorf("%w: hit %d has no score", common.ErrMalformedPayload, i)
		}

		id, err := decodeHitID(w.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: hit %d id: %v", common.ErrMalformedPayload, i, err)
		}
		hits = append(hits, SearchHit{ID: id, Score: *w.Score, Payload: w.Payload})
	}
	return hits, nil
}

func decodeHitID(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if _, err := n.Int64(); err == nil {
		return n.String(), nil
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return n.String(), nil
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/memora/internal/common"
)

// Photo is a server-owned photo record. ID and URL are assigned by the
// server; Note is empty when absent.
type Photo struct {
	ID        int64
	URL       string
	Note      string
	CreatedAt time.Time
}

type photoWire struct {
	ID        *int64  `json:"id"`
	URL       *string `json:"url"`
	Note      *string `json:"note"`
	CreatedAt *string `json:"created_at"`
}

func (w photoWire) toPhoto() (Photo, error) {
	if w.ID == nil || *w.ID <= 0 {
		return Photo{}, fmt.Errorf("%w: photo id missing or not positive", common.ErrMalformedPayload)
	}
	if w.URL == nil || strings.TrimSpace(*w.URL) == "" {
		return Photo{}, fmt.Errorf("%w: photo %d has no url", common.ErrMalformedPayload, *w.ID)
	}
	if w.CreatedAt == nil {
		return Photo{}, fmt.Errorf("%w: photo %d has no created_at", common.ErrMalformedPayload, *w.ID)
	}
	createdAt, err := time.Parse(time.RFC3339, *w.CreatedAt)
	if err != nil {
		return Photo{}, fmt.Errorf("%w: photo %d created_at: %v", common.ErrMalformedPayload, *w.ID, err)
	}

	p := Photo{ID: *w.ID, URL: *w.URL, CreatedAt: createdAt}
	if w.Note != nil {
		p.Note = *w.Note
	}
	return p, nil
}

// DecodePhoto decodes and validates a single photo object.
func DecodePhoto(data []byte) (Photo, error) {
	var w photoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Photo{}, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	return w.toPhoto()
}

// DecodePhotos decodes a photo listing. A JSON null is an empty listing.
// Duplicate ids violate the listing contract and are rejected.
func DecodePhotos(data []byte) ([]Photo, error) {
	var ws []photoWire
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}

	photos := make([]Photo, 0, len(ws))
	for _, w := range ws {
		p, err := w.toPhoto()
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	if err := CheckUniqueIDs(photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// CheckUniqueIDs returns common.ErrDuplicatePhotoID if two photos share an id.
func CheckUniqueIDs(photos []Photo) error {
	seen := make(map[int64]struct{}, len(photos))
	for _, p := range photos {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %d", common.ErrDuplicatePhotoID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// isJSONNull reports whether data is the JSON literal null.
func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

package models

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Asset is a picked image held in memory until it has been uploaded.
type Asset struct {
	Name        string
	ContentType string
	Data        []byte
}

func (a Asset) Empty() bool { return len(a.Data) == 0 }

// AssetFromFile reads path into an Asset, sniffing the content type.
func AssetFromFile(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, fmt.Errorf("read asset: %w", err)
	}
	return Asset{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

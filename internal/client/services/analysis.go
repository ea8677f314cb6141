package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
)

// AnalysisService classifies media as AI-generated or human-made.
type AnalysisService interface {
	Analyze(ctx context.Context, mediaURL string) (models.Verdict, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, mediaURL string) (models.Verdict, error)
}

type analysisService struct {
	client Analyzer
}

func NewAnalysisService(c Analyzer) AnalysisService {
	return &analysisService{client: c}
}

func (s *analysisService) Analyze(ctx context.Context, mediaURL string) (models.Verdict, error) {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return models.Verdict{}, fmt.Errorf("analyze: %w", common.ErrEmptyInput)
	}
	v, err := s.client.Analyze(ctx, mediaURL)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("analyze: %w", err)
	}
	return v, nil
}

package cli

import (
	"context"
	"fmt"
)

// Analyze asks the backend whether the media at mediaURL is AI-generated.
func (a *App) Analyze(ctx context.Context, mediaURL string) error {
	v, err := a.analysisService.Analyze(ctx, mediaURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Verdict: %s (%s)\n", v.Label, v.Confidence())
	return nil
}

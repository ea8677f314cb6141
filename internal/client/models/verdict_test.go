package models

import (
	"testing"

	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/stretchr/testify/require"
)

func TestDecodeVerdict(t *testing.T) {
	v, err := DecodeVerdict([]byte(`{"label": "AI-generated", "probability": 0.873}`))
	require.NoError(t, err)
	require.True(t, v.IsAIGenerated())
	require.Equal(t, "87.3%", v.Confidence())

	v, err = DecodeVerdict([]byte(`{"label": "human", "probability": 0.42}`))
	require.NoError(t, err)
	require.False(t, v.IsAIGenerated())
	require.Equal(t, "42.0%", v.Confidence())
}

func TestDecodeVerdict_Malformed(t *testing.T) {
	for _, body := range []string{
		`{"label": "robot", "probability": 0.5}`,
		`{"probability": 0.5}`,
		`{"label": "human"}`,
		`{"label": "human", "probability": 1.5}`,
		`{"label": "human", "probability": -0.1}`,
		`[]`,
	} {
		_, err := DecodeVerdict([]byte(body))
		require.ErrorIs(t, err, common.ErrMalformedPayload, body)
	}
}

func TestSession_Valid(t *testing.T) {
	require.True(t, Session{Token: "t", Username: "alice"}.Valid())
	require.False(t, Session{Token: "t"}.Valid())
	require.False(t, Session{Username: "alice"}.Valid())
	require.False(t, Session{Token: "  ", Username: "alice"}.Valid())
}

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xbcsmith/xzepr/internal/config"
)

func TestNewRateLimiters_BuildsDefaultAndAuthLimiters(t *testing.T) {
	defaultLimiter, authLimiter := newRateLimiters(config.RateLimitConfig{
		DefaultRPS:   50,
		DefaultBurst: 100,
		AuthRPS:      5,
		AuthBurst:    10,
		Window:       time.Minute,
	})

	require.NotNil(t, defaultLimiter)
	require.NotNil(t, authLimiter)
}

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xbcsmith/xzepr/internal/config"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestBootstrap_NoDB(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     65432, // unreachable
			User:     "test",
			Password: "test",
			Database: "test",
			SSLMode:  "disable",
			MaxConns: 5,
			MinConns: 1,
		},
	}

	ctx := context.Background()
	application, err := Bootstrap(ctx, cfg)
	require.Error(t, err, "Bootstrap should fail without a reachable database")
	assert.Nil(t, application)
}

func TestBuildAuthConfig_RequiresSecretOrKeypair(t *testing.T) {
	_, _, err := buildAuthConfig(config.JWTConfig{Issuer: "xzepr"})
	require.Error(t, err, "jwt config with neither secret nor rsa keypair should fail")
}

func TestBuildAuthConfig_HMACSecret(t *testing.T) {
	authCfg, revocation, err := buildAuthConfig(config.JWTConfig{Secret: "a-test-secret"})
	require.NoError(t, err)
	assert.Equal(t, []byte("a-test-secret"), authCfg.HMACSecret)
	assert.NotNil(t, revocation)
}

func TestBuildOIDCFlow_NoIssuerDisablesFlow(t *testing.T) {
	flow, err := buildOIDCFlow(context.Background(), config.OIDCConfig{})
	require.NoError(t, err)
	assert.Nil(t, flow, "empty issuer should leave OIDC routes disabled")
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	application := &Application{}

	assert.NotPanics(t, func() {
		application.Shutdown(context.Background())
	}, "Shutdown on an empty Application should not panic")
}

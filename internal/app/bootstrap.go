// Package app is the composition root: it wires config, infrastructure,
// repositories, and the HTTP server together. No business logic lives here.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"github.com/xbcsmith/xzepr/internal/api/graphqlapi"
	"github.com/xbcsmith/xzepr/internal/api/handlers"
	"github.com/xbcsmith/xzepr/internal/auth"
	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/broker"
	"github.com/xbcsmith/xzepr/internal/config"
	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/infrastructure"
	"github.com/xbcsmith/xzepr/internal/ingest"
	"github.com/xbcsmith/xzepr/internal/jobs"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
	"github.com/xbcsmith/xzepr/internal/repository"
	"github.com/xbcsmith/xzepr/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
}

// Bootstrap initializes every dependency by hand: connection pool,
// repositories, the broker publisher, the authorization pipeline, auth
// configuration, and (when configured) the OIDC flow.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	receivers := repository.NewEventReceiverRepository(db.Pool)
	events := repository.NewEventRepository(db.Pool)
	groups := repository.NewEventReceiverGroupRepository(db.Pool)
	users := repository.NewUserRepository(db.Pool)

	var publisher ingest.Publisher
	publisherConfigured := false
	if len(cfg.Broker.Brokers) > 0 {
		concretePublisher, err := broker.New(cfg.Broker)
		if err != nil {
			broker.WarnUnavailable(err)
		} else {
			publisher = concretePublisher
			publisherConfigured = true
		}
	}

	authCfg, revocation, err := buildAuthConfig(cfg.JWT)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build auth config: %w", err)
	}

	audit := authz.NewPGAuditSink(db.Pool)
	if err := audit.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate authz audit log: %w", err)
	}

	policyClient := authz.NewPolicyClient(authz.PolicyClientConfig{
		URL:                   cfg.Policy.URL,
		Timeout:               cfg.Policy.Timeout,
		CacheTTL:              cfg.Policy.CacheTTL,
		CacheMaxEntries:       cfg.Policy.CacheMaxEntries,
		BreakerMaxFailures:    int(cfg.Policy.BreakerMaxFailures),
		BreakerCooldown:       cfg.Policy.BreakerCooldown,
		BreakerHalfOpenProbes: int(cfg.Policy.BreakerHalfOpenProbes),
	})
	pipeline := authz.NewPipeline(policyClient, audit)

	validator := validation.NewValidator()
	receiverHandler := ingest.NewReceiverHandler(receivers, publisher)
	eventHandler := ingest.NewEventHandler(receivers, events, validator, publisher)
	groupHandler := ingest.NewGroupHandler(groups, publisher)

	oidcFlow, err := buildOIDCFlow(ctx, cfg.OIDC)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build oidc flow: %w", err)
	}

	server := handlers.NewServer(handlers.ServerDeps{
		Pool:                db.Pool,
		Receivers:           receivers,
		Events:              events,
		Groups:              groups,
		Users:               users,
		ReceiverHandler:     receiverHandler,
		EventHandler:        eventHandler,
		GroupHandler:        groupHandler,
		PublisherConfigured: publisherConfigured,
		AuthCfg:             authCfg,
		OIDCFlow:            oidcFlow,
		PasswordHashCost:    cfg.Security.PasswordHashCost,
	})
	server.RegisterResourceBuilders(pipeline)

	workers := river.NewWorkers()
	cacheEvictionWorker := jobs.NewCacheEvictionWorker(policyClient.Cache())
	river.AddWorker(workers, cacheEvictionWorker)

	memoryChecker, _ := revocation.(*auth.MemoryRevocationChecker)
	if memoryChecker != nil {
		river.AddWorker(workers, jobs.NewBlacklistPruneWorker(memoryChecker))
	}

	if err := db.MigrateRiver(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate river schema: %w", err)
	}
	if err := db.InitRiverClient(workers, cfg.River); err != nil {
		db.Close()
		return nil, fmt.Errorf("init river client: %w", err)
	}

	cacheEvictionInterval := cfg.River.CacheEvictionInterval
	if cacheEvictionInterval <= 0 {
		cacheEvictionInterval = time.Minute
	}
	db.RiverClient.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(cacheEvictionInterval),
			func() (river.JobArgs, *river.InsertOpts) { return jobs.CacheEvictionArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)
	if memoryChecker != nil {
		blacklistPruneInterval := cfg.River.BlacklistPruneInterval
		if blacklistPruneInterval <= 0 {
			blacklistPruneInterval = time.Minute
		}
		db.RiverClient.PeriodicJobs().Add(
			river.NewPeriodicJob(
				river.PeriodicInterval(blacklistPruneInterval),
				func() (river.JobArgs, *river.InsertOpts) { return jobs.BlacklistPruneArgs{}, nil },
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		)
	}

	defaultLimiter, authLimiter := newRateLimiters(cfg.RateLimit)

	gqlSchema, err := graphqlapi.NewSchema(graphqlapi.Deps{
		Receivers:       receivers,
		Events:          events,
		Groups:          groups,
		ReceiverHandler: receiverHandler,
		EventHandler:    eventHandler,
		GroupHandler:    groupHandler,
		Pipeline:        pipeline,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}

	return &Application{
		Config: cfg,
		Router: newRouter(cfg, server, pipeline, authCfg, defaultLimiter, authLimiter, gqlSchema),
		DB:     db,
	}, nil
}

// buildAuthConfig loads the HMAC secret or RSA keypair per jwt.revocation_backend
// and constructs the revocation checker (spec.md §4.7).
func buildAuthConfig(cfg config.JWTConfig) (auth.Config, auth.RevocationChecker, error) {
	var revocation auth.RevocationChecker
	switch cfg.RevocationBackend {
	case "redis":
		revocation = auth.NewRedisRevocationChecker(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	default:
		revocation = auth.NewMemoryRevocationChecker()
	}

	authCfg := auth.Config{
		Issuer:          cfg.Issuer,
		Audience:        cfg.Audience,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Leeway:          cfg.Leeway,
		Revocation:      revocation,
	}

	if cfg.Secret != "" {
		authCfg.HMACSecret = []byte(cfg.Secret)
		return authCfg, revocation, nil
	}

	if cfg.PrivateKeyPath == "" || cfg.PublicKeyPath == "" {
		return auth.Config{}, nil, fmt.Errorf("jwt: neither secret nor rsa keypair configured")
	}

	privPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return auth.Config{}, nil, fmt.Errorf("read jwt private key: %w", err)
	}
	pubPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return auth.Config{}, nil, fmt.Errorf("read jwt public key: %w", err)
	}

	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return auth.Config{}, nil, fmt.Errorf("parse jwt private key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return auth.Config{}, nil, fmt.Errorf("parse jwt public key: %w", err)
	}

	authCfg.RSAPrivateKey = privKey
	authCfg.RSAPublicKey = pubKey
	return authCfg, revocation, nil
}

// buildOIDCFlow returns nil when no issuer is configured: the OIDC routes
// degrade to 404 rather than the server refusing to start (spec.md §4.8,
// Non-goals: OIDC is optional).
func buildOIDCFlow(ctx context.Context, cfg config.OIDCConfig) (*auth.Flow, error) {
	if cfg.Issuer == "" {
		return nil, nil
	}

	authURL, tokenURL, jwksURI, err := auth.Discover(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", cfg.Issuer, err)
	}

	roleMapping := make(map[string]domain.Role, len(cfg.RoleMapping))
	for claim, role := range cfg.RoleMapping {
		roleMapping[claim] = domain.Role(role)
	}

	verifier := auth.NewJWKSVerifier(cfg.Issuer, jwksURI)
	flow := auth.NewFlow(auth.OIDCConfig{
		Issuer:       cfg.Issuer,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		RoleMapping:  roleMapping,
		SessionTTL:   cfg.SessionTTL,
	}, authURL, tokenURL, verifier, auth.NewMemorySessionStore())

	logger.Info("oidc flow configured", zap.String("issuer", cfg.Issuer))
	return flow, nil
}

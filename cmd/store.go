package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/resilience"
	"github.com/sells-group/dedupe/internal/store"
	"github.com/sells-group/dedupe/pkg/notion"
	sfpkg "github.com/sells-group/dedupe/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dedupe.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "salesforce":
		sf, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		return guard("salesforce", store.NewSalesforce(sf)), nil
	case "notion":
		if cfg.Notion.Token == "" {
			return nil, eris.New("notion token is required (DEDUPE_NOTION_TOKEN)")
		}
		if cfg.Notion.DatabaseID == "" {
			return nil, eris.New("notion database ID is required (DEDUPE_NOTION_DATABASE_ID)")
		}
		return guard("notion", store.NewNotion(notion.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID)), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// guard wraps a remote store with the configured circuit breaker.
func guard(name string, st store.Store) store.Store {
	return store.NewGuarded(st, resilience.FromCircuitConfig(
		name,
		cfg.Store.Circuit.FailureThreshold,
		cfg.Store.Circuit.ResetTimeoutSecs,
	))
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (DEDUPE_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

// engineConfig returns the engine settings from --profile when given,
// otherwise from the loaded configuration.
func engineConfig() (dedupe.Config, error) {
	if profilePath == "" {
		return cfg.Engine, nil
	}
	return dedupe.LoadConfigFile(profilePath)
}

// engineEnv bundles an engine with the store it reads and writes.
type engineEnv struct {
	Engine *dedupe.Engine
	Store  store.Store
}

// Close releases the store.
func (e *engineEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// initEngine validates the configuration for mode, opens and migrates the
// store, and builds an engine over it.
func initEngine(ctx context.Context, mode string) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	engCfg, err := engineConfig()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	retry := resilience.FromSettings(
		cfg.Store.Retry.MaxAttempts,
		cfg.Store.Retry.InitialBackoffMs,
		cfg.Store.Retry.MaxBackoffMs,
	)
	retry.OnRetry = resilience.RetryLogger(cfg.Store.Driver, "merge")

	eng, err := dedupe.NewEngine(st, engCfg, dedupe.WithRetry(retry))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Debug("engine ready",
		zap.String("driver", cfg.Store.Driver),
		zap.Stringer("config", engCfg),
	)
	return &engineEnv{Engine: eng, Store: st}, nil
}

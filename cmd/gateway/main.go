// gateway is the public HTTP entry point. It issues service tokens and
// proxies REST calls onto the account and transaction services.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	accountremote "github.com/Wunenes/Core-Banking-System-Services/internal/account/remote"
	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
	"github.com/Wunenes/Core-Banking-System-Services/internal/config"
	"github.com/Wunenes/Core-Banking-System-Services/internal/httpapi"
	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
	"github.com/Wunenes/Core-Banking-System-Services/internal/rpcmesh"
	txremote "github.com/Wunenes/Core-Banking-System-Services/internal/transaction/remote"
)

var version = "0.3.1"

func main() {
	configPath := kingpin.Flag("config", "Path to the YAML config file").Short('c').String()
	kingpin.Version(version)
	kingpin.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		kingpin.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		kingpin.Fatalf("%v", err)
	}

	logger := obs.NewLogger(cfg.Logger.Level, "corebank-gateway", cfg.IsProdMode)
	defer logger.Sync()

	obs.Init()
	obs.InitBuildInfo("corebank-gateway", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The gateway holds the signing secret, so it mints its own upstream
	// credentials instead of calling the token endpoint it serves.
	source := rpcmesh.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return auth.GenerateToken("corebank-gateway",
			[]string{auth.ScopeAdmin}, auth.DefaultTokenTTL)
	})
	broker := rpcmesh.NewCredentialBroker(source, logger)
	go broker.Start(ctx)

	timeout := time.Duration(cfg.Targets.CallTimeoutMS) * time.Millisecond
	accounts, err := accountremote.Dial(cfg.Targets.AccountAddr, broker, timeout, logger)
	if err != nil {
		logger.Fatal("dial account service", zap.String("addr", cfg.Targets.AccountAddr), zap.Error(err))
	}
	defer accounts.Close()

	transactions, err := txremote.Dial(cfg.Targets.TransactionAddr, broker, timeout, logger)
	if err != nil {
		logger.Fatal("dial transaction service", zap.String("addr", cfg.Targets.TransactionAddr), zap.Error(err))
	}
	defer transactions.Close()

	registry := clientRegistry(cfg)
	if registry == nil {
		logger.Warn("no service clients configured, token endpoint disabled")
	}

	// Ready when the account service answers; a not-found on the probe
	// number still proves the upstream is reachable.
	probe := httpapi.ReadyProbe{Check: func(ctx context.Context) error {
		_, err := accounts.GetAccount(ctx, "0000000000")
		var notFound *account.NotFoundError
		if err == nil || errors.As(err, &notFound) {
			return nil
		}
		return err
	}}

	api := httpapi.New(accounts, transactions, registry, probe, logger, version)

	handler := httpapi.RequestID(
		httpapi.Logging(logger)(
			httpapi.SecurityHeaders(
				httpapi.CORS(
					httpapi.RateLimit(
						httpapi.MaxBodyBytes(api.Handler(), 1<<20),
						20, 10)))))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.HTTP.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

func clientRegistry(cfg *config.Config) *auth.ClientRegistry {
	if len(cfg.Auth.Clients) == 0 {
		return nil
	}
	clients := make([]auth.Client, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients = append(clients, auth.Client{ID: c.ID, Secret: c.Secret, Scopes: c.Scopes})
	}
	return auth.NewClientRegistry(clients)
}

// accountd serves the account ledger over gRPC.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/config"
	"github.com/Wunenes/Core-Banking-System-Services/internal/grpcapi"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ids"
	"github.com/Wunenes/Core-Banking-System-Services/internal/migrate"
	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
	"github.com/Wunenes/Core-Banking-System-Services/internal/store/pg"
)

var version = "0.3.1"

func main() {
	var (
		configPath = kingpin.Flag("config", "Path to the YAML config file").Short('c').String()
		migrations = kingpin.Flag("migrations", "Path to SQL migrations").Default("migrations").String()
	)
	kingpin.Version(version)
	kingpin.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		kingpin.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		kingpin.Fatalf("%v", err)
	}

	logger := obs.NewLogger(cfg.Logger.Level, "corebank-accountd", cfg.IsProdMode)
	defer logger.Sync()

	obs.Init()
	obs.InitBuildInfo("corebank-accountd", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store account.Store
	if cfg.Postgres.DSN != "" {
		pgStore, err := pg.Open(cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("open postgres", zap.Error(err))
		}
		defer pgStore.Close()
		if cfg.Postgres.Migrate {
			if err := migrate.NewManager(pgStore.DB(), *migrations).Up(ctx); err != nil {
				logger.Fatal("run migrations", zap.Error(err))
			}
		}
		store = pgStore.Accounts()
	} else {
		logger.Warn("no postgres dsn configured, using the in-memory store")
		store = account.NewInMemory()
	}

	ledger := account.NewLedger(store, ids.Default(), nil, logger)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcapi.UnaryAuthInterceptor(logger)))
	grpcapi.NewAccountServer(ledger, logger).Register(srv)

	go func() {
		logger.Info("accountd listening", zap.String("addr", cfg.GRPC.Addr), zap.String("version", version))
		if err := srv.Serve(lis); err != nil {
			logger.Error("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		srv.Stop()
	}
	logger.Info("stopped")
}

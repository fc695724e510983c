// transactiond runs the transaction orchestrator over gRPC. It drives the
// account service through the mesh client and publishes settled ledger
// entries to Kafka.
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

	accountremote "github.com/Wunenes/Core-Banking-System-Services/internal/account/remote"
	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
	"github.com/Wunenes/Core-Banking-System-Services/internal/config"
	"github.com/Wunenes/Core-Banking-System-Services/internal/grpcapi"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ids"
	"github.com/Wunenes/Core-Banking-System-Services/internal/ledgerfeed"
	"github.com/Wunenes/Core-Banking-System-Services/internal/migrate"
	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
	"github.com/Wunenes/Core-Banking-System-Services/internal/rpcmesh"
	"github.com/Wunenes/Core-Banking-System-Services/internal/store/pg"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
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

	logger := obs.NewLogger(cfg.Logger.Level, "corebank-transactiond", cfg.IsProdMode)
	defer logger.Sync()

	obs.Init()
	obs.InitBuildInfo("corebank-transactiond", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store transaction.Store
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
		store = pgStore.Transactions()
	} else {
		logger.Warn("no postgres dsn configured, using the in-memory store")
		store = transaction.NewInMemory()
	}

	source := auth.NewHTTPTokenSource(cfg.Auth.TokenURL, cfg.Auth.ClientID, cfg.Auth.ClientSecret)
	broker := rpcmesh.NewCredentialBroker(source, logger)
	go broker.Start(ctx)

	timeout := time.Duration(cfg.Targets.CallTimeoutMS) * time.Millisecond
	accounts, err := accountremote.Dial(cfg.Targets.AccountAddr, broker, timeout, logger)
	if err != nil {
		logger.Fatal("dial account service", zap.String("addr", cfg.Targets.AccountAddr), zap.Error(err))
	}
	defer accounts.Close()

	var feed ledgerfeed.Publisher
	if cfg.Kafka.Enabled {
		kafka, err := ledgerfeed.NewKafka(cfg.Kafka.Brokers, logger)
		if err != nil {
			logger.Fatal("connect kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.Error(err))
		}
		defer kafka.Close()
		feed = kafka
	} else {
		logger.Warn("kafka disabled, ledger entries will not be published")
	}

	orch := transaction.NewOrchestrator(store, accounts, ids.Default(), feed, logger)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcapi.UnaryAuthInterceptor(logger)))
	grpcapi.NewTransactionServer(orch, logger).Register(srv)

	go func() {
		logger.Info("transactiond listening", zap.String("addr", cfg.GRPC.Addr), zap.String("version", version))
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

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"encrypted-match-system/config"
	"encrypted-match-system/encryption"
	"encrypted-match-system/handlers"
	"encrypted-match-system/oracle"
	"encrypted-match-system/services"
	"encrypted-match-system/store"
	"encrypted-match-system/utils"
	"encrypted-match-system/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	st := store.NewGormStore(db)
	if err := st.Migrate(); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	pk, err := cfg.EncryptionPublicKey()
	if err != nil {
		log.Fatal(err)
	}
	arith, err := encryption.NewElGamal(pk)
	if err != nil {
		log.Fatal("invalid encryption public key:", err)
	}

	memberKeys, err := cfg.CommitteePublicKeys()
	if err != nil {
		log.Fatal(err)
	}
	committee, err := oracle.NewCommittee(memberKeys, cfg.CommitteeThreshold)
	if err != nil {
		log.Fatal("invalid oracle committee:", err)
	}

	oracleClient := oracle.NewClient(cfg.OracleURL, cfg.OracleServiceToken, utils.HTTPClient)

	bus := services.NewBus(64)
	svc := services.NewMatchService(st, oracleClient, committee, arith, bus)
	svc.Score = services.ConstantScore(cfg.MatchScore)
	proc := services.NewProcessor(svc, cfg.ProcessorQueueSize)

	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		UnescapePath: true, // player ids are arbitrary unicode
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Service-Token, X-Operator-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	handlers.SetupOracleRoutes(app, proc, cfg.OracleCallbackToken)
	handlers.SetupEventRoutes(app, proc, cfg.GatewayToken)
	handlers.SetupMatchRoutes(app, proc, cfg.GatewayToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := proc.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.OraclePollInterval > 0 {
		poller := workers.NewOracleResultPoller(oracleClient, proc, cfg.OraclePollInterval)
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})
		log.Printf("✅ Oracle result polling enabled (every %s)", cfg.OraclePollInterval)
	}

	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		workers.NewMatchArchiver(proc, r2).Start(gctx)
		log.Printf("✅ Verified matches archived to R2 bucket %s", cfg.R2.Bucket)
	}

	sched, err := workers.StartPendingAudit(gctx, proc, cfg.PendingAuditInterval, cfg.PendingStaleAfter)
	if err != nil {
		log.Fatal("failed to start pending audit:", err)
	}

	g.Go(func() error {
		log.Printf("✅ Server running on %s", cfg.ListenAddr)
		return app.Listen(cfg.ListenAddr)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		if err := sched.Shutdown(); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

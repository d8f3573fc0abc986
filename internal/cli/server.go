package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/qmin9339-glitch/choseong/internal/app"
	"github.com/qmin9339-glitch/choseong/internal/config"
	"github.com/qmin9339-glitch/choseong/internal/game"
	"github.com/qmin9339-glitch/choseong/internal/identity"
	"github.com/qmin9339-glitch/choseong/internal/infra/memory"
	pgloader "github.com/qmin9339-glitch/choseong/internal/infra/postgres"
	redisinfra "github.com/qmin9339-glitch/choseong/internal/infra/redis"
	transport "github.com/qmin9339-glitch/choseong/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(memory.DefaultBank())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.Duration(cfg.Bank.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, bankTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, bankTTL)
	}

	var profiles app.ProfileStore
	if redisClient != nil {
		profiles = redisinfra.NewProfileStore(redisClient)
	} else {
		profiles = memory.NewProfileStore()
	}

	rules := game.Rules{
		RoundSize:    cfg.Game.RoundSize,
		StartTime:    cfg.Game.StartTime,
		BasePoints:   cfg.Game.BasePoints,
		CorrectDelay: config.Duration(cfg.Game.CorrectDelay, 500*time.Millisecond),
		WrongDelay:   config.Duration(cfg.Game.WrongDelay, 2*time.Second),
	}
	service := app.NewGameService(identity.NewAnonymous(), profiles, questions, app.Options{
		Rules:          rules,
		LeaderboardMax: cfg.Game.LeaderboardMax,
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting choseong quiz server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

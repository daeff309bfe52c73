package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/handlers"
	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/relay"
)

const relayChannel = "portal:chat"

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Healthcare portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedTipsCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API and chat relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			inMemory, _ := cmd.Flags().GetBool("in-memory")
			return runServer(inMemory)
		},
	}
	cmd.Flags().Bool("in-memory", false, "use the in-process store instead of MongoDB")
	return cmd
}

func runServer(inMemory bool) error {
	a, err := newApp(context.Background(), inMemory, true)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := relay.NewHub()
	var broker relay.Broker = relay.NewLocalBroker(hub)
	if a.cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		rb, err := relay.NewRedisBroker(context.Background(), rdb, relayChannel, hub, log)
		if err != nil {
			_ = rdb.Close()
			return err
		}
		defer func() {
			_ = rb.Close()
			_ = rdb.Close()
		}()
		broker = rb
		log.Info("chat relay fan-out over Redis", zap.String("addr", a.cfg.RedisAddr))
	}
	chat := relay.New(hub, broker, a.svc.Messages, log)

	h := handlers.NewHandler(a.svc, log)
	router := handlers.NewRouter(h, handlers.RouterOptions{
		Tokens:          a.tokens,
		Relay:           relay.NewHandler(chat, a.cfg.CORSOrigins(), log),
		CORSOrigins:     a.cfg.CORSOrigins(),
		RateLimitPerMin: a.cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting server", zap.String("port", a.cfg.Port), zap.String("env", a.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func seedTipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-tips",
		Short: "Replace the health tips with the built-in set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.Dashboard.SeedTips(ctx, models.DefaultHealthTips)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d health tips\n", n)
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			ctx := cmd.Context()
			a, err := newApp(ctx, false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			admin, created, err := a.svc.Auth.EnsureAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			if !created {
				fmt.Printf("A user with email %s already exists (role %s)\n", admin.Email, admin.Role)
				return nil
			}
			fmt.Printf("Admin user created: %s\n", admin.Email)
			fmt.Println("Please change the password after first login.")
			return nil
		},
	}
	cmd.Flags().String("name", "System Administrator", "admin display name")
	cmd.Flags().String("email", "admin@healthcare.com", "admin email")
	cmd.Flags().String("password", "", "admin password (at least 6 characters)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

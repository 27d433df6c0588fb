/*
Package main is the entry point for the peertoken credential issuer.

It is responsible for loading configuration, initializing the global logging
system, opening the optional issuance ledger, setting up the HTTP server, and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM) to
ensure a smooth shutdown with the ledger fully drained.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"peertoken/internal/app/ledger"
	"peertoken/internal/app/policy"
	"peertoken/internal/app/signer"
	"peertoken/internal/configs"
	"peertoken/internal/handler"
	"peertoken/internal/pkg/logx"
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("token_ttl_seconds", cfg.TokenTTLSeconds).
		Bool("prod_only", cfg.ProdOnly).
		Bool("audit_enabled", cfg.AuditDatabaseDSN != "").
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditLog, err := ledger.New(cfg.AuditDatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to open issuance ledger")
	}

	deps := &handler.AppDeps{
		Config: cfg,
		Engine: policy.NewEngine(cfg, signer.NewAgoraSigner(cfg.AppID, cfg.AppCertificate)),
		Ledger: auditLog,
	}

	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Token issuer starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	if err := auditLog.Close(shutdownCtx); err != nil {
		logx.Error(err, "Issuance ledger did not drain cleanly")
	}

	logx.Info("Server gracefully stopped.")
}

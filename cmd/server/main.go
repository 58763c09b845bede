/*
Package main is the entry point for the linechat server.

It is responsible for loading configuration, initializing the global logging system,
starting the TCP chat server and the admin HTTP server, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
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

	"golang.org/x/time/rate"

	"linechat/internal/app/chat"
	"linechat/internal/configs"
	"linechat/internal/handler"
	"linechat/internal/pkg/limiter"
	"linechat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("chat_port", cfg.ChatPort).
		Int("admin_port", cfg.AdminPort).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("max_sessions", cfg.MaxSessions).
		Float64("connect_rate", cfg.ConnectRate).
		Int("connect_burst", cfg.ConnectBurst).
		Msg("Configuration loaded successfully")

	if cfg.IsDevelopment() && cfg.AdminSecret == configs.DevelopmentAdminSecret {
		logx.Warn("Using the built-in development ADMIN_SECRET. Do not expose the admin API.")
	}

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the chat server
	admission := limiter.NewIPRateLimiter(ctx, rate.Limit(cfg.ConnectRate), cfg.ConnectBurst)
	chatServer := chat.NewServer(chat.Config{
		MaxSessions:    cfg.MaxSessions,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		SendQueueSize:  cfg.SendQueueSize,
		MaxLineBytes:   cfg.MaxLineBytes,
		MaxNicknameLen: cfg.MaxNicknameLen,
	}, admission)

	chatAddr := fmt.Sprintf(":%d", cfg.ChatPort)
	go func() {
		if err := chatServer.ListenAndServe(chatAddr); err != nil {
			logx.Fatal(err, "Chat server failed to start")
		}
	}()

	// Setup the admin HTTP server and routes
	var adminServer *http.Server
	if cfg.AdminPort != 0 {
		adminAddr := fmt.Sprintf(":%d", cfg.AdminPort)
		adminServer = &http.Server{
			Addr:         adminAddr,
			Handler:      handler.Router(ctx, &handler.AppDeps{Server: chatServer, Config: cfg}),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			logx.Info(fmt.Sprintf("Admin API starting on http://localhost%s", adminAddr))
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Fatal(err, "Admin server failed to start")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the servers with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "Admin server forced to shutdown")
		}
	}

	if err := chatServer.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Chat server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}

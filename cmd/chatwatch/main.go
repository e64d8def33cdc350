package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okaru/aminokit/amino"
	"github.com/okaru/aminokit/config"
	"github.com/okaru/aminokit/internal/database"
	"github.com/okaru/aminokit/internal/version"
	"github.com/okaru/aminokit/proxymap"
	"github.com/okaru/aminokit/recorder"
	"github.com/okaru/aminokit/socket"
)

func main() {
	configPath := flag.String("config", "configs/chatwatch.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting chatwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"api_url", cfg.API.BaseURL,
		"socket_url", cfg.Socket.URL,
		"recorder", cfg.Recorder.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Parse proxy map
	var proxies proxymap.Map
	if len(cfg.Proxies) > 0 {
		proxies, err = proxymap.Parse(cfg.Proxies)
		if err != nil {
			logger.Error("failed to parse proxy map", "error", err)
			os.Exit(1)
		}
	}

	// Create API client and log in
	opts := []amino.ClientOption{
		amino.WithBaseURL(cfg.API.BaseURL),
		amino.WithTimeout(cfg.API.Timeout),
		amino.WithRetries(cfg.API.MaxRetries, time.Second),
		amino.WithLanguage(cfg.API.Language),
		amino.WithLogger(logger),
	}
	if cfg.API.DeviceID != "" {
		opts = append(opts, amino.WithDeviceID(cfg.API.DeviceID))
	}
	if cfg.API.UserAgent != "" {
		opts = append(opts, amino.WithUserAgent(cfg.API.UserAgent))
	}
	if proxies != nil {
		opts = append(opts, amino.WithProxies(proxies))
	}

	client, err := amino.NewClient(opts...)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	if cfg.Account.SID != "" {
		if _, err := client.LoginSID(ctx, cfg.Account.SID); err != nil {
			logger.Error("sid login failed", "error", err)
			os.Exit(1)
		}
	} else {
		if _, err := client.Login(ctx, cfg.Account.Email, cfg.Account.Password); err != nil {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
	}
	session := client.Session()
	logger.Info("logged in", "user_id", session.UserID)

	// Start the chat recorder if configured
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Recorder.Database.Host,
			"port", cfg.Recorder.Database.Port,
			"database", cfg.Recorder.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Recorder.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(recorder.Config{
			BatchSize:     cfg.Recorder.BatchSize,
			FlushInterval: cfg.Recorder.FlushInterval,
			BufferSize:    cfg.Recorder.BufferSize,
		}, pool, logger)

		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			rec.Stop(stopCtx)
		}()
	}

	// Open the socket session
	manager := socket.NewManager(socket.Config{
		URL:              cfg.Socket.URL,
		MaxReconnects:    cfg.Socket.MaxReconnects,
		BackoffBase:      cfg.Socket.BackoffBase,
		BackoffMax:       cfg.Socket.BackoffMax,
		HandshakeTimeout: cfg.Socket.HandshakeTimeout,
		PingInterval:     cfg.Socket.PingInterval,
		PingTimeout:      cfg.Socket.PingTimeout,
		BufferSize:       cfg.Socket.BufferSize,
		Proxies:          proxies,
	}, logger)

	manager.On(socket.TypeChatMessage, func(f socket.Frame) {
		p, err := f.DecodeChatMessage()
		if err != nil {
			logger.Warn("undecodable chat message", "error", err)
			return
		}
		logger.Info("chat message",
			"ndc_id", p.CommunityID,
			"thread_id", p.ChatMessage.ThreadID,
			"author", p.ChatMessage.Author.Nickname,
			"key", p.ChatMessage.Key(),
			"content", p.ChatMessage.Content,
		)
	})
	manager.On(socket.TypeNotification, func(f socket.Frame) {
		p, err := f.DecodeNotification()
		if err != nil {
			return
		}
		logger.Info("notification",
			"ndc_id", p.CommunityID,
			"notif_type", p.Payload.NotifType,
		)
	})
	if rec != nil {
		manager.On(socket.TypeChatMessage, rec.Handle)
	}

	creds := socket.Credentials{SID: session.SID, DeviceID: client.DeviceID()}
	if err := manager.Connect(ctx, creds); err != nil {
		logger.Error("socket connect failed", "error", err)
		os.Exit(1)
	}
	logger.Info("socket connected", "url", cfg.Socket.URL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-manager.Done()
		return manager.Err()
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return manager.Close()
			case <-manager.Done():
				return nil
			case <-ticker.C:
				if rec != nil {
					stats := rec.Stats()
					logger.Info("recorder stats",
						"inserts", stats.Inserts,
						"conflicts", stats.Conflicts,
						"flushes", stats.Flushes,
						"dropped", stats.Dropped,
						"errors", stats.Errors,
					)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("session ended", "error", err)
		os.Exit(1)
	}

	logger.Info("chatwatch stopped")
}

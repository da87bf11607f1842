package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/walletpilot/pilot/internal/keys"
	"github.com/walletpilot/pilot/internal/server"
	"github.com/walletpilot/pilot/internal/service"
	"github.com/walletpilot/pilot/internal/telemetry"
	"github.com/walletpilot/pilot/internal/waitlist"
)

const banner = `
 ___ ___ _    ___ _____
| _ \_ _| |  / _ \_   _|
|  _/| || |_| (_) || |
|_| |___|____\___/ |_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Pilot API server",
		Long:  "Start the HTTP server that serves the key, permission, transaction, and telemetry APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, CORS *)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()

	// 1. Open the store
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "driver", st.Driver())

	// 2. Services
	authSvc := service.NewAuthService(st, jwtSecret())
	keySvc := keys.NewService(st, logger)

	// 3. Waitlist backend: Redis when configured, store fallback otherwise
	var list waitlist.List
	if redisURL := viper.GetString("redis.url"); redisURL != "" {
		redisList, err := waitlist.NewRedis(ctx, redisURL)
		if err != nil {
			logger.Warn("redis unavailable, using store-backed waitlist", "error", err)
			list = waitlist.NewStore(st)
		} else {
			defer redisList.Close()
			list = redisList
			logger.Info("waitlist backed by redis")
		}
	} else {
		list = waitlist.NewStore(st)
	}

	// 4. Anonymous heartbeat
	tracker := telemetry.New(ctx, st, func() telemetry.Properties {
		props := telemetry.Properties{
			Version:   versionString(),
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Driver:    st.Driver(),
		}
		if accounts, err := st.ListAccounts(ctx); err == nil {
			props.Accounts = len(accounts)
		}
		if n, err := st.CountAPIKeys(ctx); err == nil {
			props.APIKeys = n
		}
		if n, err := st.CountTelemetryEvents(ctx); err == nil {
			props.Events = n
		}
		return props
	})
	if tracker != nil {
		telemetry.PrintNotice()
		tracker.Start()
		defer tracker.Shutdown()
	}

	// 5. Build and start HTTP server
	corsOrigins := viper.GetStringSlice("server.cors_origins")
	if len(corsOrigins) == 0 || dev {
		corsOrigins = []string{"*"}
	}

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     corsOrigins,
		AdminSecret:     viper.GetString("auth.admin_secret"),
		Version:         versionString(),
		PublicRateLimit: 30,
		SDKRateLimit:    120,
	}

	srv := server.New(srvCfg, st, keySvc, authSvc, list, logger)

	fmt.Printf("→ Pilot %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:     http://%s:%d/health\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}

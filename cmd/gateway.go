// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/coord"
	"github.com/LeeDigitalWorks/zapgate/pkg/debug"
	"github.com/LeeDigitalWorks/zapgate/pkg/env"
	"github.com/LeeDigitalWorks/zapgate/pkg/gateway"
	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/storage"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
	"github.com/LeeDigitalWorks/zapgate/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// GatewayOpts holds all configuration for a gateway node
type GatewayOpts struct {
	// Network binding
	BindHost  string
	Port      int
	DebugPort int // 0 disables the debug server

	// Service identity as advertised to other nodes
	NodeID     string
	PublicHost string

	// Storage
	RootDir       string
	MaxUploadSize int64

	// Auth and admission
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int

	// Coordination
	RedisHost        string
	RedisPort        int
	RedisPassword    string
	RedisDisabled    bool
	CoordTimeout     time.Duration
	SelfRegister     bool
	RegisterInterval time.Duration
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start a gateway node",
	Long: `Start a ZapGate node serving the bucket/object API from its local disk.
Uploads are recorded in the shared location directory so other nodes can
redirect reads for objects they do not hold.`,
	Run: runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)

	f := gatewayCmd.Flags()

	// Network binding
	f.String("bind_host", "0.0.0.0", "Interface to listen on")
	f.Int("port", 3001, "HTTP API port. Env: PORT")
	f.Int("debug_port", 3011, "Debug/metrics HTTP port (0 disables)")

	// Service identity
	f.String("node_id", "", "Node identifier recorded as object owner (default server-{pid}). Env: NODE_ID")
	f.String("public_host", "localhost", "Host other nodes and clients use to reach this node. Env: PUBLIC_HOST")

	// Storage
	f.String("root_dir", "./storage", "Directory holding one subdirectory per bucket. Env: ROOT_DIR")
	f.String("max_upload_size", "1GiB", "Largest accepted upload body (e.g. 512MiB, 0 for no limit)")

	// Auth and admission
	f.String("api_key", "", "Shared secret required in the X-API-Key header (empty disables auth). Env: API_KEY")
	f.Float64("rate_limit_rps", 0, "Node-wide request rate limit (0 disables)")
	f.Int("rate_limit_burst", 0, "Burst size for the rate limit (defaults to rps)")

	// Coordination
	f.String("redis_host", "localhost", "Redis host for the shared directory and registry. Env: REDIS_HOST")
	f.Int("redis_port", 6379, "Redis port. Env: REDIS_PORT")
	f.String("redis_password", "", "Redis password. Env: REDIS_PASSWORD")
	f.Bool("redis_disabled", false, "Use an in-process coordination store (single node only)")
	f.Duration("coord_timeout", coord.DefaultTimeout, "Timeout for each coordination store call")
	f.Bool("self_register", true, "Register this node in the shared registry at startup and periodically")
	f.Duration("register_interval", time.Minute, "How often to refresh self registration (0 registers once)")

	viper.BindPFlags(f)
}

func runGateway(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("gateway", false)
	opts := loadGatewayOpts(cmd)

	debug.SetNotReady()

	store, err := storage.New(opts.RootDir)
	if err != nil {
		logger.Fatal().Err(err).Str("root_dir", opts.RootDir).Msg("failed to open local store")
	}

	kv := newCoordStore(opts)
	defer kv.Close()

	self := types.NodeDescriptor{ID: opts.NodeID, Host: opts.PublicHost, Port: opts.Port}
	server := gateway.NewServer(gateway.Config{
		APIKey:         opts.APIKey,
		Self:           self,
		MaxUploadSize:  opts.MaxUploadSize,
		RateLimitRPS:   opts.RateLimitRPS,
		RateLimitBurst: opts.RateLimitBurst,
	}, store, coord.NewDirectory(kv, opts.CoordTimeout), coord.NewRegistry(kv, opts.CoordTimeout))

	if opts.APIKey == "" && env.IsProduction() {
		logger.Warn().Msg("api_key is empty: the API is open to anyone who can reach this node")
	}

	logger.Info().
		Interface("version", VersionInfo()).
		Str("node", self.String()).
		Str("root_dir", store.Root()).
		Bool("auth", opts.APIKey != "").
		Int64("max_upload_size", opts.MaxUploadSize).
		Msg("Gateway configuration")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, opts.CoordTimeout)
	if err := kv.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Msg("coordination store unreachable, serving local objects only until it recovers")
	}
	cancel()

	g, gctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{Handler: server, ReadHeaderTimeout: 10 * time.Second}
	g.Go(func() error {
		return serveHTTP(httpServer, opts.BindHost, opts.Port)
	})

	var debugServer *http.Server
	if opts.DebugPort > 0 {
		debugServer = &http.Server{Handler: debug.GetMux(), ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			return serveHTTP(debugServer, opts.BindHost, opts.DebugPort)
		})
	}

	if opts.SelfRegister {
		g.Go(func() error {
			selfRegisterLoop(gctx, server, opts.RegisterInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		debug.SetNotReady()
		logger.Info().Msg("Shutting down gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if debugServer != nil {
			err = errors.Join(err, debugServer.Shutdown(shutdownCtx))
		}
		return err
	})

	debug.SetReady()

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("gateway stopped with error")
	}
}

func loadGatewayOpts(cmd *cobra.Command) GatewayOpts {
	f := NewFlagLoader(cmd)

	nodeID := f.String("node_id")
	if nodeID == "" {
		nodeID = "server-" + strconv.Itoa(os.Getpid())
	}

	publicHost := f.String("public_host")
	if publicHost == "" {
		publicHost = utils.DetectedHostAddress()
	}

	maxUpload, err := f.Bytes("max_upload_size")
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid max_upload_size")
	}

	coordTimeout := f.Duration("coord_timeout")
	if coordTimeout <= 0 {
		coordTimeout = coord.DefaultTimeout
	}

	return GatewayOpts{
		BindHost:         f.String("bind_host"),
		Port:             f.Int("port"),
		DebugPort:        f.Int("debug_port"),
		NodeID:           nodeID,
		PublicHost:       publicHost,
		RootDir:          f.String("root_dir"),
		MaxUploadSize:    maxUpload,
		APIKey:           f.String("api_key"),
		RateLimitRPS:     f.Float64("rate_limit_rps"),
		RateLimitBurst:   f.Int("rate_limit_burst"),
		RedisHost:        f.String("redis_host"),
		RedisPort:        f.Int("redis_port"),
		RedisPassword:    f.String("redis_password"),
		RedisDisabled:    f.Bool("redis_disabled"),
		CoordTimeout:     coordTimeout,
		SelfRegister:     f.Bool("self_register"),
		RegisterInterval: f.Duration("register_interval"),
	}
}

func newCoordStore(opts GatewayOpts) coord.Store {
	if opts.RedisDisabled {
		logger.Warn().Msg("Redis disabled: directory and registry are local to this process")
		return coord.NewMemoryStore()
	}

	cfg := coord.DefaultRedisConfig()
	cfg.Addr = utils.JoinHostPort(opts.RedisHost, opts.RedisPort)
	cfg.Password = opts.RedisPassword
	cfg.DialTimeout = opts.CoordTimeout
	logger.Info().Str("addr", cfg.Addr).Msg("Using Redis coordination store")
	return coord.NewRedisStore(cfg)
}

func serveHTTP(server *http.Server, host string, port int) error {
	addr := utils.JoinHostPort(host, port)
	listener, err := utils.NewListener(addr, 0)
	if err != nil {
		return err
	}
	logger.Info().Str("http_addr", addr).Msg("Starting HTTP server")
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// selfRegisterLoop registers this node now and then again every interval,
// so a registry that was unreachable at startup or was flushed catches up.
func selfRegisterLoop(ctx context.Context, server *gateway.Server, interval time.Duration) {
	server.RegisterSelf(ctx).Log(ctx)
	if interval <= 0 {
		return
	}

	timer := time.NewTimer(utils.JitterUp(interval, 0.1))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			server.RegisterSelf(ctx).Log(ctx)
			timer.Reset(utils.JitterUp(interval, 0.1))
		}
	}
}

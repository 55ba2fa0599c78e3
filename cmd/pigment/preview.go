package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/internal/config"
	"github.com/pigmentlabs/pigment/internal/preview"
	"github.com/pigmentlabs/pigment/pkg/pubsub"
	"github.com/pigmentlabs/pigment/pkg/storage"
)

func previewCmd() *cobra.Command {
	var (
		configPath  string
		addr        string
		siteDir     string
		backendName string
		remote      string
		remoteToken string
		trace       bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve the site locally with live decoration",
		Long: `Serve authored pages through the full decoration pipeline.

Every request parses the page, runs its block decorators, and returns
the decorated HTML. Saved colors and other store state live in the
configured storage backend, so they survive across requests and, with
the file or sqlite backends, across restarts.

Features:
  • Block decoration on every request
  • Live reload when authored files change
  • /sync WebSocket hub for cross-process stores
  • Prometheus metrics on /metrics

Examples:
  pigment preview
  pigment preview --addr=0.0.0.0:9000
  pigment preview --storage=sqlite
  pigment preview --sync=ws://studio.local:8736/sync`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(configPath, addr, siteDir, backendName, remote, remoteToken, trace)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.ConfigFileName+")")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&siteDir, "site", "s", "", "Directory of authored pages (default from config)")
	cmd.Flags().StringVar(&backendName, "storage", "", "Storage backend: memory, file, sqlite, s3")
	cmd.Flags().StringVar(&remote, "sync", "", "Remote sync hub to mirror stores with (ws:// URL)")
	cmd.Flags().StringVar(&remoteToken, "sync-token", "", "Bearer token for the remote sync hub")
	cmd.Flags().BoolVar(&trace, "trace", false, "Emit request traces to stdout")

	return cmd
}

func runPreview(configPath, addr, siteDir, backendName, remote, remoteToken string, trace bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Apply command-line overrides, then re-validate.
	if siteDir != "" {
		cfg.Site.Dir = siteDir
	}
	if backendName != "" {
		cfg.Storage.Backend = backendName
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	listenAddr := cfg.Preview.Addr()
	if addr != "" {
		listenAddr = addr
	}

	palette, err := config.LoadPalette(cfg.Site.Palette)
	if err != nil {
		return err
	}

	backend, cleanup, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	broker := pubsub.NewBroker()
	defer broker.Close()

	if trace {
		tp, err := preview.StartTracing("pigment-preview")
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer tp.Shutdown(context.Background())
	}

	var bridge *preview.Bridge
	if remote != "" {
		var opts []preview.BridgeOption
		if remoteToken != "" {
			opts = append(opts, preview.WithBridgeToken(remoteToken))
		}
		bridge, err = preview.DialBridge(context.Background(), remote, opts...)
		if err != nil {
			return fmt.Errorf("connecting to sync hub %s: %w", remote, err)
		}
		defer bridge.Close()
		bridge.Mirror(broker, pigment.DefaultColorsKey)
	}

	printBanner()
	fmt.Println("  preview")
	fmt.Println()
	info("Serving %s", cfg.Site.Dir)
	info("http://%s", listenAddr)
	info("Storage: %s", cfg.Storage.Backend)
	if remote != "" {
		info("Mirroring stores with %s", remote)
	}
	if cfg.Storage.Backend == "memory" {
		warn("Saved colors reset on restart; use --storage=file to keep them")
	}
	fmt.Println()

	syncSecret := ""
	if cfg.Sync.Enabled {
		syncSecret = cfg.Sync.Secret
	}

	srv, err := preview.New(preview.Config{
		Addr:         listenAddr,
		SiteDir:      cfg.Site.Dir,
		Palette:      palette,
		Delay:        cfg.Site.Delay,
		Backend:      backend,
		Broker:       broker,
		SyncSecret:   syncSecret,
		SyncDisabled: !cfg.Sync.Enabled,
		ReplayTTL:    cfg.Sync.ReplayTTL,
	})
	if err != nil {
		return err
	}

	return srv.Run()
}

// buildBackend constructs the storage backend the config names. The
// returned cleanup releases whatever the backend holds open.
func buildBackend(cfg *config.Config) (storage.Backend, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		b := storage.NewMemoryBackend()
		return b, func() { b.Close() }, nil

	case "file":
		b, err := storage.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil

	case "sqlite":
		db, err := sql.Open("sqlite3", "file:"+cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", cfg.Storage.Path, err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("opening %s: %w", cfg.Storage.Path, err)
		}
		b := storage.NewSQLBackend(db)
		if err := b.CreateTable(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("preparing store table: %w", err)
		}
		return b, func() { b.Close(); db.Close() }, nil

	case "s3":
		client, err := s3ClientFromEnv()
		if err != nil {
			return nil, nil, err
		}
		b := storage.NewS3Backend(client, cfg.Storage.Bucket, cfg.Storage.Prefix)
		return b, func() { b.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// s3ClientFromEnv builds an S3 client from the standard AWS environment
// variables.
func s3ClientFromEnv() (*s3.Client, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		return nil, fmt.Errorf("s3 storage needs AWS_REGION set")
	}

	access := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 storage needs AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY set")
	}
	session := os.Getenv("AWS_SESSION_TOKEN")

	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     access,
			SecretAccessKey: secret,
			SessionToken:    session,
			Source:          "environment",
		}, nil
	})

	return s3.New(s3.Options{Region: region, Credentials: creds}), nil
}

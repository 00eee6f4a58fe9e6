package main

import (
	"biometria/backup"
	"biometria/biometry"
	"biometria/config"
	"biometria/db"
	"biometria/faces"
	"biometria/faces/dlib"
	"biometria/handlers"
	"biometria/matcher"
	"biometria/processing"
	"biometria/storage"
	"biometria/store"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/autotls"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	useMemory bool
)

var rootCmd = &cobra.Command{
	Use:   "biometria",
	Short: "Facial biometry enrollment and verification service",
	Long: `biometria stores one facial descriptor per identity and verifies
new photos against it over an HTTP API protected by an API key.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a backup artifact of all enrollments and exit",
	RunE:  runBackup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional file with environment variables")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "Keep enrollments in memory only (nothing is persisted)")
	rootCmd.AddCommand(serveCmd, backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore picks PostgreSQL, MySQL or SQLite, in that order. Every store
// is wrapped with per-identity locking.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if useMemory {
		logger.Warn("using in-memory store, enrollments are lost on exit")
		return store.NewLocked(store.NewMemory()), nil
	}
	var st store.Store
	switch cfg.Backend() {
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = pg
	default:
		gdb, err := db.Open(cfg.MySQLDSN, cfg.SQLiteFile, cfg.DebugMode)
		if err != nil {
			return nil, err
		}
		g, err := store.NewGorm(gdb)
		if err != nil {
			db.Close(gdb)
			return nil, err
		}
		st = g
	}
	logger.Info("store ready", "backend", cfg.Backend())
	return store.NewLocked(st), nil
}

func newExtractor(cfg *config.Config, logger *slog.Logger) (faces.Extractor, func(), error) {
	if cfg.ExtractorURL != "" {
		logger.Info("using remote extractor", "url", cfg.ExtractorURL)
		return faces.NewRemote(cfg.ExtractorURL, cfg.Timeout), func() {}, nil
	}
	ext, err := dlib.New(cfg.ModelsDir, cfg.FaceDetectCNN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("dlib models loaded", "dir", cfg.ModelsDir, "cnn", cfg.FaceDetectCNN)
	return ext, ext.Close, nil
}

func newDestination(cfg *config.Config) (storage.Destination, error) {
	if cfg.S3.Bucket == "" {
		return storage.NewDiskStorage(cfg.BackupDir), nil
	}
	bucket := storage.Bucket{
		Name:     cfg.S3.Bucket,
		Path:     cfg.S3.Prefix,
		Region:   cfg.S3.Region,
		Endpoint: cfg.S3.Endpoint,
	}
	if cfg.S3.Key != "" {
		bucket.AuthDetails = cfg.S3.Key + ":" + cfg.S3.Secret
	}
	return storage.NewS3Storage(bucket)
}

func newArchiver(cfg *config.Config, logger *slog.Logger) (*backup.Archiver, error) {
	dest, err := newDestination(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("backups go to", "location", dest.Location(), "compress", cfg.Compress)
	return backup.NewArchiver(dest, cfg.TmpDir, cfg.Compress, logger), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.DebugMode)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	extractor, closeExtractor, err := newExtractor(cfg, logger)
	if err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	defer closeExtractor()

	archiver, err := newArchiver(cfg, logger)
	if err != nil {
		return fmt.Errorf("backup destination: %w", err)
	}

	policy := matcher.Policy{Threshold: cfg.Threshold, Scale: cfg.Scale}
	pool := processing.NewPool(cfg.Workers, cfg.Timeout, logger)
	svc := biometry.New(st, extractor, archiver, pool, policy, logger, biometry.WithPhotoMaxSide(cfg.PhotoMaxSide))

	router := handlers.New(svc, logger).Router(handlers.RouterOptions{
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyMB << 20,
		Debug:          cfg.DebugMode,
	})

	if len(cfg.TLSDomains) > 0 {
		logger.Info("starting with autotls", "domains", cfg.TLSDomains)
		return autotls.RunWithContext(ctx, router, cfg.TLSDomains...)
	}

	server := &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "address", cfg.BindAddress, "workers", cfg.Workers, "threshold", cfg.Threshold)
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.DebugMode)

	st, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	archiver, err := newArchiver(cfg, logger)
	if err != nil {
		return fmt.Errorf("backup destination: %w", err)
	}
	// No extraction happens during a backup
	svc := biometry.New(st, nil, archiver, nil, matcher.DefaultPolicy(), logger)
	res, err := svc.Backup(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d records) -> %s\n", res.Artifact, res.Records, res.Location)
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/app"
	"github.com/outreachkit/prospector/internal/input"
	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/report"
)

func newRunCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the discovery pipeline over an input file",
		Long: `Reads UserRecords from a JSON or CSV file, runs every user through the
extraction, scoring, and verification stages on a bounded worker pool, and
writes the resulting best-email records to the configured store and an
optional report file (format chosen by extension: .csv, .json, .xlsx).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), inputPath, outputPath)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file with user records (.json or .csv)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "optional report file (.csv, .json, or .xlsx)")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	return cmd
}

func runPipeline(parent context.Context, inputPath, outputPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.Logger

	users, err := input.LoadFile(inputPath)
	if err != nil {
		return err
	}
	logger.Info("input loaded",
		zap.String("path", inputPath),
		zap.Int("users", len(users)),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(serveErr))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("status server shutdown failed", zap.Error(shutdownErr))
		}
	}()

	done := make(chan struct{})
	go func() {
		a.Dispatcher.Run(ctx)
		close(done)
	}()

	for _, user := range users {
		if err := a.Dispatcher.Enqueue(ctx, user); err != nil {
			logger.Warn("enqueue aborted", zap.String("user_id", user.UserID), zap.Error(err))
			break
		}
	}
	a.Dispatcher.Close()
	<-done

	snapshot := a.Tracker.Snapshot()
	logger.Info("run finished",
		zap.Int("users_processed", snapshot.UsersProcessed),
		zap.Int("users_no_email", snapshot.UsersNoEmail),
		zap.Int("verified", snapshot.Verified),
		zap.Int("rejected", snapshot.Rejected),
		zap.Int("unknown", snapshot.Unknown),
	)

	if outputPath != "" {
		records, listErr := a.Store.List(context.Background())
		if listErr != nil {
			return fmt.Errorf("collect records for report: %w", listErr)
		}
		if err := writeReport(outputPath, records); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", outputPath), zap.Int("records", len(records)))
	}
	return nil
}

func writeReport(path string, records []pipeline.BestEmailRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return report.WriteCSV(f, records)
	case ".json":
		return report.WriteJSON(f, records)
	case ".xlsx":
		return report.WriteXLSX(f, records)
	default:
		return fmt.Errorf("unsupported report format %q", filepath.Ext(path))
	}
}

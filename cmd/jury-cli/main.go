package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/jury-scheduler-api/internal/app"
	"github.com/noah-isme/jury-scheduler-api/internal/dto"
	"github.com/noah-isme/jury-scheduler-api/pkg/config"
	"github.com/noah-isme/jury-scheduler-api/pkg/logger"
	"github.com/noah-isme/jury-scheduler-api/pkg/storage"
)

var rt *app.Runtime

func main() {
	rootCmd := &cobra.Command{
		Use:   "jury-cli",
		Short: "Schedule defense juries from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRuntime()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt != nil {
				_ = rt.Logger.Sync()
				rt.Close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(lastCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func initRuntime() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg, "cli")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt, err = app.New(cfg, logr)
	if err != nil {
		return err
	}
	return nil
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Place every pending project of a department into a jury slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			department, _ := cmd.Flags().GetString("department")
			start, _ := cmd.Flags().GetString("start")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			format, _ := cmd.Flags().GetString("output")
			saveDir, _ := cmd.Flags().GetString("save-dir")
			retain, _ := cmd.Flags().GetDuration("retain")

			rt.Logger.Debug("schedule command",
				zap.String("department_id", department),
				zap.String("start_date", start),
				zap.Bool("dry_run", dryRun))

			resp, err := rt.Scheduler.Schedule(cmd.Context(), dto.ScheduleJuriesRequest{
				DepartmentID: department,
				StartDate:    start,
				DryRun:       dryRun,
			})
			if resp != nil {
				if werr := writeSummary(cmd.OutOrStdout(), resp, format); werr != nil {
					return werr
				}
				if saveDir != "" {
					if serr := saveSummary(saveDir, retain, resp, format); serr != nil {
						return serr
					}
				}
			}
			if err != nil {
				return fmt.Errorf("scheduling failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("department", "", "Department id")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD); slots begin on the following working day")
	cmd.Flags().Bool("dry-run", false, "Compute the allocation without saving it")
	cmd.Flags().StringP("output", "o", formatText, "Output format: text, json, yaml or csv")
	cmd.Flags().String("save-dir", "", "Also write the output under this directory")
	cmd.Flags().Duration("retain", 30*24*time.Hour, "Remove saved outputs older than this")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func lastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the cached summary of the latest run for a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			department, _ := cmd.Flags().GetString("department")
			format, _ := cmd.Flags().GetString("output")

			resp, err := rt.Scheduler.LastSummary(cmd.Context(), department)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), resp, format)
		},
	}
	cmd.Flags().String("department", "", "Department id")
	cmd.Flags().StringP("output", "o", formatText, "Output format: text, json, yaml or csv")
	_ = cmd.MarkFlagRequired("department")
	return cmd
}

func saveSummary(base string, retain time.Duration, resp *dto.ScheduleJuriesResponse, format string) error {
	dir, err := storage.NewDir(base)
	if err != nil {
		return err
	}
	name := runFileName(resp, format, time.Now())
	w, path, err := dir.Create(name)
	if err != nil {
		return err
	}
	if err := writeSummary(w, resp, format); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close run file: %w", err)
	}
	rt.Logger.Info("run output saved", zap.String("path", path))

	if retain > 0 {
		removed, err := dir.Prune(retain, time.Now(), isRunFile)
		if err != nil {
			rt.Logger.Warn("prune saved runs failed", zap.Error(err))
		} else if len(removed) > 0 {
			rt.Logger.Info("pruned saved runs", zap.Int("count", len(removed)))
		}
	}
	return nil
}

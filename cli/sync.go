package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hdfsbridge/config"
	"hdfsbridge/core"
)

type taskEnv struct {
	cfg     *config.Config
	history *core.HistoryManager
	tm      *core.TransferManager
	close   func() error
}

func loadTaskEnv(cmd *cobra.Command, opts *rootOptions, configPath string) (*taskEnv, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	opts.applyConfigLevel(cmd, cfg.LogLevel)

	historyFS, historyPath, err := core.OpenURL(cfg.History, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	hm := core.NewHistoryManager(historyFS, historyPath)
	if err := hm.Load(); err != nil {
		opts.logger.Warn("failed to load history", zap.Error(err))
	}

	return &taskEnv{
		cfg:     cfg,
		history: hm,
		tm:      core.NewTransferManager(hm, opts.logger),
		close:   historyFS.Close,
	}, nil
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var configPath string
	var only []string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the configured transfer tasks once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadTaskEnv(cmd, opts, configPath)
			if err != nil {
				return err
			}
			defer env.close()

			selected := make(map[string]bool, len(only))
			for _, name := range only {
				selected[name] = true
			}

			var errs error
			ran := 0
			for _, task := range env.cfg.Tasks {
				if len(selected) > 0 && !selected[task.Name] {
					continue
				}
				ran++
				summary, err := env.tm.RunTask(task)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d transferred, %d skipped, %d failed, %d removed\n",
					task.Name, summary.Transferred, summary.Skipped, summary.Failed, summary.Removed)
				errs = multierr.Append(errs, err)
			}
			if len(selected) > 0 && ran == 0 {
				return fmt.Errorf("no task matches %v", only)
			}
			return errs
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "Path to config file")
	cmd.Flags().StringSliceVarP(&only, "task", "t", nil, "Run only these tasks")
	return cmd
}

func newDaemonCmd(opts *rootOptions) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the configured transfer tasks on their schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadTaskEnv(cmd, opts, configPath)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := core.NewRunner(env.cfg, env.tm, opts.logger)
			if err := runner.Start(); err != nil {
				runner.Stop()
				return err
			}
			opts.logger.Info("hdfsbridge started", zap.Int("tasks", len(env.cfg.Tasks)))

			<-ctx.Done()
			opts.logger.Info("shutting down")
			runner.Stop()
			return env.history.Save()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "Path to config file")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RoboDK/RoboDK-API-sub002/logger"
	"github.com/RoboDK/RoboDK-API-sub002/robolink"
)

var rootCmd = &cobra.Command{
	Use:           "robolink",
	Short:         "robolink drives a robot simulation host over its API port",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error. An interrupt cancels the
// running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("host", "", "host running the simulator (default localhost)")
	flags.Int("port", 0, "API port (default 20500)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
}

// dial builds the configuration from the config file and the persistent flags, then
// connects. Flags win over the file.
func dial(cmd *cobra.Command) (*robolink.Session, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.NewSlogWithWriter(os.Stderr, level, false)

	return robolink.Dial(cmd.Context(), cfg.Host, cfg.Port, cfg.options(log)...)
}

// withSession connects, runs f and disconnects.
func withSession(f func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := dial(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		return f(cmd.Context(), cmd, s, args)
	}
}

// findItem looks up an item by name and fails when it does not exist.
func findItem(ctx context.Context, s *robolink.Session, name string, itemType robolink.ItemType) (robolink.Item, error) {
	it, err := s.Item(ctx, name, itemType)
	if err != nil {
		return robolink.Item{}, err
	}
	if !it.Valid() {
		return robolink.Item{}, fmt.Errorf("item %q not found", name)
	}

	return it, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/RoboDK/RoboDK-API-sub002/internal/pool"
	"github.com/RoboDK/RoboDK-API-sub002/metrics"
	"github.com/RoboDK/RoboDK-API-sub002/robolink"
)

var watchCmd = &cobra.Command{
	Use:   "watch <robot>",
	Short: "Poll the joints of a robot and optionally serve session metrics",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		addr, _ := cmd.Flags().GetString("metrics-addr")
		if interval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", interval)
		}

		robot, err := findItem(ctx, s, args[0], robolink.ItemTypeRobot)
		if err != nil {
			return err
		}

		if addr != "" {
			srv := metricsServer(addr, s)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					fmt.Fprintln(cmd.ErrOrStderr(), "metrics server:", err)
				}
			}()
			defer srv.Close()
		}

		for {
			joints, err := robot.Joints(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", time.Now().Format(time.RFC3339), formatValues(joints))

			if pool.Sleep(ctx, interval) != nil {
				return nil
			}
		}
	}),
}

func metricsServer(addr string, s *robolink.Session) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector("", s))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func init() {
	watchCmd.Flags().Duration("interval", time.Second, "polling interval")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")

	rootCmd.AddCommand(watchCmd)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/cmd/latynkatar-e2e/fixture"
)

// NewServeFixtureCommand creates the serve-fixture command.
func NewServeFixtureCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve-fixture",
		Short: "Serve the stand-in converter page until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := rootOpts.Config
			fc := fixture.DefaultConfig()
			fc.Addr = addr
			fc.ConvertDelay = delay
			fc.ConvertTitle = cfg.ConvertTitle
			fc.ClearTitle = cfg.ClearTitle
			fc.Logger = rootOpts.Logger.Named("fixture")

			srv, err := fixture.NewServer(fc)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid fixture settings", err)
			}
			if _, err := srv.Start(); err != nil {
				return WrapExitError(ExitCommandError, "failed to start fixture", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s\n", srv.URL())
			rootOpts.Logger.Info("Fixture running.", zap.String("url", srv.URL()), zap.Duration("delay", delay))

			<-ctx.Done()
			stopFixture(srv, rootOpts.Logger)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().DurationVar(&delay, "delay", fixture.DefaultConfig().ConvertDelay, "latency added to every conversion")
	return cmd
}

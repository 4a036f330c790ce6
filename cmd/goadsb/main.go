package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"goadsb/internal/adsb"
	"goadsb/internal/app"
)

func main() {
	var config app.Config
	config.Decoder = adsb.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "goadsb",
		Short: "Mode S Extended Squitter decoder",
		Long: `Mode S Extended Squitter decoder for ADS-B receiver feeds.

Listens for UDP datagrams carrying GDL-90/KISS framed or PASSCOM wrapped
Mode S frames, decodes DF 17/18/19 extended squitters (identification,
position, altitude, velocity), and emits decoded records as JSON Lines
with daily rotation. Records can also be published to NATS JetStream.

Example usage:
  goadsb --udp-port 4000 --log-dir ./logs
  goadsb --replay frames.hex --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}

			if err := config.LoadEnv(); err != nil {
				return err
			}
			if err := config.Validate(); err != nil {
				return err
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().StringVar(&config.UDPHost, "udp-host", app.DefaultUDPHost, "UDP listen address")
	rootCmd.Flags().IntVarP(&config.UDPPort, "udp-port", "p", app.DefaultUDPPort, "UDP listen port")
	rootCmd.Flags().StringVarP(&config.ReplayFile, "replay", "r", "", "Replay hex frames from file instead of listening")
	rootCmd.Flags().StringVarP(&config.LogDir, "log-dir", "l", "./logs", "Event log directory")
	rootCmd.Flags().BoolVarP(&config.UseUTC, "utc", "u", true, "Use UTC for log rotation")
	rootCmd.Flags().StringVar(&config.NATSURL, "nats-url", "", "NATS server URL (disabled when empty)")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

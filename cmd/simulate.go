package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwhan-dev/robofleet/config"
	"github.com/jwhan-dev/robofleet/infra/logger"
	"github.com/jwhan-dev/robofleet/simulator"
)

var simCount int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated robots against the configured broker",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simCount, "count", 3, "number of simulated robots")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("simulate")
	simCfg := simulator.Config{Broker: cfg.MQTT.Broker, Count: simCount}
	robots := simulator.GenerateFleet(simCfg)
	for _, r := range robots {
		r := r
		go func() {
			if err := r.Run(ctx, simCfg.Broker); err != nil {
				log.Errorf("robot %s: %v", r.Name, err)
			}
		}()
	}
	log.Infof("running %d simulated robots against %s", len(robots), cfg.MQTT.Broker)
	<-ctx.Done()
	return nil
}

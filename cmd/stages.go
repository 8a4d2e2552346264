package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gridsim/bevflow/app"
	"github.com/gridsim/bevflow/infra/logger"
)

var mobilityCmd = &cobra.Command{
	Use:   "mobility",
	Short: "Sample driving profiles for the configured groups",
	RunE:  stage((*app.Service).RunMobility),
}

var consumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "Derive energy demand from stored driving profiles",
	RunE:  stage((*app.Service).RunConsumption),
}

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Simulate charger availability and the charging strategy",
	RunE:  stage((*app.Service).RunCharging),
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the household dispatch and export the results",
	RunE:  stage((*app.Service).RunSolve),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	RunE:  stage((*app.Service).Run),
}

func init() {
	rootCmd.AddCommand(mobilityCmd, consumptionCmd, chargeCmd, solveCmd, runCmd)
}

func stage(f func(*app.Service, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		svc, err := newService()
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Close(); err != nil {
				logger.New("cmd").Errorf("service close: %v", err)
			}
		}()
		return f(svc, ctx)
	}
}

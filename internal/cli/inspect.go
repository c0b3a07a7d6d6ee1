package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envbuilder/internal/app"
)

type inspectOptions struct {
	Output string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the lock file and resolution report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Output, "output", "out", "Output directory")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	service := app.NewService()
	result, err := service.Inspect(ctx, app.InspectRequest{
		OutputDir: resolveString(cmd, opts.Output, "output", "output"),
	})
	if err != nil {
		return err
	}
	for _, entry := range result.Packages {
		fmt.Printf("%s==%s %s %s\n", entry.Package, entry.Version, entry.Kind, entry.Hash)
	}
	for _, record := range result.Records {
		fmt.Printf("%s %s %s (%s)\n", record.Package, record.Action, record.Value, record.Source)
	}
	return nil
}

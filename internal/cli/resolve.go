package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envbuilder/internal/app"
)

type resolveOptions struct {
	Workspace string
	Index     string
	Output    string
	Platform  string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dependencies and write the lock file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Workspace, "workspace", ".", "Workspace root")
	cmd.Flags().StringVar(&opts.Index, "index", "", "Package index file or URL")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output directory")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Target platform tag")
	_ = viper.BindPFlag("workspace", cmd.Flags().Lookup("workspace"))
	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("platform", cmd.Flags().Lookup("platform"))
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := app.NewService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		Workspace: resolveString(cmd, opts.Workspace, "workspace", "workspace"),
		Index:     resolveString(cmd, opts.Index, "index", "index"),
		OutputDir: resolveString(cmd, opts.Output, "output", "output"),
		Platform:  resolveString(cmd, opts.Platform, "platform", "platform"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("resolved %d packages into %s\n", result.Packages, result.OutputDir)
	return nil
}

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envbuilder/internal/app"
)

type shellOptions struct {
	Workspace string
	Index     string
	Output    string
	Platform  string
	CacheDir  string
	Jobs      int
}

func newShellCommand() *cobra.Command {
	opts := shellOptions{}
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Materialize a development shell and enter it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Workspace, "workspace", ".", "Workspace root")
	cmd.Flags().StringVar(&opts.Index, "index", "", "Package index file or URL")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output directory")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Target platform tag")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Artifact cache directory")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 4, "Concurrent artifact fetches")
	_ = viper.BindPFlag("workspace", cmd.Flags().Lookup("workspace"))
	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("platform", cmd.Flags().Lookup("platform"))
	_ = viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
	return cmd
}

func runShell(ctx context.Context, cmd *cobra.Command, opts shellOptions) error {
	service := app.NewService()
	result, err := service.Shell(ctx, app.ShellRequest{
		Workspace: resolveString(cmd, opts.Workspace, "workspace", "workspace"),
		Index:     resolveString(cmd, opts.Index, "index", "index"),
		OutputDir: resolveString(cmd, opts.Output, "output", "output"),
		Platform:  resolveString(cmd, opts.Platform, "platform", "platform"),
		CacheDir:  resolveString(cmd, opts.CacheDir, "cache_dir", "cache-dir"),
		Jobs:      resolveInt(cmd, opts.Jobs, "jobs", "jobs"),
	})
	if err != nil {
		return err
	}
	// The shell's own exit status is the command's exit status.
	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

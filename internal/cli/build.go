package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envbuilder/internal/app"
)

type buildOptions struct {
	Workspace string
	Index     string
	Output    string
	Platform  string
	CacheDir  string
	Jobs      int
	Archive   bool
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Materialize a self-contained application bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Workspace, "workspace", ".", "Workspace root")
	cmd.Flags().StringVar(&opts.Index, "index", "", "Package index file or URL")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output directory")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Target platform tag")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Artifact cache directory")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 4, "Concurrent artifact fetches")
	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "Also write a compressed archive of the bundle")
	_ = viper.BindPFlag("workspace", cmd.Flags().Lookup("workspace"))
	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("platform", cmd.Flags().Lookup("platform"))
	_ = viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
	_ = viper.BindPFlag("archive", cmd.Flags().Lookup("archive"))
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, opts buildOptions) error {
	service := app.NewService()
	result, err := service.Build(ctx, app.BuildRequest{
		Workspace: resolveString(cmd, opts.Workspace, "workspace", "workspace"),
		Index:     resolveString(cmd, opts.Index, "index", "index"),
		OutputDir: resolveString(cmd, opts.Output, "output", "output"),
		Platform:  resolveString(cmd, opts.Platform, "platform", "platform"),
		CacheDir:  resolveString(cmd, opts.CacheDir, "cache_dir", "cache-dir"),
		Jobs:      resolveInt(cmd, opts.Jobs, "jobs", "jobs"),
		Archive:   resolveBool(cmd, opts.Archive, "archive", "archive"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("bundle %s (%s) in %s\n", result.BundlePath, result.Fingerprint, result.Elapsed.Round(time.Millisecond))
	if result.ArchivePath != "" {
		fmt.Printf("archive %s\n", result.ArchivePath)
	}
	return nil
}

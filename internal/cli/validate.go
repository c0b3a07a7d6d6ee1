package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envbuilder/internal/app"
)

type validateOptions struct {
	Workspace string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate workspace manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Workspace, "workspace", ".", "Workspace root")
	_ = viper.BindPFlag("workspace", cmd.Flags().Lookup("workspace"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := app.NewService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		Workspace: resolveString(cmd, opts.Workspace, "workspace", "workspace"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("valid: %s\n", strings.Join(result.Members, ", "))
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if configured := viper.GetString(key); configured != "" {
		return configured
	}
	return value
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if configured := viper.GetInt(key); configured != 0 {
		return configured
	}
	return value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}

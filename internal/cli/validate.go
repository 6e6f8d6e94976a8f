package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resmerge/internal/app"
)

type validateOptions struct {
	Layout string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse every source and check for duplicate resources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	addLayoutFlag(cmd, &opts.Layout)
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		LayoutPath: resolveString(cmd, opts.Layout, "layout", "layout"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "validated: %s (%d data sets, %d files, %d resources)\n",
		result.LayoutName, result.DataSets, result.Files, result.Resources)
	return nil
}

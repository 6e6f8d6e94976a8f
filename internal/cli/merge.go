package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resmerge/internal/app"
)

type mergeOptions struct {
	Layout      string
	Incremental bool
}

func newMergeCommand() *cobra.Command {
	opts := mergeOptions{}
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the layout's data sets into compiled outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMerge(cmd.Context(), cmd, opts)
		},
	}
	addLayoutFlag(cmd, &opts.Layout)
	cmd.Flags().BoolVar(&opts.Incremental, "incremental", true, "Reuse the persisted merge state when possible")
	_ = viper.BindPFlag("incremental", cmd.Flags().Lookup("incremental"))
	return cmd
}

func runMerge(ctx context.Context, cmd *cobra.Command, opts mergeOptions) error {
	service := newAppService()
	result, err := service.Merge(ctx, app.MergeRequest{
		LayoutPath:  resolveString(cmd, opts.Layout, "layout", "layout"),
		Incremental: resolveBool(cmd, opts.Incremental, "incremental", "incremental"),
	})
	if err != nil {
		return err
	}
	mode := "full"
	if result.Incremental {
		mode = fmt.Sprintf("incremental, %d changed files", result.Changes)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "merged %s (%s): %d resources -> %s\n", result.LayoutName, mode, result.Resources, result.OutputDir)
	return nil
}

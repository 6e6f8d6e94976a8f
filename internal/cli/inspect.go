package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resmerge/internal/app"
)

type inspectOptions struct {
	Layout string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the persisted merge state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	addLayoutFlag(cmd, &opts.Layout)
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(cmd.Context(), app.InspectRequest{
		LayoutPath: resolveString(cmd, opts.Layout, "layout", "layout"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "layout: %s\n", result.LayoutName)
	fmt.Fprintf(out, "generation: %s\n", result.Generation)
	fmt.Fprintln(out, "data sets:")
	for _, set := range result.DataSets {
		var flags []string
		if set.FromDependency {
			flags = append(flags, "dependency")
		}
		if set.Generated {
			flags = append(flags, "generated")
		}
		if set.Library != "" {
			flags = append(flags, "library="+set.Library)
		}
		fmt.Fprintf(out, "- %s (%s) %s: %d files, %d items, %d removed\n",
			set.Name, set.Namespace, strings.Join(flags, ","), set.Files, set.Items, set.Removed)
		for _, source := range set.Sources {
			fmt.Fprintf(out, "  %s\n", source)
		}
	}
	fmt.Fprintf(out, "compiled outputs: %d\n", result.Outputs)
	return nil
}

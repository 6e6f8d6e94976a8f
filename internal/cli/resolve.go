package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resmerge/internal/app"
)

type resolveOptions struct {
	Layout         string
	Config         string
	Theme          string
	DeviceDefaults string
	Attrs          []string
	Trace          bool
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve [reference...]",
		Short: "Resolve resource references and theme attributes for a configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), cmd, opts, args)
		},
	}
	addLayoutFlag(cmd, &opts.Layout)
	cmd.Flags().StringVar(&opts.Config, "config-qualifiers", "", "Target configuration, e.g. fr-land-v21")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "Default theme, e.g. @style/AppTheme")
	cmd.Flags().StringVar(&opts.DeviceDefaults, "device-defaults", "", "Theme family DeviceDefault styles map to")
	cmd.Flags().StringSliceVar(&opts.Attrs, "attr", nil, "Theme attributes to resolve")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "Print the lookup chain of every value")
	_ = viper.BindPFlag("config_qualifiers", cmd.Flags().Lookup("config-qualifiers"))
	_ = viper.BindPFlag("theme", cmd.Flags().Lookup("theme"))
	_ = viper.BindPFlag("device_defaults", cmd.Flags().Lookup("device-defaults"))
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions, references []string) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		LayoutPath:     resolveString(cmd, opts.Layout, "layout", "layout"),
		Config:         resolveString(cmd, opts.Config, "config_qualifiers", "config-qualifiers"),
		Theme:          resolveString(cmd, opts.Theme, "theme", "theme"),
		DeviceDefaults: resolveString(cmd, opts.DeviceDefaults, "device_defaults", "device-defaults"),
		References:     references,
		Attrs:          opts.Attrs,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, resolved := range result.Values {
		switch {
		case resolved.Value == nil:
			fmt.Fprintf(out, "%s: unresolved\n", resolved.Query)
		case resolved.Value.IsStyle():
			fmt.Fprintf(out, "%s: %s\n", resolved.Query, resolved.Value.Reference)
		default:
			fmt.Fprintf(out, "%s: %s\n", resolved.Query, resolved.Value.Value)
		}
		if opts.Trace {
			fmt.Fprintf(out, "  %s\n", resolved.Chain)
		}
	}
	tags := make([]string, 0, len(result.Diagnostics))
	for tag := range result.Diagnostics {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(out, "%s diagnostics: %d\n", tag, result.Diagnostics[tag])
	}
	return nil
}

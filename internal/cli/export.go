package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resmerge/internal/app"
	"resmerge/internal/types"
)

type exportOptions struct {
	Layout           string
	Config           string
	Format           string
	Output           string
	IncludeFramework bool
}

func newExportCommand() *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the resources of a configuration as YAML or CBOR",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd, opts)
		},
	}
	addLayoutFlag(cmd, &opts.Layout)
	cmd.Flags().StringVar(&opts.Config, "config-qualifiers", "", "Target configuration, e.g. fr-land-v21")
	cmd.Flags().StringVar(&opts.Format, "format", string(types.ExportFormatYAML), "Export format (yaml|cbor)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "Output file, - for stdout")
	cmd.Flags().BoolVar(&opts.IncludeFramework, "include-framework", false, "Include android namespace resources")
	_ = viper.BindPFlag("config_qualifiers", cmd.Flags().Lookup("config-qualifiers"))
	_ = viper.BindPFlag("export_format", cmd.Flags().Lookup("format"))
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, opts exportOptions) (err error) {
	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" && opts.Output != "-" {
		file, createErr := os.Create(opts.Output)
		if createErr != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create export file").
				WithCause(createErr)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil && err == nil {
				err = errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to write export file").
					WithCause(closeErr)
			}
		}()
		w = file
	}
	service := newAppService()
	result, err := service.Export(ctx, app.ExportRequest{
		LayoutPath:       resolveString(cmd, opts.Layout, "layout", "layout"),
		Config:           resolveString(cmd, opts.Config, "config_qualifiers", "config-qualifiers"),
		Format:           types.ExportFormat(resolveString(cmd, opts.Format, "export_format", "format")),
		IncludeFramework: opts.IncludeFramework,
	}, w)
	if err != nil {
		return err
	}
	if w != cmd.OutOrStdout() {
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d resources to %s\n", result.Resources, opts.Output)
	}
	return nil
}

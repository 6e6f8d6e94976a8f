package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resmerge/internal/adapters"
	"resmerge/internal/app"
	"resmerge/internal/core"
	"resmerge/internal/types"
)

type watchOptions struct {
	Layout   string
	Debounce time.Duration
	Show     []string
}

func newWatchCommand() *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Merge incrementally whenever sources change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}
	addLayoutFlag(cmd, &opts.Layout)
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", adapters.DefaultWatchDebounce, "Quiet period before a batch of changes is merged")
	_ = viper.BindPFlag("watch_debounce", cmd.Flags().Lookup("debounce"))
	cmd.Flags().StringSliceVar(&opts.Show, "show", nil, "Reference whose default value is printed after every pass (repeatable)")
	_ = viper.BindPFlag("watch_show", cmd.Flags().Lookup("show"))
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts watchOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	debounce := opts.Debounce
	if !flagChanged(cmd, "debounce") && viper.IsSet("watch_debounce") {
		debounce = viper.GetDuration("watch_debounce")
	}
	refs := resolveStrings(cmd, opts.Show, "watch_show", "show")
	show := make([]types.ResourceURL, 0, len(refs))
	for _, ref := range refs {
		url, ok := types.ParseResourceURL(ref)
		if !ok || url.Theme || url.Type == types.ResourceTypeAttr {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid --show reference " + ref)
		}
		show = append(show, url)
	}
	out := cmd.OutOrStdout()
	service := newAppService()
	repository := core.NewRepository(service.Matcher)
	return service.Watch(ctx, app.WatchRequest{
		LayoutPath: resolveString(cmd, opts.Layout, "layout", "layout"),
		Debounce:   debounce,
		Repository: repository,
		OnPass: func(result app.MergeResult) {
			fmt.Fprintf(out, "merged %d resources (%d changes)\n", result.Resources, result.Changes)
			printShown(out, repository, show)
		},
		OnError: func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "merge failed: %s\n", errorMessage(err))
		},
	})
}

func printShown(out io.Writer, repository *core.Repository, show []types.ResourceURL) {
	for _, url := range show {
		ns := url.Namespace(types.NamespaceResAuto)
		values := repository.ConfiguredResourcesOfType(ns, url.Type, types.FolderConfiguration{})
		if value, ok := values.Get(url.Name); ok {
			fmt.Fprintf(out, "  %s = %s\n", url, value.Value)
			continue
		}
		fmt.Fprintf(out, "  %s unresolved\n", url)
	}
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	irruntime "github.com/wippyai/ir-runtime"
	"github.com/wippyai/ir-runtime/engine"
	"github.com/wippyai/ir-runtime/manifest"
	"github.com/wippyai/ir-runtime/runtime"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	Verbose bool

	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "irkit",
		Short: "Build and inspect IR modules from YAML manifests",
		Long: `irkit builds IR modules described by YAML manifests through the
ownership-checked runtime and prints or browses the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			opts.log = l
			engine.SetLogger(l.Named("engine"))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log lifecycle events to stderr")

	cmd.AddCommand(newBuildCommand(opts))
	cmd.AddCommand(newFunctionsCommand(opts))
	cmd.AddCommand(newBrowseCommand(opts))

	return cmd
}

// session is one manifest built into a fresh runtime.
type session struct {
	rt  *runtime.Runtime
	ctx *runtime.Context
	mod *runtime.Module
}

func openSession(opts *rootOptions, path string) (*session, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}

	rt, _, err := irruntime.Open([]runtime.Option{runtime.WithLogger(opts.log.Named("runtime"))})
	if err != nil {
		return nil, err
	}
	ctx, err := rt.NewContext()
	if err != nil {
		return nil, multierr.Append(err, rt.Shutdown())
	}
	mod, err := m.Build(ctx)
	if err != nil {
		return nil, multierr.Append(err, rt.Shutdown())
	}
	return &session{rt: rt, ctx: ctx, mod: mod}, nil
}

// Close releases the module, then its context, then the runtime.
func (s *session) Close() error {
	return multierr.Combine(s.mod.Close(), s.ctx.Close(), s.rt.Shutdown())
}

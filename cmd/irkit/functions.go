package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/wippyai/ir-runtime/runtime"
)

func newFunctionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "functions <manifest.yaml>",
		Short: "List the functions a manifest declares",
		Long: `List every function of the built module in declaration order, using
the names the module actually assigned (duplicates are renamed).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(opts, args[0])
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, s.Close()) }()

			names, err := functionNames(s.mod)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func functionNames(mod *runtime.Module) ([]string, error) {
	fns, err := mod.Functions()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fns))
	for _, f := range fns {
		name, err := f.Name()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

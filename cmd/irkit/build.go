package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type buildOptions struct {
	*rootOptions
	Output string
}

func newBuildCommand(root *rootOptions) *cobra.Command {
	opts := &buildOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "build <manifest.yaml>",
		Short: "Build a manifest and print its textual IR",
		Long: `Build the module described by a manifest and write its textual IR to
stdout, or to the file given by --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions, path string) (err error) {
	s, err := openSession(opts.rootOptions, path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	if opts.Output != "" {
		return s.mod.Print(opts.Output)
	}
	text, err := s.mod.PrintToString()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/utils"
)

type InspectOptions struct {
	Hex         bool
	StateVector bool
	Doc         bool
}

func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode and print an update or a state vector",
		Long: `Decode an update file and print its runs and delete set.

With --sv the file holds an encoded state vector instead. With --doc the
update is applied to an empty document and the resulting roots are printed.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runInspect(opts, data, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&opts.Hex, "hex", "x", false, "the file is hex encoded")
	cmd.Flags().BoolVar(&opts.StateVector, "sv", false, "the file is a state vector")
	cmd.Flags().BoolVar(&opts.Doc, "doc", false, "print the document the update makes")
	return cmd
}

func runInspect(opts *InspectOptions, data []byte, out io.Writer) (err error) {
	if opts.Hex {
		if data, err = hex.DecodeString(strings.TrimSpace(string(data))); err != nil {
			return err
		}
	}
	switch {
	case opts.StateVector:
		sv, err := octo.DecodeStateVector(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, sv.String())
		return err
	case opts.Doc:
		doc, err := octo.NewDocFromUpdate(data, octo.Options{Logger: utils.NewDiscardLogger()})
		if err != nil {
			return err
		}
		defer doc.Destroy()
		doc.DumpRoots(out)
		doc.DumpStateVector(out)
		return nil
	}
	return octo.DumpUpdate(out, data)
}

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-nmr/nmr/filter"
	"github.com/cwbudde/algo-nmr/nmr/pipeline"
	"github.com/cwbudde/algo-nmr/stats/intensity"
)

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered filter kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tMERGES\tPREVIEW\tPROTECTED")
			for _, k := range a.registry().Kinds() {
				c := k.Capabilities()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k.Name(), k.Label(), yesNo(c.Once), yesNo(c.LivePreview), yesNo(c.Protected))
			}
			return w.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		docPath string
		format  string
		verify  bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a document's chain and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := readDocument(docPath, format)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			v, err := p.AddDocument(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if verify {
				if err := p.Verify(cmd.Context(), v.ID); err != nil {
					return err
				}
			}
			printView(cmd, v)
			if verify {
				fmt.Fprintln(cmd.OutOrStdout(), "verify: ok")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&docPath, "doc", "d", "-", "document file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "", "document format (json, yaml); default from extension")
	cmd.Flags().BoolVar(&verify, "verify", false, "check that a fresh replay reproduces the result")
	return cmd
}

func printView(cmd *cobra.Command, v pipeline.View) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "spectrum %s (group %s), %d points, version %d\n", v.ID, v.Group, v.Data.Len(), v.Version)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tNAME\tENABLED")
	for i, r := range v.Records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", i, r.ID, r.Name, r.IsEnabled)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "domain x [%g, %g] y [%g, %g]\n", v.Domain.X.Min, v.Domain.X.Max, v.Domain.Y.Min, v.Domain.Y.Max)
	fmt.Fprintf(out, "mode %s %s\n", v.Mode.Components, v.Mode.Direction)
	if re := v.Data.Data.Re; len(re) > 0 {
		st := intensity.Calculate(re)
		fmt.Fprintf(out, "intensity mean %.6g stddev %.6g max %.6g at x=%.6g\n",
			st.Mean, st.StdDev, st.Max, v.Data.Data.X[st.MaxPos])
	}
}

func newApplyCmd(a *app) *cobra.Command {
	var (
		docPath string
		format  string
		kind    string
		options string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a filter to a document and write the updated document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kind == "" {
				return errors.New("--kind is required")
			}
			doc, err := readDocument(docPath, format)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if _, err := p.AddDocument(cmd.Context(), doc); err != nil {
				return err
			}
			_, o, err := p.Engine().Registry().Decode(filter.Name(kind), []byte(options))
			if err != nil {
				return err
			}
			if _, err := p.ApplyFilter(cmd.Context(), doc.ID, filter.Name(kind), o); err != nil {
				return err
			}
			updated, err := p.Document(doc.ID)
			if err != nil {
				return err
			}
			return writeDocument(cmd, outPath, updated, format)
		},
	}
	cmd.Flags().StringVarP(&docPath, "doc", "d", "-", "document file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "", "document format (json, yaml); default from extension")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter kind")
	cmd.Flags().StringVarP(&options, "options", "o", "", "filter options as JSON")
	cmd.Flags().StringVarP(&outPath, "write", "w", "", "output file; stdout when empty")
	return cmd
}

func newConvertCmd(_ *app) *cobra.Command {
	var (
		docPath string
		format  string
		to      string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a document between JSON and YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := readDocument(docPath, format)
			if err != nil {
				return err
			}
			return writeDocument(cmd, outPath, doc, to)
		},
	}
	cmd.Flags().StringVarP(&docPath, "doc", "d", "-", "document file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "", "input format (json, yaml); default from extension")
	cmd.Flags().StringVar(&to, "to", "json", "output format (json, yaml)")
	cmd.Flags().StringVarP(&outPath, "write", "w", "", "output file; stdout when empty")
	return cmd
}

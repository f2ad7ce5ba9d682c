package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/extract"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
)

func parseCmd() *cobra.Command {
	var (
		file      string
		rulesPath string
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse one already-extracted text file and print its items",
		Long: `Parse a declaration text export without OCR. Useful for checking rules changes.

Example:
  foc-batch parse --file declaration.txt --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			text, warns, err := extract.DecodeText(data)
			if err != nil {
				return err
			}
			rules, err := common.LoadRules(rulesPath)
			if err != nil {
				return err
			}

			parser := pipeline.NewParserFromRules(rules, pipeline.Deps{})
			res := parser.Parse(declaration.RawDocument{Name: filepath.Base(file), Text: text})

			w := cmd.OutOrStdout()
			for _, msg := range warns {
				fmt.Fprintf(w, "note: %s\n", msg)
			}
			fmt.Fprintf(w, "declaration %s, trade code %s, %d segments, %d items, %d FOC\n\n",
				declaration.Render(res.Header.DeclarationNumber, "?"), res.Header.TradeCode,
				res.Stats.Segments, res.Stats.Items, res.Stats.FOC)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			cols := []constants.Column{
				constants.ColLineIndex, constants.ColItemTag, constants.ColIsFOC,
				constants.ColQuantity, constants.ColNetWeight, constants.ColDeclaredPrice, constants.ColModelSpec,
			}
			header := make([]string, len(cols))
			for i, c := range cols {
				header[i] = c.Label()
			}
			fmt.Fprintln(tw, strings.Join(header, "\t"))
			for _, r := range res.Records {
				if !all && !r.IsFOC {
					continue
				}
				fmt.Fprintln(tw, strings.Join(r.Row(cols), "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, wn := range res.Warnings {
				fmt.Fprintf(w, "\nwarning [%s] %s %s", wn.Kind, wn.Line, wn.Message)
			}
			if len(res.Warnings) > 0 {
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "UTF-8 or EUC-KR text file (required)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rules file overriding the defaults")
	cmd.Flags().BoolVar(&all, "all", false, "print non-FOC items too")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

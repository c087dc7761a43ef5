package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zalepa/urnas/schema"
	"github.com/zalepa/urnas/table"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how a vote file would be decoded and which columns resolve",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := table.Read(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file:      %s\n", t.Path)
		fmt.Fprintf(out, "delimiter: %q\n", t.Delimiter)
		fmt.Fprintf(out, "encoding:  %s\n", t.Encoding)
		fmt.Fprintf(out, "columns:   %d\n", len(t.Columns))
		fmt.Fprintf(out, "rows:      %d\n", len(t.Rows))

		fm, err := schema.Resolve(t.Columns)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "fields:")
		for _, f := range schema.Fields() {
			col := "-"
			if fm.Has(f) {
				col = fm.Column(f)
			}
			fmt.Fprintf(out, "  %-12s %s\n", f, col)
		}
		return nil
	},
}

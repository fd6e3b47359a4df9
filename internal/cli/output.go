package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// render writes v as indented JSON in json format, otherwise calls text.
func render(cmd *cobra.Command, opts *RootOptions, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func line(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

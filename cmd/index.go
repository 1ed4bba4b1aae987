package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var indexOutput string

var indexCmd = &cobra.Command{
	Use:   "index <docset-dir>",
	Short: "Index a local docset directory into a SQLite search index",
	Example: `  bookworm index ./serde_json
  bookworm index ./serde_json --output /tmp/serde_json.sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		output := indexOutput
		if output == "" {
			output = filepath.Join(args[0], "index.sqlite")
		}

		return eng.Index(args[0], output)
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexOutput, "output", "", "index file to write (default <docset-dir>/index.sqlite)")
}

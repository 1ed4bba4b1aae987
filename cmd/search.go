package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcdpr/bookworm/internal/docset"
)

var (
	searchKinds []string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <crate[@version]> <query>",
	Short: "Search a crate's documentation for item definitions",
	Example: `  bookworm search serde_json Value
  bookworm search serde_json@1.0.0 "value is_object"
  bookworm search tokio spawn --kind Function --kind Method --limit 5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, version, _ := strings.Cut(args[0], "@")

		var kinds []docset.Kind
		for _, token := range searchKinds {
			kind, err := docset.ParseKind(token)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}

		eng, cfg, err := newEngine()
		if err != nil {
			return err
		}

		limit := searchLimit
		if !cmd.Flags().Changed("limit") {
			limit = cfg.Search.Limit
		}

		definitions, err := eng.SearchItems(cmd.Context(), name, version, args[1], kinds, limit)
		if err != nil {
			return err
		}

		if len(definitions) == 0 {
			fmt.Println("no results")
			return nil
		}

		for _, def := range definitions {
			fmt.Printf("%-10s %s\n", def.Kind, def.Path)
			fmt.Printf("           %s\n", def.DocsResource)
			if def.SrcResource != "" {
				fmt.Printf("           %s\n", def.SrcResource)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchKinds, "kind", nil, "restrict results to item kinds (repeatable)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (0 = unbounded)")
}

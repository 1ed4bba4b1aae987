package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcdpr/bookworm/internal/engine"
	"github.com/dcdpr/bookworm/internal/markdown"
)

var getCmd = &cobra.Command{
	Use:   "get <crate://name/version/items/path>",
	Short: "Read a documentation item by resource URI",
	Example: `  bookworm get crate://serde_json/latest/items/serde_json/enum.Value.html
  bookworm get "crate://serde_json/latest/items/serde_json/enum.Value.html#variant.Array"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := engine.ParseItemURI(args[0])
		if err != nil {
			return err
		}

		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		item, err := eng.Item(cmd.Context(), ref.Crate, ref.Version, ref.Location)
		if err != nil {
			return err
		}

		conv := markdown.NewConverter()

		fmt.Printf("# %s (%s)\n\n", item.Path, item.Kind)
		if item.TypeInfo != "" {
			if md, err := conv.Convert(item.TypeInfo); err == nil {
				fmt.Printf("%s\n\n", md)
			}
		}
		if item.Documentation != "" {
			if md, err := conv.Convert(item.Documentation); err == nil {
				fmt.Println(md)
			}
		}
		if item.SrcPath != "" {
			fmt.Printf("\nsource: %s\n", item.SrcPath)
		}
		return nil
	},
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcdpr/bookworm/internal/markdown"
)

var searchCratesLimit int

var searchCratesCmd = &cobra.Command{
	Use:   "search-crates <query>",
	Short: "Search crates.io for Rust crates",
	Example: `  bookworm search-crates serde
  bookworm search-crates --limit 5 "async http client"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		infos, err := eng.SearchCrates(cmd.Context(), args[0], searchCratesLimit)
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("no results")
			return nil
		}

		for _, info := range infos {
			fmt.Printf("  %-30s %s  (%d downloads)\n", info.Name, info.Version, info.Downloads)
			if info.Description != "" {
				fmt.Printf("    %s\n", info.Description)
			}
		}
		return nil
	},
}

var versionsCmd = &cobra.Command{
	Use:     "versions <crate>",
	Short:   "List the published versions of a crate",
	Example: `  bookworm versions serde`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		versions, err := eng.Versions(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, v := range versions {
			yanked := ""
			if v.Yanked {
				yanked = "  [yanked]"
			}
			fmt.Printf("  %-16s %s  (%d downloads)%s\n", v.Num, v.CreatedAt, v.Downloads, yanked)
		}
		return nil
	},
}

var readmeCmd = &cobra.Command{
	Use:   "readme <crate[@version]>",
	Short: "Print a crate's readme as markdown",
	Example: `  bookworm readme serde
  bookworm readme serde@1.0.0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, version, _ := strings.Cut(args[0], "@")

		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		html, err := eng.Readme(cmd.Context(), name, version)
		if err != nil {
			return err
		}

		md, err := markdown.NewConverter().Convert(html)
		if err != nil {
			return err
		}

		fmt.Println(md)
		return nil
	},
}

func init() {
	searchCratesCmd.Flags().IntVar(&searchCratesLimit, "limit", 10, "max results")
}

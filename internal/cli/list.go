package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/temporal-kv/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keys with their latest values",
		Run:   runList,
	}

	cmd.Flags().StringP("query", "q", "", "Only keys whose name contains this substring")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("keys-only", false, "Only output key names")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.Search(cmd.Context(), store.SearchParams{Query: query, Limit: limit})
	if err != nil {
		exitErr("list", err)
	}

	out := cmd.OutOrStdout()
	if keysOnly {
		for _, e := range entries {
			fmt.Fprintln(out, e.Key)
		}
		return
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Fprintln(out, string(b))
}

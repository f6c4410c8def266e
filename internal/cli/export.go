package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as JSON",
		Long:  "Export every recorded value with its timestamp. Filter by key prefix with -p.",
		Run:   runExport,
	}

	cmd.Flags().StringP("prefix", "p", "", "Filter by key name prefix")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	prefix, _ := cmd.Flags().GetString("prefix")

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.ExportAll(cmd.Context(), prefix)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

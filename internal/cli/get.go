package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Read a key's value",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Int64P("at", "t", 0, "Read the value as of this unix timestamp (seconds)")
	cmd.Flags().Bool("history", false, "Return all versions (newest first)")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	key := args[0]
	history, _ := cmd.Flags().GetBool("history")

	var asOf *int64
	if cmd.Flags().Changed("at") {
		at, _ := cmd.Flags().GetInt64("at")
		asOf = &at
	}

	a := openApp()
	defer a.Close()

	out := cmd.OutOrStdout()
	if history {
		hist, err := a.svc.History(cmd.Context(), key)
		if err != nil {
			exitErr("get", err)
		}
		if formatFlag == "text" {
			for _, h := range hist {
				fmt.Fprintf(out, "%d\t%s\n", h.Timestamp.Unix(), h.Value)
			}
			return
		}
		b, _ := json.MarshalIndent(hist, "", "  ")
		fmt.Fprintln(out, string(b))
		return
	}

	res, err := a.svc.Read(cmd.Context(), key, asOf)
	if err != nil {
		exitErr("get", err)
	}
	if formatFlag == "text" {
		fmt.Fprintln(out, res.Value)
		return
	}
	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Fprintln(out, string(b))
}

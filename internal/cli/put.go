package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rcliao/temporal-kv/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put KEY [VALUE]",
		Short: "Record a new value for a key",
		Long:  "Record a new value for a key. VALUE is parsed as JSON; anything else is stored as a JSON string. VALUE may be piped via stdin.",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runPut,
	}

	cmd.Flags().Bool("raw", false, "Store VALUE as a string without JSON parsing")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	raw, _ := cmd.Flags().GetBool("raw")
	key := args[0]

	// Get value: positional arg first, then check stdin
	var input string
	if len(args) > 1 {
		input = args[1]
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			input = strings.TrimSpace(string(b))
		}
	}

	if input == "" {
		exitErr("put", fmt.Errorf("value is required (positional arg or stdin)"))
	}

	value, err := parseValue(input, raw)
	if err != nil {
		exitErr("put", err)
	}

	a := openApp()
	defer a.Close()

	res, err := a.svc.Write(cmd.Context(), key, value)
	if err != nil {
		exitErr("put", err)
	}

	b, _ := json.Marshal(res)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// parseValue reads s as JSON, falling back to a JSON string.
func parseValue(s string, raw bool) (model.Value, error) {
	if !raw {
		if v, err := model.NewValue([]byte(s)); err == nil {
			return v, nil
		}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return model.Value(b), nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newActionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Execute and inspect action runs",
	}
	cmd.AddCommand(newActionsRunCmd(), newActionsLogCmd())
	return cmd
}

func newActionsRunCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an action sequence",
		Long:  "Reads an action payload (raw steps or an assistant response) from a file or stdin and executes it on the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActionsRun(cmd, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Payload file, or - for stdin")

	return cmd
}

func runActionsRun(cmd *cobra.Command, file string) error {
	var raw []byte
	var err error
	if file == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	var out map[string]any
	if err := newClient().do(cmd.Context(), "POST", "/api/v1/actions/execute", body, &out); err != nil {
		return err
	}
	return printJSON(out)
}

func newActionsLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent action runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/actions/log?limit=%d", limit)
			var out map[string]any
			if err := newClient().do(cmd.Context(), "GET", path, nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to show")

	return cmd
}

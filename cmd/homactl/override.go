package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newOverrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual fact overrides",
	}
	cmd.AddCommand(
		newOverrideSetCmd(),
		newOverrideRmCmd(),
		newOverrideLsCmd(),
	)
	return cmd
}

func newOverrideSetCmd() *cobra.Command {
	var (
		reason string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a manual override",
		Long:  "Sets a manual override for a fact key. The value is parsed as JSON when possible, otherwise stored as a string.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideSet(cmd, args[0], args[1], reason, actor)
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason for the override (required)")
	cmd.Flags().StringVarP(&actor, "actor", "a", "", "Operator identifier for the audit trail")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func runOverrideSet(cmd *cobra.Command, key, rawValue, reason, actor string) error {
	// Numbers, booleans, and JSON structures pass through typed; anything
	// that does not parse as JSON is stored as a plain string.
	var value any
	if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
		value = rawValue
	}

	body := map[string]any{
		"key":      key,
		"value":    value,
		"reason":   reason,
		"actor_id": actor,
	}

	var out map[string]any
	if err := newClient().do(cmd.Context(), "POST", "/api/v1/overrides", body, &out); err != nil {
		return err
	}
	fmt.Printf("Override set: %s\n", key)
	return nil
}

func newOverrideRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a manual override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/overrides/" + url.PathEscape(args[0])
			if err := newClient().do(cmd.Context(), "DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Printf("Override removed: %s\n", args[0])
			return nil
		},
	}
}

func newOverrideLsCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/overrides"
			if activeOnly {
				path += "?active=true"
			}
			var out map[string]any
			if err := newClient().do(cmd.Context(), "GET", path, nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Show only active overrides")

	return cmd
}

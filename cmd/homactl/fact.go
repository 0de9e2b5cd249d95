package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newFactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fact",
		Short: "Query facts through the authority ladder",
	}
	cmd.AddCommand(newFactGetCmd())
	return cmd
}

func newFactGetCmd() *cobra.Command {
	var factCtx []string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Resolve a fact key",
		Long:  "Resolves a fact key through the authority ladder and prints the winning value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactGet(cmd, args[0], factCtx)
		},
	}

	cmd.Flags().StringArrayVarP(&factCtx, "context", "c", nil, "Fact context as key=value pairs (repeatable)")

	return cmd
}

func runFactGet(cmd *cobra.Command, key string, factCtx []string) error {
	query := url.Values{}
	for _, pair := range factCtx {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid context pair %q, expected key=value", pair)
		}
		query.Set(k, v)
	}

	path := "/api/v1/facts/" + url.PathEscape(key)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out map[string]any
	if err := newClient().do(cmd.Context(), "GET", path, nil, &out); err != nil {
		return err
	}
	return printJSON(out)
}

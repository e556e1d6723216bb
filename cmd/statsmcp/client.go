package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/statsmcp/internal/client"
)

const envKeyToken = "STATSMCP_TOKEN"

var errToolFailed = errors.New("tool call failed")

type clientFlags struct {
	server    string
	transport string
	token     string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.server, "server", client.DefaultServerURL, "server base URL or MCP endpoint")
	flags.StringVar(&f.transport, "transport", client.TransportSSE, "MCP transport (sse|streamable)")
	flags.StringVar(&f.token, "token", os.Getenv(envKeyToken), "bearer token sent with every request (default: $"+envKeyToken+")")
}

func (f *clientFlags) newClient() *client.Client {
	return client.New(client.Options{ServerURL: f.server, Transport: f.transport, Token: f.token})
}

func newToolsCmd() *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools of a running server",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := f.newClient()
			defer c.Close() //nolint:errcheck

			tools, err := c.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			return client.RenderTools(cmd.OutOrStdout(), tools)
		},
	}
	f.register(cmd)
	return cmd
}

func newCallCmd() *cobra.Command {
	var (
		f       clientFlags
		rawArgs string
	)
	cmd := &cobra.Command{
		Use:   "call <tool> [key=value...]",
		Short: "Call a tool on a running server",
		Example: `  statsmcp call summarize_dataset
  statsmcp call compute_mean column=revenue
  statsmcp call get_stock_price --args '{"symbol": "IBM"}'`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseCallArgs(args[1:], rawArgs)
			if err != nil {
				return usageError{err}
			}

			c := f.newClient()
			defer c.Close() //nolint:errcheck

			res, err := c.Invoke(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}
			if err := client.RenderResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.IsError {
				return fmt.Errorf("%w: %s", errToolFailed, args[0])
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&rawArgs, "args", "", "arguments as a JSON object; malformed JSON is repaired when possible")
	return cmd
}

// parseCallArgs merges --args JSON with key=value pairs; pairs win.
func parseCallArgs(pairs []string, raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			repaired, repairErr := jsonrepair.JSONRepair(raw)
			if repairErr != nil {
				return nil, fmt.Errorf("--args: %v", err)
			}
			args = map[string]any{}
			if err := json.Unmarshal([]byte(repaired), &args); err != nil {
				return nil, fmt.Errorf("--args: not a JSON object: %v", err)
			}
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q: want key=value", p)
		}
		args[key] = value
	}
	return args, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tphummel/server_inventory/internal/apiclient"
	"github.com/tphummel/server_inventory/internal/models"
)

const defaultEndpoint = "http://localhost:4000"

type cli struct {
	out      io.Writer
	endpoint string
	timeout  time.Duration
}

func (c *cli) client() *apiclient.Client {
	return apiclient.NewClient(c.endpoint)
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	endpoint := os.Getenv("INVENTORY_API")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	root := &cobra.Command{
		Use:           "invctl",
		Short:         "Server inventory command line client",
		Long:          "Query and maintain server inventory records through the server_inventory HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.endpoint, "endpoint", endpoint, "API base URL (env INVENTORY_API)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.deleteCmd(),
	)
	return root
}

func (c *cli) listCmd() *cobra.Command {
	var (
		search  string
		filters = map[string]*string{}
		page    int
		limit   int
		sortBy  string
		sortDir string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if search != "" {
				q.Set("q", search)
			}
			for param, v := range filters {
				if *v != "" {
					q.Set(param, *v)
				}
			}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if sortBy != "" {
				q.Set("sortBy", sortBy)
			}
			if sortDir != "" {
				q.Set("sortDir", sortDir)
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			result, err := c.client().ListServers(ctx, q)
			if err != nil {
				return fmt.Errorf("list servers: %w", err)
			}
			switch output {
			case "json":
				return c.printJSON(result)
			case "table":
				c.printTable(result)
				return nil
			}
			return fmt.Errorf("unknown output format %q", output)
		},
	}
	cmd.Flags().StringVar(&search, "q", "", "Search server name, IP address and application name")
	for _, f := range models.FilterColumns {
		filters[f.Param] = cmd.Flags().String(f.Param, "", fmt.Sprintf("Filter on %s (%s matches everything)", f.Column, models.FilterAll))
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number (default 1)")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("Page size, at most %d (default %d)", models.MaxLimit, models.DefaultLimit))
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "Sort column: server_name, ip_address, application_name, status, power_state")
	cmd.Flags().StringVar(&sortDir, "sort-dir", "", "Sort direction: asc or desc")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or table")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (c *cli) printTable(p *models.ServerPage) {
	fmt.Fprintf(c.out, "%-36s %-20s %-16s %-10s %-6s %-16s %s\n", "ID", "Server Name", "IP Address", "Location", "Env", "Status", "Power")
	fmt.Fprintln(c.out, strings.Repeat("-", 120))
	for _, s := range p.Items {
		fmt.Fprintf(c.out, "%-36s %-20s %-16s %-10s %-6s %-16s %s\n",
			s.ID,
			deref(s.ServerName),
			deref(s.IPAddress),
			deref(s.Location),
			deref(s.SystemEnvironment),
			deref(s.Status),
			deref(s.PowerState),
		)
	}
	fmt.Fprintf(c.out, "\nPage %d of %d, %d servers\n", p.Meta.Page, p.Meta.TotalPages, p.Meta.TotalItems)
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			s, err := c.client().GetServer(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get server: %w", err)
			}
			if s == nil {
				return fmt.Errorf("server %q not found", args[0])
			}
			return c.printJSON(s)
		},
	}
}

// parseAssignments turns --set col=value and --null col flags into a request
// body, rejecting columns outside allowed.
func parseAssignments(sets, nulls []string, allowed map[string]bool) (map[string]any, error) {
	body := map[string]any{}
	for _, s := range sets {
		col, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected column=value", s)
		}
		if !allowed[col] {
			return nil, fmt.Errorf("--set %q: unknown or read-only column %q", s, col)
		}
		body[col] = value
	}
	for _, col := range nulls {
		if !allowed[col] {
			return nil, fmt.Errorf("--null %q: unknown or read-only column", col)
		}
		if _, dup := body[col]; dup {
			return nil, fmt.Errorf("column %q is both set and nulled", col)
		}
		body[col] = nil
	}
	return body, nil
}

func (c *cli) createCmd() *cobra.Command {
	var (
		id    string
		sets  []string
		nulls []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a server",
		Long:  "Create a server. server_name and ip_address are required; the id defaults to a new UUID.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseAssignments(sets, nulls, models.UpdatableColumns)
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			body["id"] = id

			ctx, cancel := c.context(cmd)
			defer cancel()
			s, err := c.client().CreateServer(ctx, body)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			return c.printJSON(s)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Server id (default: a new UUID)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set column=value (repeatable)")
	cmd.Flags().StringArrayVar(&nulls, "null", nil, "Leave column empty (repeatable)")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var (
		sets  []string
		nulls []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update columns of a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseAssignments(sets, nulls, models.UpdatableColumns)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update: pass --set or --null")
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			s, err := c.client().UpdateServer(ctx, args[0], body)
			if err != nil {
				return fmt.Errorf("update server: %w", err)
			}
			return c.printJSON(s)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set column=value (repeatable)")
	cmd.Flags().StringArrayVar(&nulls, "null", nil, "Clear column (repeatable)")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			if err := c.client().DeleteServer(ctx, args[0]); err != nil {
				return fmt.Errorf("delete server: %w", err)
			}
			fmt.Fprintf(c.out, "deleted %s\n", args[0])
			return nil
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/devops-tools-api/internal/client"
	"github.com/olgasafonova/devops-tools-api/internal/store"
)

const defaultAPIURL = "http://localhost:8000"

type clientOptions struct {
	url     string
	timeout time.Duration
}

func newClientCommand() *cobra.Command {
	opts := clientOptions{url: defaultAPIURL, timeout: client.DefaultTimeout}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Call a running DevOps Tools API",
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", opts.url, "base URL of the API")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-command timeout")

	cmd.AddCommand(
		newClientHealthCmd(&opts),
		newClientListCmd(&opts),
		newClientGetCmd(&opts),
		newClientCreateCmd(&opts),
		newClientUpdateCmd(&opts),
		newClientDeleteCmd(&opts),
	)
	return cmd
}

func (o *clientOptions) build(cmd *cobra.Command) (*client.Client, error) {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	return client.New(o.url, client.WithLogger(logger))
}

func newClientHealthCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts.timeout)
			defer cancel()
			status, err := c.Health(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newClientListCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts.timeout)
			defer cancel()
			records, err := c.List(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
}

func newClientGetCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a tool by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts.timeout)
			defer cancel()
			rec, err := c.Get(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

// toolFlags holds the fields shared by create and update.
type toolFlags struct {
	name        string
	description string
	category    string
	openSource  bool
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "tool name (required)")
	cmd.Flags().StringVar(&f.description, "description", "", "tool description")
	cmd.Flags().StringVar(&f.category, "category", "", "tool category (required)")
	cmd.Flags().BoolVar(&f.openSource, "open-source", false, "mark the tool as open source")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
}

// tool builds the payload; an unset --description is sent as null.
func (f *toolFlags) tool(cmd *cobra.Command) store.Tool {
	t := store.Tool{Name: f.name, Category: f.category, IsOpenSource: f.openSource}
	if cmd.Flags().Changed("description") {
		t.Description = store.StringPtr(f.description)
	}
	return t
}

func newClientCreateCmd(opts *clientOptions) *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts.timeout)
			defer cancel()
			rec, err := c.Create(ctx, flags.tool(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	flags.register(cmd)
	return cmd
}

func newClientUpdateCmd(opts *clientOptions) *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a tool's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts.timeout)
			defer cancel()
			rec, err := c.Update(ctx, id, flags.tool(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	flags.register(cmd)
	return cmd
}

func newClientDeleteCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts.timeout)
			defer cancel()
			msg, err := c.Delete(ctx, id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}
}

func withTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid tool ID %q: must be an integer", raw)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/pointledger/internal/adapter/http/dto"
)

var (
	baseURL string
	timeout time.Duration
	rawJSON bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pointctl",
		Short:         "pointledger CLI tool",
		Long:          `A command line interface for interacting with the pointledger API.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the pointledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&rawJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(balanceCmd(), historyCmd(), mutateCmd("charge", "Credit points to an account"), mutateCmd("use", "Debit points from an account"))

	return rootCmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var balance dto.BalanceResponse
			if err := call(cmd.Context(), http.MethodGet, fmt.Sprintf("/point/%d", id), "", &balance); err != nil {
				return err
			}

			return printBalance(cmd.OutOrStdout(), &balance)
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <account-id>",
		Short: "List the charge/use history of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var entries []dto.HistoryResponse
			if err := call(cmd.Context(), http.MethodGet, fmt.Sprintf("/point/%d/histories", id), "", &entries); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rawJSON {
				return printJSON(out, entries)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tAMOUNT\tOPERATION\tOCCURRED AT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", e.ID, e.Kind, e.Amount, truncate(e.OperationID, 12), e.OccurredAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func mutateCmd(action, short string) *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   action + " <account-id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			var balance dto.BalanceResponse
			path := fmt.Sprintf("/point/%d/%s", id, action)
			body := fmt.Sprintf(`{"amount":%d}`, amount)
			if err := callWithKey(cmd.Context(), http.MethodPatch, path, body, idempotencyKey, &balance); err != nil {
				return err
			}

			return printBalance(cmd.OutOrStdout(), &balance)
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header to send")

	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q: %w", arg, err)
	}
	return id, nil
}

func call(ctx context.Context, method, path, body string, out any) error {
	return callWithKey(ctx, method, path, body, "", out)
}

func callWithKey(ctx context.Context, method, path, body, idempotencyKey string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s: %s (%s)", apiErr.Code, apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func printBalance(w io.Writer, b *dto.BalanceResponse) error {
	if rawJSON {
		return printJSON(w, b)
	}
	_, err := fmt.Fprintf(w, "account %d: %d points (updated %s)\n", b.AccountID, b.Balance, b.UpdatedAt.Format(time.RFC3339))
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

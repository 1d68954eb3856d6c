package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zoobzio/ponder"
	"go.uber.org/zap"
)

var (
	peekCount   int
	peekLenient bool
)

var peekCmd = &cobra.Command{
	Use:   "peek [query]",
	Short: "Retrieve passages from the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPeek,
}

func init() {
	peekCmd.Flags().IntVarP(&peekCount, "count", "n", ponder.DefaultPeekCount, "Number of passages to request")
	peekCmd.Flags().BoolVar(&peekLenient, "lenient", false, "Print an empty list instead of failing when retrieval errors")
}

func runPeek(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	texts, err := peekTexts(cmd.Context(), cfg, query, peekCount)
	if err != nil {
		if !peekLenient {
			return err
		}
		logger.Warn("retrieval failed", zap.String("query", query), zap.Error(err))
		texts = nil
	}
	if texts == nil {
		texts = []string{}
	}

	return printJSON(cmd, texts)
}

// peekTexts opens the index and runs one retrieval.
func peekTexts(ctx context.Context, c *Config, query string, count int) ([]string, error) {
	db, index, err := openIndex(c)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return ponder.NewRetriever(index).WithResultCount(count).Peek(ctx, query)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

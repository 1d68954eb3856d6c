package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zoobzio/ponder"
)

var reduceTask string

var reduceCmd = &cobra.Command{
	Use:   "reduce [files...]",
	Short: "Summarize chunks with map-reduce",
	Long: `Summarize each chunk independently against a task, then synthesize
the summaries into one result. Each file is one chunk. Without files,
stdin is read and split on blank lines.`,
	RunE: runReduce,
}

func init() {
	reduceCmd.Flags().StringVarP(&reduceTask, "task", "t", "", "Task each chunk is summarized for")
	_ = reduceCmd.MarkFlagRequired("task")
}

func runReduce(cmd *cobra.Command, args []string) error {
	chunks, err := readChunks(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	reducer := ponder.NewReducer(
		ponder.WithReaderModel(readerModel(cfg)),
		ponder.WithConcurrency(cfg.Reduce.Concurrency),
	)

	summary, err := reducer.Reduce(cmd.Context(), reduceTask, chunks)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}

// readChunks reads one chunk per file, or blank-line separated chunks from r
// when no files are given. Empty chunks are dropped.
func readChunks(r io.Reader, files []string) ([]string, error) {
	var chunks []string
	if len(files) > 0 {
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			if text := strings.TrimSpace(string(data)); text != "" {
				chunks = append(chunks, text)
			}
		}
		return chunks, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, part := range strings.Split(normalized, "\n\n") {
		if text := strings.TrimSpace(part); text != "" {
			chunks = append(chunks, text)
		}
	}
	return chunks, nil
}

// Command ponder runs the bounded retrieval reasoning agent from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/zoobzio/ponder"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Global state
	logger *zap.Logger
	cfg    *Config
	detach func()
)

var rootCmd = &cobra.Command{
	Use:   "ponder",
	Short: "ponder - bounded retrieval reasoning over a passage index",
	Long: `ponder answers questions by letting a controller model issue
PEEK, SET, DELETE and ANSWER commands against a working memory, with
retrieval from a PostgreSQL passage index.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}

		detach = bridgeSignals(logger)
		ponder.SetProvider(newProvider(cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if detach != nil {
			detach()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ponder.yaml", "Path to config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(peekCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newProvider builds the chat provider for the controller model.
func newProvider(c *Config) *ponder.OpenAIProvider {
	return ponder.NewOpenAIProvider(c.LLM.APIKey, c.LLM.ControllerModel, ponder.WithBaseURL(c.LLM.BaseURL))
}

// newEmbedder builds the embedder for the passage index. Unset endpoint
// fields fall back to the chat endpoint.
func newEmbedder(c *Config) *ponder.OpenAIEmbedder {
	baseURL := c.Embedding.BaseURL
	if baseURL == "" {
		baseURL = c.LLM.BaseURL
	}
	apiKey := c.Embedding.APIKey
	if apiKey == "" {
		apiKey = c.LLM.APIKey
	}
	return ponder.NewOpenAIEmbedder(apiKey, ponder.WithBaseURL(baseURL)).
		WithModel(c.Embedding.Model, c.Embedding.Dimensions)
}

// readerModel returns the summarization model.
func readerModel(c *Config) ponder.LanguageModel {
	p := ponder.NewOpenAIProvider(c.LLM.APIKey, c.LLM.readerModel(), ponder.WithBaseURL(c.LLM.BaseURL))
	return ponder.NewProviderModel(p, ponder.DefaultReaderTemperature)
}

// openIndex connects to the configured database and returns the passage
// index. The caller closes the returned database.
func openIndex(c *Config) (*sqlx.DB, *ponder.SoyIndex, error) {
	if c.Database.URL == "" {
		return nil, nil, fmt.Errorf("database.url is not configured")
	}
	db, err := sqlx.Connect("postgres", c.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	index, err := ponder.NewSoyIndex(db, newEmbedder(c))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, index, nil
}

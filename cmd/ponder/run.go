package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/zoobzio/ponder"
	"go.uber.org/zap"
)

var (
	runSession     string
	runMaxSteps    int
	runShowContext bool
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Answer a query with the reasoning loop",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "Resume and persist working memory under this session ID")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "Override the configured step budget")
	runCmd.Flags().BoolVar(&runShowContext, "show-context", false, "Print the final working memory")
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	opts, db, err := agentOptions(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	if runMaxSteps > 0 {
		opts = append(opts, ponder.WithMaxSteps(runMaxSteps))
	}

	agent := ponder.NewAgent(opts...)

	var res ponder.Result
	if runSession != "" {
		res, err = agent.RunSession(cmd.Context(), runSession, query)
	} else {
		res, err = agent.Run(cmd.Context(), query)
	}

	logger.Info("run finished",
		zap.String("run_id", res.RunID),
		zap.String("state", res.State.String()),
		zap.Int("steps", res.Steps),
		zap.Int("peeks", res.Peeks),
		zap.Int("tokens", res.Usage.Total),
		zap.Duration("duration", res.Duration),
	)

	out := cmd.OutOrStdout()
	if runShowContext && res.Context != nil {
		fmt.Fprintln(out, res.Context.Snapshot())
		fmt.Fprintln(out)
	}

	switch {
	case err == nil:
		fmt.Fprintln(out, res.Answer)
		return nil
	case errors.Is(err, ponder.ErrStepBudgetExhausted):
		return fmt.Errorf("no answer after %d steps", res.Steps)
	default:
		return err
	}
}

// agentOptions assembles agent options from configuration. When a database
// is configured the returned DB backs both retrieval and session memory.
func agentOptions(c *Config) ([]ponder.AgentOption, *sqlx.DB, error) {
	controller := ponder.NewProviderModel(newProvider(c), ponder.DefaultControllerTemperature)

	opts := []ponder.AgentOption{
		ponder.WithController(controller),
		ponder.WithReader(readerModel(c)),
		ponder.WithMaxSteps(c.Agent.MaxSteps),
		ponder.WithMaxStepFailures(c.Agent.MaxStepFailures),
	}
	if c.Agent.Backoff > 0 {
		opts = append(opts, ponder.WithControllerBackoff(c.Agent.Attempts, c.Agent.Backoff))
	} else {
		opts = append(opts, ponder.WithControllerRetry(c.Agent.Attempts))
	}

	if c.Database.URL == "" {
		if runSession != "" {
			return nil, nil, fmt.Errorf("sessions require database.url")
		}
		logger.Warn("no database configured, PEEK will fail")
		return opts, nil, nil
	}

	db, index, err := openIndex(c)
	if err != nil {
		return nil, nil, err
	}
	memory, err := ponder.NewSoyMemory(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	retriever := ponder.NewRetriever(index).WithResultCount(c.Agent.PeekCount)
	opts = append(opts,
		ponder.WithRetriever(retriever),
		ponder.WithSessionMemory(memory),
	)
	return opts, db, nil
}

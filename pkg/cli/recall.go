package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/usecase/recall"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func recallCommand() *cli.Command {
	var (
		cfg       config
		query     string
		sessionID model.SessionID
		userID    model.UserID
		emotions  []string
		asJSON    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Query text to recall memories for",
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Active session ID",
			Sources:     cli.EnvVars("MNEMO_SESSION_ID"),
			Destination: (*string)(&sessionID),
		},
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "Owner of the memories",
			Sources:     cli.EnvVars("MNEMO_USER_ID"),
			Destination: (*string)(&userID),
			Required:    true,
		},
		&cli.StringSliceFlag{
			Name:        "emotion",
			Usage:       "Restrict results to these emotions",
			Destination: &emotions,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Emit the full result as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "recall",
		Usage:     "Recall the most relevant memories for a query",
		ArgsUsage: "[query]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if query == "" {
				query = strings.Join(c.Args().Slice(), " ")
			}
			if query == "" {
				return goerr.New("query is required")
			}

			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer()
			}

			result, err := uc.Recall(ctx, recall.Input{
				Query:         query,
				SessionID:     sessionID,
				UserID:        userID,
				EmotionFilter: emotions,
			})
			if err != nil {
				return goerr.Wrap(err, "recall failed")
			}

			if asJSON {
				enc := json.NewEncoder(c.Root().Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printResult(c, result)
			return nil
		},
	}
}

func printResult(c *cli.Command, result *model.RecallResult) {
	w := c.Root().Writer

	if result.Advisory != "" {
		fmt.Fprintf(w, "%s\n", result.Advisory)
		return
	}

	for i, m := range result.Memories {
		fmt.Fprintf(w, "%2d. [%.3f] %s (%s)\n", i+1, m.Score, m.Record.Content, strings.Join(m.Sources, ","))
	}

	if len(result.Clusters) > 0 {
		fmt.Fprintf(w, "\nClusters:\n")
		for _, cl := range result.Clusters {
			fmt.Fprintf(w, "  %s: %d memories", cl.Period, len(cl.Members))
			if cl.Theme != "" {
				fmt.Fprintf(w, ", theme %q", cl.Theme)
			}
			if cl.DominantEmotion != "" {
				fmt.Fprintf(w, ", mostly %s", cl.DominantEmotion)
			}
			fmt.Fprintf(w, "\n")
		}
	}

	if len(result.Themes) > 0 {
		fmt.Fprintf(w, "\nThemes: %s\n", strings.Join(result.Themes, ", "))
	}

	if result.Synthesis != "" {
		fmt.Fprintf(w, "\n%s\n", result.Synthesis)
	}

	d := result.Diagnostics
	fmt.Fprintf(w, "\n%d selected of %d fused (tier=%s, streams with errors: %d, %s)\n",
		d.SelectedCount, d.FusedCount, d.Tier, d.StreamErrors, d.Elapsed)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/usecase/recall"
	"github.com/urfave/cli/v3"
)

func replCommand() *cli.Command {
	var (
		cfg       config
		sessionID model.SessionID
		userID    model.UserID
		limit     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID (a fresh one is generated when omitted)",
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
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum memories to print per query",
			Value:       10,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive recall loop against the configured store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if sessionID == "" {
				sessionID = model.SessionID(uuid.NewString())
			}

			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer()
			}

			rl, err := readline.New("mnemo> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Recall session %s. Type 'exit' to quit.\n", sessionID)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}

				query := strings.TrimSpace(line)
				if query == "" {
					continue
				}
				if query == "exit" || query == "quit" {
					break
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " recalling..."
				sp.Start()

				result, err := uc.Recall(ctx, recall.Input{
					Query:     query,
					SessionID: sessionID,
					UserID:    userID,
				})
				sp.Stop()

				if err != nil {
					fmt.Fprintf(c.Root().Writer, "error: %v\n", err)
					continue
				}

				printReplResult(c, result, int(limit))
			}

			return nil
		},
	}
}

func printReplResult(c *cli.Command, result *model.RecallResult, limit int) {
	w := c.Root().Writer

	if result.Advisory != "" {
		fmt.Fprintf(w, "%s\n", result.Advisory)
		return
	}
	if len(result.Memories) == 0 {
		fmt.Fprintf(w, "no memories matched\n")
		return
	}

	memories := result.Memories
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	for i, m := range memories {
		fmt.Fprintf(w, "%2d. [%.3f] %s\n", i+1, m.Score, m.Record.Content)
	}
	if result.Synthesis != "" {
		fmt.Fprintf(w, "-- %s\n", result.Synthesis)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "searchcli",
		Usage: "Run the TF-IDF search engine from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "Index a fixed document set and print searches, matches and rejections",
				Action: demoCommand,
			},
			{
				Name:      "run",
				Usage:     "Read stop words, documents and queries from stdin",
				ArgsUsage: " ",
				Action:    runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Status assigned to every document and required of results",
						Value: "ACTUAL",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of results per query",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "match",
						Usage: "Match each query against every document instead of ranking",
					},
					&cli.BoolFlag{
						Name:  "terms",
						Usage: "Print the inverted index after loading documents",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	logger.SetupWriter(c.App.ErrWriter, c.String("log-level"), "text")
	return nil
}

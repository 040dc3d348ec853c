// Command hardcover-metadata looks books up on Hardcover from the command line
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/RobBrazier/calibre-plugins/internal/config"
	"github.com/RobBrazier/calibre-plugins/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Get().Error("Error running application", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "hardcover-metadata",
		Usage:     "Identify books and fetch covers from Hardcover",
		Version:   fmt.Sprintf("%s (%s) %s", version, commit, date),
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE` if it exists",
				Value: ".env",
			},
			// -v belongs to the built-in --version flag
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "identify",
				Usage:     "Identify a book and print ranked matches",
				ArgsUsage: "[t:title] [a:authors] [i:type:value]...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print records as JSON"},
				},
				Action: identifyAction,
			},
			{
				Name:      "cover",
				Usage:     "Download the cover for a book",
				ArgsUsage: "[t:title] [a:authors] [i:type:value]...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Write the image to `FILE`",
						Required: true,
					},
				},
				Action: coverAction,
			},
			{
				Name:      "url",
				Usage:     "Print the Hardcover page for a slug",
				ArgsUsage: "i:hardcover:slug",
				Action:    urlAction,
			},
			{
				Name:  "batch",
				Usage: "Identify every row of a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "CSV `FILE` with title, authors, isbn, asin, hardcover columns",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write results to `FILE` instead of stdout",
					},
				},
				Action: batchAction,
			},
		},
	}
}

// setup loads the env file and configures logging before any command runs.
// The configured logger travels to the commands on c.Context.
func setup(c *cli.Context) error {
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := config.LoadUnvalidated(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.LoggerConfig()
	if c.Bool("verbose") {
		logCfg.Level = "debug"
	}
	logger.ForceSetup(logCfg)
	c.Context = logger.NewContext(c.Context, logger.Get().With(map[string]interface{}{
		"app": c.App.Name,
	}))
	return nil
}

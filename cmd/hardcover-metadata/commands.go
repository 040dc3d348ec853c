package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/RobBrazier/calibre-plugins/internal/api/hardcover"
	"github.com/RobBrazier/calibre-plugins/internal/cache"
	"github.com/RobBrazier/calibre-plugins/internal/config"
	"github.com/RobBrazier/calibre-plugins/internal/database"
	"github.com/RobBrazier/calibre-plugins/internal/identifier"
	"github.com/RobBrazier/calibre-plugins/internal/logger"
	"github.com/RobBrazier/calibre-plugins/internal/provider"
)

// buildProvider wires the client, cover cache and provider from config.
// The returned func releases the cover database, if one was opened.
func buildProvider(c *cli.Context) (*provider.Provider, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.FromContext(c.Context)
	client := hardcover.NewClientWithConfig(cfg.ClientConfig(), cfg.Hardcover.Token, log)

	covers := cache.NewMemoryCache[string, string](log)
	cleanup := func() {}

	if cfg.Cache.Path != "" {
		db, err := database.NewDatabase(cfg.Cache.Path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cover cache: %w", err)
		}
		repo := database.NewCoverRepository(db, log)
		if pruned, err := repo.Prune(); err == nil && pruned > 0 {
			log.Debug("Pruned expired cover cache entries", map[string]interface{}{"count": pruned})
		}
		covers = cache.Layered[string, string](covers, repo, cfg.Cache.CoverTTL)
		cleanup = func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close cover cache", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	p := provider.New(client, covers, log, provider.Options{
		Identifier: cfg.IdentifierOptions(),
		Workers:    cfg.Provider.Workers,
		CoverTTL:   cfg.Cache.CoverTTL,
	})
	return p, cleanup, nil
}

func identifyAction(c *cli.Context) error {
	q, err := parseQuery(c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	p, cleanup, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer cleanup()

	queue := &provider.Queue{}
	start := time.Now()
	if err := p.Identify(c.Context, q, queue); err != nil {
		return fmt.Errorf("identify failed: %w", err)
	}
	records := queue.Drain()

	logger.FromContext(c.Context).Info("Identify finished", map[string]interface{}{
		"results":  len(records),
		"duration": time.Since(start).String(),
	})
	return printRecords(c.App.Writer, records, p.IdentifierName(), c.Bool("json"))
}

func coverAction(c *cli.Context) error {
	q, err := parseQuery(c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	p, cleanup, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := p.DownloadCover(c.Context, q)
	if err != nil {
		return fmt.Errorf("cover download failed: %w", err)
	}

	output := c.String("output")
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d bytes to %s\n", len(data), output)
	return nil
}

func urlAction(c *cli.Context) error {
	q, err := parseQuery(c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	// no lookup happens, so no token is needed
	p := provider.New(nil, nil, logger.FromContext(c.Context), provider.Options{
		Identifier: identifier.Options{IdentifierName: identifier.DefaultIdentifierName},
	})
	_, _, url, ok := p.GetBookURL(q.Identifiers)
	if !ok {
		return cli.Exit("no hardcover identifier given, expected i:hardcover:<slug>", 2)
	}
	fmt.Fprintln(c.App.Writer, url)
	return nil
}

func batchAction(c *cli.Context) error {
	in, err := os.Open(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer in.Close()

	queries, err := readBatch(in)
	if err != nil {
		return err
	}

	p, cleanup, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := p.IdentifyBatch(c.Context, queries)
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	out := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeResults(out, toResultRows(results, p.IdentifierName()))
}

// Package provider exposes the resolver the way a library host consumes a
// metadata source: records pushed onto a sink by a bounded worker pool,
// book URLs, and cover lookup through a cache fed while records are built.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RobBrazier/calibre-plugins/internal/api/hardcover"
	"github.com/RobBrazier/calibre-plugins/internal/cache"
	"github.com/RobBrazier/calibre-plugins/internal/identifier"
	"github.com/RobBrazier/calibre-plugins/internal/logger"
	"github.com/RobBrazier/calibre-plugins/internal/metadata"
	"github.com/RobBrazier/calibre-plugins/internal/models"
)

const (
	// DefaultWorkers bounds concurrent record building and batch lookups
	DefaultWorkers = 4
	// DefaultCoverTTL is how long cover mappings stay cached
	DefaultCoverTTL = 30 * 24 * time.Hour
	// BookURLPrefix is prepended to a slug to build the public book page
	BookURLPrefix = "https://hardcover.app/books/"
)

var (
	// ErrNoCover is returned when no cover url could be found for a query
	ErrNoCover = errors.New("no cover found")
)

// Options configures a Provider
type Options struct {
	Identifier identifier.Options
	Workers    int
	CoverTTL   time.Duration
	HTTPClient *http.Client
}

// Provider ties the resolver, the metadata adapter and the cover cache together
type Provider struct {
	identifier *identifier.Identifier
	adapter    *metadata.Adapter
	covers     cache.Cache[string, string]
	httpClient *http.Client
	log        *logger.Logger
	name       string
	workers    int
	coverTTL   time.Duration
}

// New creates a Provider. A nil covers cache falls back to an in-memory one.
func New(client hardcover.Executor, covers cache.Cache[string, string], log *logger.Logger, opts Options) *Provider {
	if log == nil {
		log = logger.Get()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.CoverTTL <= 0 {
		opts.CoverTTL = DefaultCoverTTL
	}
	if covers == nil {
		covers = cache.NewMemoryCache[string, string](log)
	}

	id := identifier.New(client, log, opts.Identifier)
	name := id.Options().IdentifierName

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: id.Options().Timeout}
	}

	return &Provider{
		identifier: id,
		adapter:    metadata.NewAdapter(name, log),
		covers:     cache.WithTTL(covers, opts.CoverTTL),
		httpClient: httpClient,
		log:        log,
		name:       name,
		workers:    opts.Workers,
		coverTTL:   opts.CoverTTL,
	}
}

// IdentifierName is the identifier key the provider writes slugs under
func (p *Provider) IdentifierName() string {
	return p.name
}

// Identify resolves q and puts one record per result on sink. Cancelling
// ctx stops further records from being built; records already on the sink
// stay there.
func (p *Provider) Identify(ctx context.Context, q identifier.Query, sink Sink) error {
	books, err := p.identifier.Identify(ctx, q)
	if err != nil {
		return err
	}
	p.log.Info("Resolved candidates", map[string]interface{}{
		"title": q.Title,
		"count": len(books),
	})
	return p.enqueue(ctx, books, sink)
}

func (p *Provider) enqueue(ctx context.Context, books []models.Book, sink Sink) error {
	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	for idx, book := range books {
		if err := ctx.Err(); err != nil {
			p.log.Debug("Abort requested, not enqueueing remaining books", map[string]interface{}{
				"remaining": len(books) - idx,
			})
			break
		}

		g.Go(func() error {
			record, err := p.adapter.Build(book)
			if err != nil {
				p.log.Warn("Skipping book without edition", map[string]interface{}{"slug": book.Slug})
				return nil
			}
			record.Relevance = idx
			p.cacheCover(record)
			sink.Put(*record)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Provider) cacheCover(r *metadata.Record) {
	slug := r.Identifiers[p.name]
	if slug == "" {
		return
	}
	if isbn := r.Identifiers[metadata.KeyISBN]; isbn != "" {
		p.covers.Set(isbnKey(isbn), slug, p.coverTTL)
	}
	if r.HasCover {
		p.covers.Set(slugKey(slug), r.CoverURL, p.coverTTL)
	}
}

// BatchResult is the outcome of one query in IdentifyBatch
type BatchResult struct {
	Query   identifier.Query
	Records []metadata.Record
	Err     error
}

// IdentifyBatch resolves queries in parallel. Results keep the order of
// queries; a failing query records its error without stopping the others.
func (p *Provider) IdentifyBatch(ctx context.Context, queries []identifier.Query) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, q := range queries {
		results[i].Query = q
		if gctx.Err() != nil {
			results[i].Err = gctx.Err()
			continue
		}
		g.Go(func() error {
			queue := &Queue{}
			err := p.Identify(gctx, q, queue)
			results[i].Records = queue.Drain()
			results[i].Err = err
			if err != nil {
				p.log.Warn("Lookup failed", map[string]interface{}{
					"title": q.Title,
					"error": err.Error(),
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// GetBookURL returns the identifier type, value and public page for the
// slug in identifiers
func (p *Provider) GetBookURL(identifiers map[string]string) (idType, value, url string, ok bool) {
	slug := identifiers[p.name]
	if slug == "" {
		return "", "", "", false
	}
	return p.name, slug, BookURLPrefix + slug, true
}

// CachedCoverURL looks the cover up by slug, else by isbn through the
// isbn to slug mapping
func (p *Provider) CachedCoverURL(identifiers map[string]string) (string, bool) {
	slug := identifiers[p.name]
	if slug == "" {
		if isbn := identifiers[metadata.KeyISBN]; isbn != "" {
			slug, _ = p.covers.Get(isbnKey(isbn))
		}
	}
	if slug == "" {
		return "", false
	}
	return p.covers.Get(slugKey(slug))
}

// DownloadCover returns the cover image bytes for q. Without a cached url it
// runs Identify first and uses the best ranked result that has a cover.
func (p *Provider) DownloadCover(ctx context.Context, q identifier.Query) ([]byte, error) {
	url, ok := p.CachedCoverURL(q.Identifiers)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.log.Info("No cached cover found, running identify")

		queue := &Queue{}
		if err := p.Identify(ctx, q, queue); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range queue.Drain() {
			if url, ok = p.CachedCoverURL(r.Identifiers); ok {
				break
			}
		}
	}
	if !ok {
		return nil, ErrNoCover
	}

	return p.fetch(ctx, url)
}

func (p *Provider) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.identifier.Options().Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}

	p.log.Debug("Downloading cover", map[string]interface{}{"url": url})
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &hardcover.HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	return data, nil
}

func isbnKey(isbn string) string { return "isbn:" + isbn }
func slugKey(slug string) string { return "slug:" + slug }

// Package search runs batched yt-dlp catalog searches and caches the
// filtered results page by page.
package search

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// Videos shorter than this are treated as shorts and filtered out
	// unless the config says otherwise.
	MinDurationSeconds = 180

	// Upper bound on raw items ever requested for one query.
	SearchCeiling = 500
)

// Result is one parsed line of search output.
type Result struct {
	ID       string
	Title    string
	Duration string
	Channel  string
	Views    string
}

// NewResult builds a Result from raw line fields. The id must be non-empty.
func NewResult(title, duration, channel, views, id string) (Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}, fmt.Errorf("search result has empty id (title %q)", title)
	}
	return Result{
		ID:       id,
		Title:    title,
		Duration: duration,
		Channel:  channel,
		Views:    views,
	}, nil
}

// URL returns the watch URL for the result.
func (r Result) URL() string {
	return "https://www.youtube.com/watch?v=" + r.ID
}

// SafeTitle strips characters that are unsafe in file names.
func (r Result) SafeTitle() string {
	var b strings.Builder
	for _, c := range r.Title {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '_' || c == ' ' || c == '-':
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Runner invokes the external search command for one raw item range.
// start and end are 1-indexed and inclusive. It returns the raw stdout
// lines; a non-zero exit with no output is reported as an error with no
// lines.
type Runner interface {
	Fetch(ctx context.Context, query string, start, end int) ([]string, error)
}

// YtdlpRunner runs yt-dlp in flat-playlist mode.
type YtdlpRunner struct {
	Log *logrus.Logger
}

const printTemplate = "%(title)s|%(duration_string|N/A)s|%(channel|Unknown)s|%(view_count|0)s|%(id)s|%(duration|0)s"

func (r *YtdlpRunner) Fetch(ctx context.Context, query string, start, end int) ([]string, error) {
	searchID := fmt.Sprintf("ytsearch%d:%s", SearchCeiling, query)
	itemRange := fmt.Sprintf("%d:%d", start, end)

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--flat-playlist",
		"--no-warnings",
		"--playlist-items", itemRange,
		searchID,
		"--print", printTemplate,
	)

	out, err := cmd.Output()
	lines := splitLines(string(out))
	if err != nil && len(lines) == 0 {
		if r.Log != nil {
			r.Log.WithError(err).WithFields(logrus.Fields{
				"query": query,
				"range": itemRange,
			}).Warn("yt-dlp search failed")
		}
		return nil, fmt.Errorf("yt-dlp search failed: %w", err)
	}
	return lines, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Paginated is a lazily growing search cache: it fetches raw batches on
// demand and keeps every result that passed filtering, in upstream order.
// Safe for use from the session loop and its worker commands.
type Paginated struct {
	mu sync.Mutex

	query        string
	pageSize     int
	filterShorts bool

	results []Result
	// Raw items already consumed, as a 1-indexed high-water mark.
	rawCursor int
	exhausted bool
	// Bumped by Reset so a batch fetched under an old query is
	// discarded when it lands.
	gen int

	runner Runner
	log    *logrus.Logger
}

// NewPaginated creates a cache for query. pageSize must be positive.
func NewPaginated(query string, pageSize int, filterShorts bool, runner Runner, log *logrus.Logger) *Paginated {
	if pageSize <= 0 {
		pageSize = 1
	}
	if log == nil {
		log = logrus.New()
	}
	return &Paginated{
		query:        query,
		pageSize:     pageSize,
		filterShorts: filterShorts,
		runner:       runner,
		log:          log,
	}
}

// Reset discards everything cached and starts over with a new query.
func (p *Paginated) Reset(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
	p.results = nil
	p.rawCursor = 0
	p.exhausted = false
	p.gen++
}

// Query returns the query the cache is currently serving.
func (p *Paginated) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// Exhausted reports whether upstream has no more items for this query.
func (p *Paginated) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Results returns a copy of every result cached so far.
func (p *Paginated) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

// Len returns the number of cached results.
func (p *Paginated) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}

// EnsurePage fetches batches until page (0-indexed) is fully backed by
// cached results or the cache is exhausted. It returns the number of
// results available afterwards.
func (p *Paginated) EnsurePage(ctx context.Context, page int) (int, error) {
	needed := (page + 1) * p.PageSize()
	for {
		p.mu.Lock()
		have := len(p.results)
		done := have >= needed || p.exhausted
		p.mu.Unlock()
		if done {
			return have, nil
		}
		if err := ctx.Err(); err != nil {
			return have, err
		}
		if err := p.fetchBatch(ctx); err != nil {
			return p.Len(), err
		}
	}
}

// PageSize returns the configured page size.
func (p *Paginated) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

// fetchBatch pulls one raw range from the runner and appends whatever
// survives parsing and filtering.
func (p *Paginated) fetchBatch(ctx context.Context) error {
	p.mu.Lock()
	// Filtering discards a large share of raw items, so pull a bigger
	// raw batch to fill a page in fewer command invocations.
	rawBatch := p.pageSize
	if p.filterShorts {
		rawBatch = p.pageSize * 3
	}
	start := p.rawCursor + 1
	end := p.rawCursor + rawBatch
	if end > SearchCeiling {
		end = SearchCeiling
	}
	if start > SearchCeiling {
		p.exhausted = true
		p.mu.Unlock()
		return nil
	}
	query := p.query
	gen := p.gen
	firstBatch := p.rawCursor == 0
	p.mu.Unlock()

	lines, err := p.runner.Fetch(ctx, query, start, end)
	if err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen != gen {
			// Reset happened while the batch was in flight.
			return nil
		}
		if firstBatch {
			// Nothing cached yet: an empty result set, not a crash.
			p.exhausted = true
			p.log.WithError(err).WithField("query", query).Warn("search returned no results")
			return nil
		}
		// Partial results exist and stay usable.
		p.exhausted = true
		p.log.WithError(err).WithField("query", query).Warn("search batch failed, marking exhausted")
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		// Reset happened while the batch was in flight; these lines
		// belong to the old query.
		return nil
	}

	rawCount := 0
	for _, line := range lines {
		rawCount++
		res, secs, ok := parseLine(line)
		if !ok {
			continue
		}
		if p.filterShorts && secs < MinDurationSeconds {
			continue
		}
		p.results = append(p.results, res)
	}

	p.rawCursor = end

	// Fewer raw lines than requested, or the ceiling reached: nothing left.
	if rawCount < end-start+1 || end >= SearchCeiling {
		p.exhausted = true
	}

	p.log.WithFields(logrus.Fields{
		"query":     query,
		"range":     fmt.Sprintf("%d:%d", start, end),
		"raw":       rawCount,
		"cached":    len(p.results),
		"exhausted": p.exhausted,
	}).Debug("search batch done")

	return nil
}

// parseLine splits one pipe-delimited output line. Malformed lines are
// dropped rather than failing the batch.
func parseLine(line string) (Result, float64, bool) {
	parts := strings.SplitN(line, "|", 6)
	if len(parts) < 6 {
		return Result{}, 0, false
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
	if err != nil {
		secs = 0
	}
	res, err := NewResult(parts[0], parts[1], parts[2], parts[3], parts[4])
	if err != nil {
		return Result{}, 0, false
	}
	return res, secs, true
}

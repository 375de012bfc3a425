package lang

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/minipy/log"
)

// parseCache maps the xxh3 hash of a source text to its parsed program.
// Programs are immutable once parsed, so one entry may be shared by any
// number of interpreters.
var parseCache sync.Map // map[uint64]*cacheEntry

type cacheEntry struct {
	once sync.Once
	src  string
	prog *Program
	err  error
}

func (e *cacheEntry) load() (*Program, error) {
	e.once.Do(func() { e.prog, e.err = parse(e.src) })

	return e.prog, e.err
}

// parseCached parses src, reusing the result of any earlier parse of the
// same text.
func parseCached(
	ctx context.Context,
	src string,
	logger log.Logger,
) (*Program, error) {
	key := xxh3.HashString(src)

	v, loaded := parseCache.LoadOrStore(key, &cacheEntry{src: src})
	entry, _ := v.(*cacheEntry)

	if entry.src != src {
		// Hash collision; parse without displacing the cached program.
		logger.DebugContext(ctx, "cache collision", slog.Uint64("key", key))

		entry = &cacheEntry{src: src}
		loaded = false
	}

	prog, err := entry.load()

	logger.TraceContext(ctx, "cache lookup",
		slog.Uint64("key", key),
		slog.Bool("hit", loaded),
		slog.Int("source_bytes", len(src)),
	)

	return prog, err
}

// ParseReader reads a program from r and parses it through the parse cache.
// A failure to read is reported as [ErrReadInput].
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	cfg := makeConfig(opts...)

	ra := readahead.NewReader(r)
	defer ra.Close()

	b, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return parseCached(ctx, string(b), cfg.logger)
}

// ClearCache discards every cached program.
func ClearCache() { parseCache.Clear() }

package content

import (
	"context"
	"errors"
	"sync"

	"github.com/bytedance/sonic"

	"portfolio-server-go/internal/domain/eventbus"
	perrors "portfolio-server-go/internal/platform/errors"
	"portfolio-server-go/internal/platform/kv"
	"portfolio-server-go/internal/platform/logging"
)

// dataKey holds the local-edits layer: a full serialized document that
// overrides the shipped defaults.
const dataKey = "portfolio_data"

// ErrNoContentLoaded is returned by Export before any successful load. The
// message is stable; callers match on it.
var ErrNoContentLoaded = errors.New("no content loaded yet")

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Store  kv.Store
	Logger *logging.Logger
	Bus    *eventbus.Bus
	Source Source
}

// Manager produces a single consistent portfolio document by layering local
// edits over shipped defaults, and owns save, export, import and reset.
type Manager struct {
	store  kv.Store
	logger *logging.Logger
	bus    *eventbus.Bus
	source Source

	mu    sync.Mutex
	cache Document
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("content manager requires a store")
	}
	if opts.Logger == nil {
		return nil, errors.New("content manager requires a logger")
	}
	if opts.Source == nil {
		return nil, errors.New("content manager requires a content source")
	}
	return &Manager{
		store:  opts.Store,
		logger: opts.Logger,
		bus:    opts.Bus,
		source: opts.Source,
	}, nil
}

// Load assembles the document: zero-value defaults, then the six default
// files fetched concurrently, then the local-edits overlay. Load never fails;
// any unexpected error degrades to the zero-value defaults.
func (m *Manager) Load(ctx context.Context) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorTag("content", "load pipeline failed, serving defaults: %v", r)
			doc = defaultDocument()
			m.setCache(doc)
		}
	}()

	doc = defaultDocument()

	// Each fetch writes its own slot, so completion order is irrelevant and
	// one failure never disturbs the other five.
	results := make([]any, len(sections))
	var wg sync.WaitGroup
	for i, s := range sections {
		wg.Add(1)
		go func(slot int, s section) {
			defer wg.Done()
			raw, err := m.source.Fetch(ctx, s.file)
			if err != nil {
				m.logger.InfoTag("content", "no default file for %s, using zero value: %v", s.name, err)
				return
			}
			var parsed any
			if err := sonic.Unmarshal(raw, &parsed); err != nil {
				m.logger.WarnTag("content", "malformed default file %s: %v", s.file, err)
				return
			}
			results[slot] = parsed
		}(i, s)
	}
	wg.Wait()

	for i, s := range sections {
		if results[i] != nil {
			overlaySection(doc, s, results[i])
		}
	}

	raw, err := m.store.Get(ctx, dataKey)
	switch {
	case err == nil:
		var local Document
		if uerr := sonic.UnmarshalString(raw, &local); uerr != nil {
			// Corruption must not block loading.
			m.logger.WarnTag("content", "discarding corrupt local edits: %v", uerr)
			if derr := m.store.Delete(ctx, dataKey); derr != nil {
				m.logger.ErrorTag("content", "failed to delete corrupt local edits: %v", derr)
			}
		} else {
			doc = Merge(doc, local)
		}
	case errors.Is(err, kv.ErrNotFound):
	default:
		m.logger.WarnTag("content", "failed to read local edits: %v", err)
	}

	m.setCache(doc)
	return doc
}

// Save writes the full document verbatim to the local-edits key. No merge on
// save: the local layer is a full overwrite.
func (m *Manager) Save(ctx context.Context, doc Document) error {
	raw, err := sonic.MarshalString(doc)
	if err != nil {
		return perrors.Wrap(perrors.KindContent, "content.save", "failed to encode content", err)
	}
	if err := m.store.Set(ctx, dataKey, raw); err != nil {
		return perrors.Wrap(perrors.KindStorage, "content.save", "failed to persist content", err)
	}
	m.setCache(doc)
	m.bus.Publish(eventbus.TopicContentUpdated)
	m.logger.InfoTag("content", "content saved")
	return nil
}

// Export serializes the cached document as indented JSON. Fails with
// ErrNoContentLoaded before the first load.
func (m *Manager) Export() (string, error) {
	cached := m.Cached()
	if cached == nil {
		return "", ErrNoContentLoaded
	}
	raw, err := sonic.ConfigDefault.MarshalIndent(cached, "", "  ")
	if err != nil {
		return "", perrors.Wrap(perrors.KindContent, "content.export", "failed to encode content", err)
	}
	return string(raw), nil
}

// Import parses and validates a serialized document, then stores the raw
// string verbatim. Validation errors pass through unchanged; their messages
// name the offending property and are shown to the user as-is.
func (m *Manager) Import(ctx context.Context, raw string) error {
	var parsed any
	if err := sonic.UnmarshalString(raw, &parsed); err != nil {
		return perrors.Wrap(perrors.KindContent, "content.import", "invalid JSON", err)
	}
	if err := Validate(parsed); err != nil {
		return err
	}
	if err := m.store.Set(ctx, dataKey, raw); err != nil {
		return perrors.Wrap(perrors.KindStorage, "content.import", "failed to persist content", err)
	}
	m.setCache(parsed.(map[string]any))
	m.bus.Publish(eventbus.TopicContentUpdated)
	m.logger.InfoTag("content", "content imported")
	return nil
}

// Reset deletes the local-edits layer, clears the cache and reloads from the
// shipped defaults.
func (m *Manager) Reset(ctx context.Context) (Document, error) {
	if err := m.store.Delete(ctx, dataKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, perrors.Wrap(perrors.KindStorage, "content.reset", "failed to clear local edits", err)
	}
	m.setCache(nil)
	doc := m.Load(ctx)
	m.bus.Publish(eventbus.TopicContentReset)
	m.logger.InfoTag("content", "content reset to defaults")
	return doc, nil
}

// Cached returns the in-memory copy of the last loaded document, or nil
// before the first load. No I/O.
func (m *Manager) Cached() Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache
}

// HasLocalModifications reports whether a local-edits record exists,
// regardless of whether it parses.
func (m *Manager) HasLocalModifications(ctx context.Context) bool {
	ok, err := m.store.Has(ctx, dataKey)
	if err != nil {
		m.logger.WarnTag("content", "failed to check local edits: %v", err)
		return false
	}
	return ok
}

func (m *Manager) setCache(doc Document) {
	m.mu.Lock()
	m.cache = doc
	m.mu.Unlock()
}

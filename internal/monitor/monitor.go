// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monitor runs the polling pipeline: fetch disclosures, claim
// unseen ones, prefilter, extract, gate, and dispatch authorized actions.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikhailtal/oreacle-bot/internal/decide"
	"github.com/mikhailtal/oreacle-bot/internal/feed"
	"github.com/mikhailtal/oreacle-bot/internal/journal"
	"github.com/mikhailtal/oreacle-bot/internal/manifold"
	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/internal/prefilter"
	"github.com/mikhailtal/oreacle-bot/internal/render"
	"github.com/mikhailtal/oreacle-bot/internal/translate"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// Store is the dedup surface the monitor needs.
type Store interface {
	MarkPending(doc types.Document) (bool, error)
	MarkProcessed(source types.SourceName, itemID string) error
}

// Extractor produces structured extractions from documents.
type Extractor interface {
	Extract(ctx context.Context, doc types.Document, pb *phrasebook.Phrasebook) (types.Extraction, error)
	BackendName() string
}

// Market is the dispatch surface the monitor needs.
type Market interface {
	GetMarketBySlug(ctx context.Context, slug string) (manifold.Market, error)
	PostComment(ctx context.Context, contractID, markdown string) (string, error)
	PlaceLimit(ctx context.Context, order manifold.LimitOrder) (string, error)
}

// Sink records audit rows.
type Sink interface {
	Append(journal.Entry) error
}

// Summary counts what one cycle did.
type Summary struct {
	Fetched   int
	New       int
	Relevant  int
	Commented int
	Traded    int
	Failed    int
}

// Monitor wires the pipeline stages together.
type Monitor struct {
	cfg        types.BotConfig
	sources    []feed.Source
	store      Store
	extractor  Extractor
	market     Market
	sink       Sink
	translator translate.Translator
	pb         *phrasebook.Phrasebook
	logger     *slog.Logger
}

// New assembles a monitor from already-constructed collaborators.
func New(cfg types.BotConfig, sources []feed.Source, store Store, extractor Extractor,
	market Market, sink Sink, translator translate.Translator,
	pb *phrasebook.Phrasebook, logger *slog.Logger) *Monitor {
	if translator == nil {
		translator = translate.Passthrough{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:        cfg,
		sources:    sources,
		store:      store,
		extractor:  extractor,
		market:     market,
		sink:       sink,
		translator: translator,
		pb:         pb,
		logger:     logger,
	}
}

// Cycle runs the pipeline once. A failed source or a failed document
// never aborts the cycle; failures are counted and logged. The error
// return is reserved for conditions that make the whole cycle pointless,
// such as the target market being unresolvable.
func (m *Monitor) Cycle(ctx context.Context) (Summary, error) {
	cycleID := uuid.NewString()[:8]
	logger := m.logger.With("cycle", cycleID)
	logger.Info("cycle started", "backend", m.extractor.BackendName())

	target, err := m.market.GetMarketBySlug(ctx, m.cfg.Market.Slug)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving target market: %w", err)
	}

	docs := m.fetchAll(ctx, logger)

	var summary Summary
	summary.Fetched = len(docs)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		m.processDoc(ctx, logger, doc, target, &summary)
	}

	logger.Info("cycle finished",
		"fetched", summary.Fetched, "new", summary.New,
		"relevant", summary.Relevant, "commented", summary.Commented,
		"traded", summary.Traded, "failed", summary.Failed)
	return summary, nil
}

// fetchAll queries every source concurrently. A failing source
// contributes zero documents.
func (m *Monitor) fetchAll(ctx context.Context, logger *slog.Logger) []types.Document {
	var (
		mu   sync.Mutex
		docs []types.Document
		wg   sync.WaitGroup
	)
	for _, src := range m.sources {
		wg.Add(1)
		go func(src feed.Source) {
			defer wg.Done()
			fetched, err := src.FetchNew(ctx)
			if err != nil {
				logger.Warn("source fetch failed", "source", src.Name(), "error", err)
				return
			}
			logger.Debug("source fetched", "source", src.Name(), "count", len(fetched))
			mu.Lock()
			docs = append(docs, fetched...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()
	return docs
}

func (m *Monitor) processDoc(ctx context.Context, logger *slog.Logger, doc types.Document, target manifold.Market, summary *Summary) {
	logger = logger.With("source", doc.SourceName, "doc", doc.SourceID)

	claimed, err := m.store.MarkPending(doc)
	if err != nil {
		logger.Error("dedup claim failed", "error", err)
		summary.Failed++
		return
	}
	if !claimed {
		return
	}
	summary.New++

	if !prefilter.Relevant(doc, m.pb) {
		m.journal(logger, journal.Entry{Doc: doc})
		m.markProcessed(logger, doc, summary)
		return
	}
	summary.Relevant++
	logger.Info("document passed prefilter", "title", doc.Title)

	extractCtx, cancel := context.WithTimeout(ctx, m.cfg.Monitor.ExtractTimeout)
	x, err := m.extractor.Extract(extractCtx, doc, m.pb)
	cancel()
	if err != nil {
		// The claim stays pending so a later cycle can retry.
		logger.Error("extraction failed", "error", err)
		summary.Failed++
		return
	}

	decision := decide.Decide(x, m.cfg.Gate)
	decision = decide.ApplyCommentOnly(decision, m.cfg.Market.IsCommentOnly())
	logger.Info("decision made",
		"proposed", x.ProposedLabel, "final", decision.FinalLabel,
		"confidence", x.Confidence, "action", decision.AuthorizedAction)

	x = m.fillTranslations(ctx, x)

	entry := journal.Entry{
		Doc:         doc,
		Prefiltered: true,
		Extraction:  x,
		Decision:    decision,
	}

	if decision.AuthorizedAction != types.ActionNone {
		comment := render.Comment(doc, x, decision.FinalLabel)
		if _, err := m.market.PostComment(ctx, target.ID, comment); err != nil {
			// Leave the claim pending; the comment was not published.
			logger.Error("comment dispatch failed", "error", err)
			summary.Failed++
			return
		}
		entry.CommentPosted = true
		summary.Commented++

		if decision.AuthorizedAction == types.ActionCommentAndTrade {
			if err := m.placeTrade(ctx, target, decision.FinalLabel); err != nil {
				// The comment is already public, so the document is done;
				// retrying would duplicate it. The trade is just lost.
				logger.Error("trade dispatch failed", "error", err)
				summary.Failed++
			} else {
				entry.TradePlaced = true
				summary.Traded++
			}
		}
	}

	m.journal(logger, entry)
	m.markProcessed(logger, doc, summary)
}

func (m *Monitor) placeTrade(ctx context.Context, target manifold.Market, label types.Label) error {
	order := manifold.LimitOrder{
		ContractID: target.ID,
		Amount:     m.cfg.Market.TradeAmount,
		LimitProb:  m.cfg.Market.TradePrice,
	}
	switch label {
	case types.LabelYes:
		order.Outcome = manifold.OutcomeYes
	case types.LabelNo:
		order.Outcome = manifold.OutcomeNo
		order.LimitProb = 1 - order.LimitProb
	default:
		return fmt.Errorf("label %s is not tradeable", label)
	}
	_, err := m.market.PlaceLimit(ctx, order)
	return err
}

// fillTranslations supplies English quotes where the extraction left
// them empty, best-effort. Extractions are immutable once produced, so
// the evidence slice is copied before any quote is filled in.
func (m *Monitor) fillTranslations(ctx context.Context, x types.Extraction) types.Extraction {
	evidence := make([]types.Evidence, len(x.Evidence))
	copy(evidence, x.Evidence)
	for i, ev := range evidence {
		if ev.TranslatedQuote == "" && ev.ExactQuote != "" {
			translated := m.translator.Translate(ctx, ev.ExactQuote)
			if translated != ev.ExactQuote {
				evidence[i].TranslatedQuote = translated
			}
		}
	}
	x.Evidence = evidence
	return x
}

func (m *Monitor) journal(logger *slog.Logger, entry journal.Entry) {
	if m.sink == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := m.sink.Append(entry); err != nil {
		logger.Warn("journal append failed", "error", err)
	}
}

func (m *Monitor) markProcessed(logger *slog.Logger, doc types.Document, summary *Summary) {
	if err := m.store.MarkProcessed(doc.SourceName, doc.SourceID); err != nil {
		logger.Error("marking processed failed", "error", err)
		summary.Failed++
	}
}

// Package pipeline drives one batch: select unprocessed source rows,
// classify and rephrase each, append the results to the store, then
// commit the ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/vignette/internal/config"
	"github.com/ppiankov/vignette/internal/fingerprint"
	"github.com/ppiankov/vignette/internal/generate"
	"github.com/ppiankov/vignette/internal/model"
	"github.com/ppiankov/vignette/internal/notify"
	"go.uber.org/zap"
)

// Outcome is the terminal state of a run
type Outcome string

const (
	OutcomeProduced       Outcome = "produced"
	OutcomeNothingPending Outcome = "nothing_pending"
	OutcomeAllFailed      Outcome = "all_failed"
)

// Stage names where a row can be skipped
const (
	StageClassify = "classify"
	StageGenerate = "generate"
	StageCanceled = "canceled"
)

// RowSkip records why one source row produced nothing
type RowSkip struct {
	RecordID string
	Stage    string
	Err      error
}

func (s RowSkip) String() string {
	return fmt.Sprintf("%s: %s failed: %v", s.RecordID, s.Stage, s.Err)
}

// Summary describes a finished run
type Summary struct {
	Outcome   Outcome
	Pending   int // unprocessed rows before the batch cap
	Attempted int
	Produced  []model.GeneratedRecord
	Skipped   []RowSkip
	StorePath string
}

// Classifier places a source question in the taxonomy
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Classification, error)
}

// Generator turns a prompt into a validated payload
type Generator interface {
	Generate(ctx context.Context, prompt string, policy generate.RetryPolicy) (*model.GeneratedPayload, error)
}

// Ledger is the dedup state the driver reads and commits to
type Ledger interface {
	IsProcessed(id, fingerprint string) bool
	Commit(entry model.LedgerEntry) error
}

// Store receives the produced records
type Store interface {
	Append(records []model.GeneratedRecord) error
	Path() string
}

// Deps are the collaborators of a Driver
type Deps struct {
	Source     func() ([]model.SourceRecord, error)
	Ledger     Ledger
	Store      Store
	Classifier Classifier
	Generator  Generator
	Notifier   notify.Notifier // optional
	Logger     *zap.Logger     // optional
	NewID      func() string   // optional
	Now        func() time.Time
}

// Driver runs batches
type Driver struct {
	cfg  *config.Config
	deps Deps
}

// New validates deps and returns a Driver
func New(cfg *config.Config, deps Deps) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	switch {
	case deps.Source == nil:
		return nil, errors.New("pipeline: source is required")
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Generator == nil:
		return nil, errors.New("pipeline: generator is required")
	}

	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.NewID == nil {
		deps.NewID = generate.NewRecordID
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Driver{cfg: cfg, deps: deps}, nil
}

// pendingRow is a selected source row with its fingerprint
type pendingRow struct {
	model.SourceRecord
	fingerprint string
}

// produced pairs a generated record with the ledger entry it settles
type produced struct {
	record model.GeneratedRecord
	entry  model.LedgerEntry
}

// Run processes one batch. Only source, store and ledger I/O errors are
// returned; per-row failures are reported in the Summary.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	log := d.deps.Logger

	rows, err := d.deps.Source()
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	pending := d.selectPending(rows)
	summary := &Summary{
		Pending:   len(pending),
		StorePath: d.deps.Store.Path(),
	}

	if len(pending) == 0 {
		summary.Outcome = OutcomeNothingPending
		log.Info("nothing to do", zap.Int("source_rows", len(rows)))
		return summary, nil
	}

	batch := pending
	if n := d.cfg.Generation.BatchSize; n > 0 && len(batch) > n {
		batch = batch[:n]
	}
	log.Info("batch selected",
		zap.Int("source_rows", len(rows)),
		zap.Int("pending", len(pending)),
		zap.Int("batch", len(batch)))

	var results []produced
	for i, row := range batch {
		if err := ctx.Err(); err != nil {
			for _, rest := range batch[i:] {
				summary.Skipped = append(summary.Skipped, RowSkip{RecordID: rest.ID, Stage: StageCanceled, Err: err})
			}
			log.Warn("run canceled, remaining rows left pending", zap.Int("remaining", len(batch)-i))
			break
		}

		summary.Attempted++
		rec, skip := d.processRow(ctx, i, row)
		if skip != nil {
			summary.Skipped = append(summary.Skipped, *skip)
			log.Warn("row skipped",
				zap.String("record_id", row.ID),
				zap.String("stage", skip.Stage),
				zap.Error(skip.Err))
			continue
		}

		results = append(results, produced{
			record: rec,
			entry:  model.LedgerEntry{RecordID: row.ID, Fingerprint: row.fingerprint},
		})
		log.Debug("row produced", zap.String("record_id", row.ID), zap.String("generated_id", rec.RecordID))
	}

	if len(results) == 0 {
		summary.Outcome = OutcomeAllFailed
		log.Warn("no records produced", zap.Int("attempted", summary.Attempted))
		return summary, nil
	}

	if err := d.commit(results); err != nil {
		return summary, err
	}

	for _, r := range results {
		summary.Produced = append(summary.Produced, r.record)
	}
	summary.Outcome = OutcomeProduced
	log.Info("batch complete",
		zap.Int("produced", len(summary.Produced)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.String("store", summary.StorePath))

	d.notify(ctx, summary)

	return summary, nil
}

// selectPending keeps rows the ledger has not seen, dropping later rows in
// this corpus that repeat an earlier pending row's content or identifier
func (d *Driver) selectPending(rows []model.SourceRecord) []pendingRow {
	seenPrints := make(map[string]struct{})
	seenIDs := make(map[string]struct{})
	var out []pendingRow

	for _, row := range rows {
		fp := fingerprint.Of(row.Text)
		if d.deps.Ledger.IsProcessed(row.ID, fp) {
			continue
		}
		if hasKey(seenPrints, fp) || hasKey(seenIDs, row.ID) {
			continue
		}
		seenPrints[fp] = struct{}{}
		seenIDs[row.ID] = struct{}{}
		out = append(out, pendingRow{SourceRecord: row, fingerprint: fp})
	}
	return out
}

func (d *Driver) processRow(ctx context.Context, i int, row pendingRow) (model.GeneratedRecord, *RowSkip) {
	gen := d.cfg.Generation

	class, err := d.deps.Classifier.Classify(ctx, row.Text)
	if err != nil {
		if d.cfg.Classification.OnFailure != config.OnFailureDefaults {
			return model.GeneratedRecord{}, &RowSkip{RecordID: row.ID, Stage: StageClassify, Err: err}
		}
		d.deps.Logger.Warn("classification failed, using defaults",
			zap.String("record_id", row.ID),
			zap.Error(err))
		class = model.DefaultClassification()
	}

	prompt := generate.ComposePrompt(generate.PromptInput{
		SourceText:          row.Text,
		AgeHint:             generate.AgeHint(row.Text),
		Anchor:              class.Anchor,
		Topic:               class.Topic,
		Style:               generate.StyleFor(i, gen.Styles()),
		MinExplanationChars: gen.MinExplanationChars,
	})

	payload, err := d.deps.Generator.Generate(ctx, prompt, gen.RetryPolicy())
	if err != nil {
		return model.GeneratedRecord{}, &RowSkip{RecordID: row.ID, Stage: StageGenerate, Err: err}
	}

	return model.NewGeneratedRecord(d.deps.NewID(), *payload, class, gen.TypeCode), nil
}

// commit writes the store once, then one ledger entry per produced row
func (d *Driver) commit(results []produced) error {
	records := make([]model.GeneratedRecord, len(results))
	for i, r := range results {
		records[i] = r.record
	}

	if err := d.deps.Store.Append(records); err != nil {
		return fmt.Errorf("append store: %w", err)
	}

	for _, r := range results {
		if err := d.deps.Ledger.Commit(r.entry); err != nil {
			return fmt.Errorf("commit ledger for %s: %w", r.entry.RecordID, err)
		}
	}
	return nil
}

func (d *Driver) notify(ctx context.Context, s *Summary) {
	to := d.cfg.Notify.To
	if !d.cfg.Notify.Enabled || to == "" {
		return
	}

	skipped := make([]string, len(s.Skipped))
	for i, sk := range s.Skipped {
		skipped[i] = sk.String()
	}

	msg := notify.SummaryMessage(to, notify.RunReport{
		Date:      d.deps.Now(),
		Produced:  len(s.Produced),
		Attempted: s.Attempted,
		Skipped:   skipped,
		StorePath: s.StorePath,
	})
	if err := d.deps.Notifier.Notify(ctx, msg); err != nil {
		d.deps.Logger.Warn("notification failed", zap.String("to", to), zap.Error(err))
	}
}

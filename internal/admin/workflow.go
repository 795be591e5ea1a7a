package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macroIndicators/internal/backend"
	"macroIndicators/internal/finance"
	"macroIndicators/internal/storage"
)

// SeriesOther marks a file whose series type is given in CustomSeriesType.
const SeriesOther = "other"

var (
	ErrNoFiles        = errors.New("Please select at least one CSV file")
	ErrNoFile         = errors.New("Please select a CSV file to upload")
	ErrMissingMeta    = errors.New("Please fill in indicator name and slug")
	ErrNoIndicator    = errors.New("Please select an indicator first")
	ErrCustomSeries   = errors.New(`Please provide a custom series type name for all "Other" selections`)
	errSkippedOnAbort = errors.New("skipped: indicator was not created")
)

type TaskKind string

const (
	TaskCreate TaskKind = "create"
	TaskUpload TaskKind = "upload"
)

// Task is one step of a plan.
type Task struct {
	Kind   TaskKind
	Upload backend.Upload
}

// Plan is an ordered task list. A create task, when present, is first and every
// later task depends on the slug it creates.
type Plan struct {
	Slug  string
	Meta  *backend.NewIndicator
	Tasks []Task
}

// FileInput is one uploaded form file with its series selection.
type FileInput struct {
	FileName         string
	Data             []byte
	SeriesType       string
	CustomSeriesType string
}

func (f FileInput) seriesType() (string, error) {
	st := strings.TrimSpace(f.SeriesType)
	if st == SeriesOther {
		st = strings.TrimSpace(f.CustomSeriesType)
		if st == "" {
			return "", ErrCustomSeries
		}
	}
	if st == "" {
		st = finance.SeriesHistorical
	}
	return st, nil
}

func (f FileInput) upload() (backend.Upload, error) {
	st, err := f.seriesType()
	if err != nil {
		return backend.Upload{}, err
	}
	if err := CheckCSV(f.Data); err != nil {
		return backend.Upload{}, fmt.Errorf("%s: %w", f.FileName, err)
	}
	return backend.Upload{FileName: f.FileName, SeriesType: st, Data: f.Data}, nil
}

// PlanNewIndicator validates the form and builds create + upload tasks.
// Inputs without a file are ignored.
func PlanNewIndicator(meta backend.NewIndicator, files []FileInput) (Plan, error) {
	var valid []FileInput
	for _, f := range files {
		if len(f.Data) > 0 || f.FileName != "" {
			valid = append(valid, f)
		}
	}
	if len(valid) == 0 {
		return Plan{}, ErrNoFiles
	}
	meta.Name = strings.TrimSpace(meta.Name)
	meta.Slug = strings.TrimSpace(meta.Slug)
	if meta.Name == "" || meta.Slug == "" {
		return Plan{}, ErrMissingMeta
	}
	p := Plan{Slug: meta.Slug, Meta: &meta}
	for i, f := range valid {
		up, err := f.upload()
		if err != nil {
			return Plan{}, err
		}
		kind := TaskUpload
		if i == 0 {
			kind = TaskCreate
		}
		p.Tasks = append(p.Tasks, Task{Kind: kind, Upload: up})
	}
	return p, nil
}

// PlanUpload builds a single-task plan for an existing indicator.
func PlanUpload(slug string, f FileInput) (Plan, error) {
	if strings.TrimSpace(slug) == "" {
		return Plan{}, ErrNoIndicator
	}
	if len(f.Data) == 0 {
		return Plan{}, ErrNoFile
	}
	up, err := f.upload()
	if err != nil {
		return Plan{}, err
	}
	return Plan{Slug: slug, Tasks: []Task{{Kind: TaskUpload, Upload: up}}}, nil
}

// Outcome is the result of one task. Err is nil on success.
type Outcome struct {
	Task    Task
	Added   int
	Updated int
	Err     error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Report summarises a run. Earlier successes are never rolled back.
type Report struct {
	RunID         string
	Slug          string
	IndicatorName string
	Outcomes      []Outcome
	TotalAdded    int
	StartedAt     time.Time
	FinishedAt    time.Time
}

func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

func (r Report) Failed() int { return len(r.Outcomes) - r.Succeeded() }

// Aborted reports that the create step failed, so nothing was changed.
func (r Report) Aborted() bool {
	return len(r.Outcomes) > 0 && r.Outcomes[0].Task.Kind == TaskCreate && !r.Outcomes[0].OK()
}

// Partial reports that some steps succeeded and others failed. The backend
// is left in that state for an admin to reconcile.
func (r Report) Partial() bool {
	return r.Succeeded() > 0 && r.Failed() > 0
}

// Status is the message shown to the admin after the run.
func (r Report) Status() string {
	if len(r.Outcomes) == 0 {
		return "Nothing to upload"
	}
	first := r.Outcomes[0]
	if r.Aborted() {
		detail := backend.Detail(first.Err)
		if strings.Contains(detail, "already exists") {
			return fmt.Sprintf("Error: Slug %q is already in use. Please choose a different slug.", r.Slug)
		}
		return "Error: " + detail
	}
	if first.Task.Kind == TaskCreate {
		msg := fmt.Sprintf("Success! Created %q with %d series and %d total data points",
			r.IndicatorName, r.Succeeded(), r.TotalAdded)
		if r.Partial() {
			var failed []string
			for _, o := range r.Outcomes {
				if !o.OK() {
					failed = append(failed, fmt.Sprintf("%s (%s): %s", o.Task.Upload.FileName, o.Task.Upload.SeriesType, backend.Detail(o.Err)))
				}
			}
			msg += fmt.Sprintf(". %d series failed and need follow-up: %s", r.Failed(), strings.Join(failed, "; "))
		}
		return msg
	}
	if !first.OK() {
		return "Error: " + backend.Detail(first.Err)
	}
	if first.Updated > 0 {
		return fmt.Sprintf("Success! Updated series: Added %d, Updated %d data points", first.Added, first.Updated)
	}
	return fmt.Sprintf("Success! Added new series with %d data points", first.Added)
}

// Backend is the part of the REST client the runner needs.
type Backend interface {
	CreateIndicator(ctx context.Context, token string, meta backend.NewIndicator, up backend.Upload) (*backend.CreatedIndicator, error)
	UploadCSV(ctx context.Context, token, slug string, up backend.Upload) (*backend.UploadResult, error)
}

type Ledger interface {
	SaveRun(r storage.RunRecord) error
}

// Notifier is told about runs that left partial state behind.
type Notifier interface {
	NotifyPartialUpload(ctx context.Context, r Report) error
}

// Runner executes plans strictly in order.
type Runner struct {
	backend  Backend
	ledger   Ledger
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewRunner wires a runner; ledger and notifier may be nil.
func NewRunner(b Backend, ledger Ledger, notifier Notifier, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		backend:  b,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run executes p. A failed create step skips the remaining tasks; a failed
// upload step is recorded and the run continues.
func (r *Runner) Run(ctx context.Context, token string, p Plan) Report {
	rep := Report{RunID: r.newID(), Slug: p.Slug, IndicatorName: p.Slug, StartedAt: r.now()}
	if p.Meta != nil && p.Meta.Name != "" {
		rep.IndicatorName = p.Meta.Name
	}
	log := r.logger.With(zap.String("run_id", rep.RunID), zap.String("slug", p.Slug))

	aborted := false
	for i, task := range p.Tasks {
		out := Outcome{Task: task}
		switch {
		case aborted:
			out.Err = errSkippedOnAbort
		case task.Kind == TaskCreate:
			if p.Meta == nil {
				out.Err = ErrMissingMeta
				break
			}
			res, err := r.backend.CreateIndicator(ctx, token, *p.Meta, task.Upload)
			if err != nil {
				out.Err = err
				break
			}
			out.Added = res.DataAdded
			if res.Indicator.Name != "" {
				rep.IndicatorName = res.Indicator.Name
			}
		default:
			res, err := r.backend.UploadCSV(ctx, token, p.Slug, task.Upload)
			if err != nil {
				out.Err = err
				break
			}
			out.Added, out.Updated = res.Added, res.Updated
		}
		if out.Err != nil {
			if i == 0 && task.Kind == TaskCreate {
				aborted = true
			}
			if !errors.Is(out.Err, errSkippedOnAbort) {
				log.Warn("upload task failed", zap.Int("position", i), zap.String("file", task.Upload.FileName), zap.Error(out.Err))
			}
		} else {
			rep.TotalAdded += out.Added
			log.Info("upload task done", zap.Int("position", i), zap.String("series_type", task.Upload.SeriesType),
				zap.Int("added", out.Added), zap.Int("updated", out.Updated))
		}
		rep.Outcomes = append(rep.Outcomes, out)
	}
	rep.FinishedAt = r.now()

	if r.ledger != nil {
		if err := r.ledger.SaveRun(rep.Record()); err != nil {
			log.Error("failed to record upload run", zap.Error(err))
		}
	}
	if rep.Partial() && r.notifier != nil {
		if err := r.notifier.NotifyPartialUpload(ctx, rep); err != nil {
			log.Warn("partial upload notification failed", zap.Error(err))
		}
	}
	return rep
}

// Record converts the report into a ledger row.
func (r Report) Record() storage.RunRecord {
	rec := storage.RunRecord{
		ID:            r.RunID,
		IndicatorSlug: r.Slug,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		TotalAdded:    r.TotalAdded,
		Partial:       r.Partial(),
		Aborted:       r.Aborted(),
	}
	for i, o := range r.Outcomes {
		t := storage.TaskRecord{
			Position:   i,
			Kind:       string(o.Task.Kind),
			SeriesType: o.Task.Upload.SeriesType,
			FileName:   o.Task.Upload.FileName,
			Added:      o.Added,
			Updated:    o.Updated,
		}
		if o.Err != nil {
			t.Error = backend.Detail(o.Err)
		}
		rec.Tasks = append(rec.Tasks, t)
	}
	return rec
}

// Package results turns a selection into the chart data, reference image and
// table shown on the results page.
package results

import (
	"errors"
	"fmt"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/model"
)

// Section names a part of the results page
type Section string

const (
	SectionChart Section = "chart"
	SectionImage Section = "image"
	SectionTable Section = "table"
)

// Kind classifies a section error
type Kind string

const (
	KindFileNotFound     Kind = "FileNotFound"
	KindEmptyResult      Kind = "EmptyResult"
	KindSchemaMismatch   Kind = "SchemaMismatch"
	KindInvalidSelection Kind = "InvalidSelection"
	KindInternal         Kind = "Internal"
)

// Classify maps an error to its kind
func Classify(err error) Kind {
	switch {
	case errors.Is(err, model.ErrFileNotFound):
		return KindFileNotFound
	case errors.Is(err, model.ErrEmptyResult):
		return KindEmptyResult
	case errors.Is(err, model.ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, model.ErrInvalidSelection):
		return KindInvalidSelection
	default:
		return KindInternal
	}
}

// SectionError is a failure shown in place of one section's content
type SectionError struct {
	Section Section `json:"section"`
	Kind    Kind    `json:"kind"`
	Message string  `json:"message"`
}

// Datasets provides loaded datasets by name
type Datasets interface {
	Dataset(name string) (*model.Dataset, error)
}

// ImageResolver finds the reference image of a selection
type ImageResolver interface {
	Resolve(sel model.Selection) (images.Ref, error)
}

// Result is one render of the results page
type Result struct {
	Selection model.Selection   `json:"selection"`
	Metric    config.MetricSpec `json:"-"`
	Table     model.Table       `json:"table"`
	Chart     ChartData         `json:"chart"`
	Image     *images.Ref       `json:"image,omitempty"`
	Errors    []SectionError    `json:"errors,omitempty"`
}

// Title is the page heading, e.g. "Results - Velocity"
func (r *Result) Title() string {
	return fmt.Sprintf("Results - %s", r.Selection.Parameter)
}

// Err returns the error of a section, or nil if it rendered
func (r *Result) Err(s Section) *SectionError {
	for i := range r.Errors {
		if r.Errors[i].Section == s {
			return &r.Errors[i]
		}
	}
	return nil
}

// OK reports whether every section rendered
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) fail(s Section, err error) {
	r.Errors = append(r.Errors, SectionError{Section: s, Kind: Classify(err), Message: err.Error()})
}

// Renderer renders selections against a fixed metric table
type Renderer struct {
	metrics  map[model.Parameter]config.MetricSpec
	datasets Datasets
	images   ImageResolver
}

// NewRenderer builds a renderer using the config's metric table
func NewRenderer(cfg *config.Config, datasets Datasets, images ImageResolver) *Renderer {
	metrics := make(map[model.Parameter]config.MetricSpec)
	for _, p := range model.Parameters() {
		metrics[p] = cfg.Metric(p)
	}
	return &Renderer{metrics: metrics, datasets: datasets, images: images}
}

// Metric returns the MetricSpec used for a parameter
func (rd *Renderer) Metric(p model.Parameter) config.MetricSpec {
	return rd.metrics[p]
}

// Render produces the chart data, reference image and table of a selection.
// Failures are recorded per section; Render never returns a nil result and
// never modifies the datasets it reads.
func (rd *Renderer) Render(sel model.Selection) *Result {
	spec, ok := rd.metrics[sel.Parameter]
	if !ok {
		res := &Result{Selection: sel, Table: model.Table{Records: []model.Record{}}}
		err := fmt.Errorf("%w: unknown parameter %q", model.ErrInvalidSelection, sel.Parameter)
		res.fail(SectionChart, err)
		res.fail(SectionTable, err)
		return res
	}
	return Render(sel, spec, rd.datasets, rd.images)
}

// Render is the stateless render cycle for one selection and metric spec
func Render(sel model.Selection, spec config.MetricSpec, datasets Datasets, imgs ImageResolver) *Result {
	res := &Result{
		Selection: sel,
		Metric:    spec,
		Table:     model.Table{Columns: spec.Columns(), Records: []model.Record{}},
		Chart: ChartData{
			Label: spec.Label,
			Axis:  Range{Min: spec.AxisMin, Max: spec.AxisMax},
			Split: true,
		},
	}

	table, err := Select(sel, spec, datasets)
	if err != nil {
		res.fail(SectionChart, err)
		res.fail(SectionTable, err)
	} else {
		res.Table = table
		res.Chart.Groups = Summarize(table)
		if len(res.Chart.Groups) == 0 {
			res.fail(SectionChart, fmt.Errorf("%w: %s has no values to plot for height %s", model.ErrEmptyResult, spec.Dataset, sel.Height))
		}
	}

	if spec.HasImage && imgs != nil {
		ref, err := imgs.Resolve(sel)
		if err != nil {
			res.fail(SectionImage, err)
		} else {
			res.Image = &ref
		}
	}

	return res
}

// Select loads the metric's dataset, projects, restricts, rescales and
// filters it to the selected height. An empty result is ErrEmptyResult.
func Select(sel model.Selection, spec config.MetricSpec, datasets Datasets) (model.Table, error) {
	ds, err := datasets.Dataset(spec.Dataset)
	if err != nil {
		return model.Table{}, err
	}
	if err := checkColumns(ds, spec); err != nil {
		return model.Table{}, err
	}

	height := string(sel.Height)
	table := ds.Filter(func(r model.Record) bool {
		return spec.KeepsLocation(r.Location) && r.Height == height
	})
	table.Columns = spec.Columns()

	// Filter returned copies, so rescaling does not touch the dataset
	if spec.Scale != 0 && spec.Scale != 1 {
		for i := range table.Records {
			table.Records[i].Value *= spec.Scale
		}
	}

	if table.Len() == 0 {
		return table, fmt.Errorf("%w: %s has no rows for height %s", model.ErrEmptyResult, spec.Dataset, sel.Height)
	}
	return table, nil
}

func checkColumns(ds *model.Dataset, spec config.MetricSpec) error {
	have := make(map[string]bool)
	for _, c := range ds.Columns() {
		have[c] = true
	}
	for _, c := range spec.Columns() {
		if !have[c] {
			return fmt.Errorf("%w: %s has no %s column", model.ErrSchemaMismatch, ds.Name(), c)
		}
	}
	return nil
}

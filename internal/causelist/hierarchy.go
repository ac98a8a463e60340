package causelist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

const resetLabel = "Select previous field first"

// levelSpec describes how one level is fetched and populated.
type levelSpec struct {
	level   Level
	loading string
	noun    string
	// lead is the first option, placed before fetched names.
	lead Option
}

var levelSpecs = map[Level]levelSpec{
	LevelState: {
		level:   LevelState,
		loading: "Loading states...",
		noun:    "states",
		lead:    Option{Value: "", Label: "Select State"},
	},
	LevelDistrict: {
		level:   LevelDistrict,
		loading: "Loading districts...",
		noun:    "districts",
		lead:    Option{Value: "", Label: "Select District"},
	},
	LevelCourtComplex: {
		level:   LevelCourtComplex,
		loading: "Loading court complexes...",
		noun:    "court complexes",
		lead:    Option{Value: "", Label: "Select Court Complex"},
	},
	LevelCourt: {
		level:   LevelCourt,
		loading: "Loading courts...",
		noun:    "courts",
		lead:    Option{Value: AllCourts, Label: AllCourts},
	},
}

// Selector manages the four dependent hierarchy fields. Selecting a value at
// one level clears and disables every level below it until repopulated.
type Selector struct {
	ctx       context.Context
	api       API
	sched     eventloop.Scheduler
	presenter Presenter
	logger    *slog.Logger

	fields [4]Field
	// gen counts invalidations of each non-state level so that responses
	// for a superseded selection are discarded.
	gen [3]int
}

// NewSelector creates a Selector with every level reset.
func NewSelector(ctx context.Context, api API, sched eventloop.Scheduler, presenter Presenter, logger *slog.Logger) *Selector {
	s := &Selector{
		ctx:       ctx,
		api:       api,
		sched:     sched,
		presenter: presenter,
		logger:    logger,
	}
	for _, l := range Levels {
		s.fields[l] = resetField()
	}
	return s
}

func resetField() Field {
	return Field{
		Options:  []Option{{Value: "", Label: resetLabel}},
		Disabled: true,
	}
}

// Field returns the current state of level.
func (s *Selector) Field(level Level) Field {
	f := s.fields[level]
	f.Options = append([]Option(nil), f.Options...)
	return f
}

// Value returns the selected value of level.
func (s *Selector) Value(level Level) string {
	return s.fields[level].Value
}

// Init loads the states into the first field.
func (s *Selector) Init() {
	for _, l := range Levels {
		s.render(l)
	}
	s.load(LevelState, nil, nil)
}

// Select records a user choice at level and reloads the levels below it.
func (s *Selector) Select(level Level, value string) {
	switch level {
	case LevelState:
		s.OnStateChange(value)
	case LevelDistrict:
		s.OnDistrictChange(s.Value(LevelState), value)
	case LevelCourtComplex:
		s.OnComplexChange(s.Value(LevelState), s.Value(LevelDistrict), value)
	case LevelCourt:
		s.fields[LevelCourt].Value = value
		s.render(LevelCourt)
	}
}

// OnStateChange handles a new state selection.
func (s *Selector) OnStateChange(state string) {
	s.set(LevelState, state)
	s.change(LevelDistrict, []string{state})
}

// OnDistrictChange handles a new district selection.
func (s *Selector) OnDistrictChange(state, district string) {
	s.set(LevelState, state)
	s.set(LevelDistrict, district)
	s.change(LevelCourtComplex, []string{state, district})
}

// OnComplexChange handles a new court complex selection.
func (s *Selector) OnComplexChange(state, district, complex string) {
	s.set(LevelState, state)
	s.set(LevelDistrict, district)
	s.set(LevelCourtComplex, complex)
	s.change(LevelCourt, []string{state, district, complex})
}

func (s *Selector) set(level Level, value string) {
	if s.fields[level].Value == value {
		return
	}
	s.fields[level].Value = value
	s.render(level)
}

// change reloads target when every parent is chosen, otherwise resets target
// and everything below it.
func (s *Selector) change(target Level, parents []string) {
	affected := append([]Level{target}, target.Dependents()...)
	// Any fetch still in flight for these levels is now stale.
	for _, l := range affected {
		s.gen[l-1]++
	}

	for _, p := range parents {
		if p == "" {
			s.reset(affected)
			return
		}
	}
	s.load(target, parents, target.Dependents())
}

// load fetches the options of level and populates it. On success the levels
// in below are reset; on failure level is reset along with them.
func (s *Selector) load(level Level, parents []string, below []Level) {
	spec := levelSpecs[level]
	gen := s.genFor(level)

	s.presenter.ShowLoading(spec.loading)

	var names []string
	var err error
	s.sched.Go(func() {
		names, err = s.api.Hierarchy(s.ctx, level, parents)
	}, func() {
		s.presenter.HideLoading()

		if gen != s.genFor(level) {
			s.logger.Debug("Discarding superseded hierarchy response",
				slog.String("level", level.String()),
			)
			return
		}

		if err != nil {
			s.logger.Error("Failed to load hierarchy level",
				slog.String("level", level.String()),
				slog.Any("parents", parents),
				slog.String("error", err.Error()),
			)
			s.presenter.Alert(AlertDanger, "Error loading "+spec.noun+": "+loadErrorText(err, spec))
			if level != LevelState {
				s.reset(append([]Level{level}, below...))
			}
			return
		}

		s.populate(spec, names)
		s.reset(below)
	})
}

func (s *Selector) genFor(level Level) int {
	if level == LevelState {
		return 0
	}
	return s.gen[level-1]
}

func (s *Selector) populate(spec levelSpec, names []string) {
	opts := make([]Option, 0, len(names)+1)
	opts = append(opts, spec.lead)
	for _, n := range names {
		opts = append(opts, Option{Value: n, Label: n})
	}
	s.fields[spec.level] = Field{
		Options: opts,
		Value:   spec.lead.Value,
	}
	s.render(spec.level)
}

func (s *Selector) reset(levels []Level) {
	for _, l := range levels {
		s.fields[l] = resetField()
		s.render(l)
	}
}

func (s *Selector) render(level Level) {
	s.presenter.RenderField(level, s.Field(level))
}

func loadErrorText(err error, spec levelSpec) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message == "" {
		return "Failed to load " + spec.noun
	}
	return err.Error()
}

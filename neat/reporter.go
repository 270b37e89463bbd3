package neat

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StateListener is notified of every pipeline transition, in order.
type StateListener interface {
	OnState(state State)
}

// StateListenerFunc adapts a function to a StateListener.
type StateListenerFunc func(State)

func (f StateListenerFunc) OnState(state State) { f(state) }

// Reporter receives state transitions plus free-text progress messages.
type Reporter interface {
	StateListener
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) OnState(State)       {}
func (NopReporter) Info(string)         {}
func (NopReporter) Warn(string)         {}
func (NopReporter) Error(string, error) {}

// ReporterSet fans every call out to all of its reporters.
type ReporterSet []Reporter

func (rs ReporterSet) OnState(state State) {
	for _, r := range rs {
		r.OnState(state)
	}
}

func (rs ReporterSet) Info(msg string) {
	for _, r := range rs {
		r.Info(msg)
	}
}

func (rs ReporterSet) Warn(msg string) {
	for _, r := range rs {
		r.Warn(msg)
	}
}

func (rs ReporterSet) Error(msg string, err error) {
	for _, r := range rs {
		r.Error(msg, err)
	}
}

// ZapReporter writes pipeline progress to a zap logger. Evaluation states are
// logged at debug level, every other transition at info level.
type ZapReporter struct {
	Logger *zap.Logger
}

// NewZapReporter creates a reporter on top of logger; a nil logger discards output.
func NewZapReporter(logger *zap.Logger) *ZapReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapReporter{Logger: logger}
}

func (z *ZapReporter) OnState(state State) {
	level := zapcore.InfoLevel
	fields := []zap.Field{
		zap.Stringer("state", state.Kind),
		zap.Int("generation", state.Generation),
	}
	switch state.Kind {
	case Evaluating, Evaluated:
		level = zapcore.DebugLevel
		fields = append(fields, zap.Int("species", state.SpeciesKey), zap.Int("genome", state.Genome.Key))
		if state.Kind == Evaluated {
			fields = append(fields, zap.Float64("fitness", state.Genome.Fitness(state.Generation)))
		}
	case SolutionFound:
		fields = append(fields, zap.Int("genome", state.Genome.Key), zap.Float64("fitness", state.Genome.LatestFitness()))
	case Paused, Saving, Saved:
		fields = append(fields, zap.Stringer("resume", state.Resume.Kind))
	case Culled:
		if len(state.ExtinctSpecies) > 0 {
			fields = append(fields, zap.Ints("extinct_species", state.ExtinctSpecies))
		}
	case Extinction:
		level = zapcore.WarnLevel
	}
	if ce := z.Logger.Check(level, "Pipeline state"); ce != nil {
		ce.Write(fields...)
	}
}

func (z *ZapReporter) Info(msg string) { z.Logger.Info(msg) }

func (z *ZapReporter) Warn(msg string) { z.Logger.Warn(msg) }

func (z *ZapReporter) Error(msg string, err error) { z.Logger.Error(msg, zap.Error(err)) }

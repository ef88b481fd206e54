package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/sirupsen/logrus"
)

// Step is one unit of a saga. Undo may be nil for steps with nothing to
// compensate.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga runs steps in order. When a step fails, the completed steps are
// undone in reverse order and the step error is returned.
type Saga struct {
	name  string
	steps []Step
	log   *logrus.Entry
}

func NewSaga(name string) *Saga {
	return &Saga{
		name: name,
		log:  logrus.WithField("saga", name),
	}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		err := step.Do(ctx)
		if err == nil {
			continue
		}

		s.log.WithError(err).WithField("step", step.Name).Warn("Saga step failed, compensating")
		if cerr := s.compensate(ctx, i); cerr != nil {
			metrics.SagaCompensationsTotal.WithLabelValues(s.name, "failed").Inc()
			return errors.Join(err, fmt.Errorf("compensation incomplete: %w", cerr))
		}
		metrics.SagaCompensationsTotal.WithLabelValues(s.name, "ok").Inc()
		return err
	}
	return nil
}

// compensate undoes steps [0, failed) in reverse order. Every undo runs even
// if an earlier one fails.
func (s *Saga) compensate(ctx context.Context, failed int) error {
	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			s.log.WithError(err).WithField("step", step.Name).Error("Saga compensation failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}

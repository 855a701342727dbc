package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check is the body of a verification case.
type Check func(ctx context.Context, s *Scenario) error

// Case is a named check run against its own deployment.
type Case struct {
	Name  string
	Check Check

	// Funded accounts besides the deployer the check submits from
	Actors int
}

// Report is the result of one case.
type Report struct {
	Name     string
	Err      error
	Warnings []string
	Duration time.Duration
}

// Passed reports whether the case ran without error.
func (r Report) Passed() bool {
	return r.Err == nil
}

// Suite runs independent cases concurrently, each on a fresh deployment.
type Suite struct {
	harness  *Harness
	parallel int
}

// NewSuite runs at most parallel cases at a time; parallel < 1 means one.
func NewSuite(h *Harness, parallel int) *Suite {
	if parallel < 1 {
		parallel = 1
	}
	return &Suite{harness: h, parallel: parallel}
}

// Run executes every case and returns the reports in input order together
// with the joined errors of the failed cases. A failing case does not stop
// the others.
func (s *Suite) Run(ctx context.Context, cases []Case) ([]Report, error) {
	reports := make([]Report, len(cases))

	var g errgroup.Group
	g.SetLimit(s.parallel)

	for i, c := range cases {
		g.Go(func() error {
			reports[i] = s.runCase(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range reports {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return reports, errors.Join(errs...)
}

func (s *Suite) runCase(ctx context.Context, c Case) Report {
	start := time.Now()
	report := Report{Name: c.Name}

	err := s.harness.checkActors(c.Actors)
	var scenario *Scenario
	if err == nil {
		scenario, err = s.harness.NewScenario(ctx, c.Name)
	}
	if err == nil {
		err = c.Check(ctx, scenario)
		report.Warnings = scenario.Warnings()
	}
	report.Err = err
	report.Duration = time.Since(start)

	if err != nil {
		slog.Error("Verification case failed", "case", c.Name, "duration", report.Duration, "error", err)
	} else {
		slog.Info("Verification case passed", "case", c.Name, "duration", report.Duration, "warnings", len(report.Warnings))
	}
	return report
}

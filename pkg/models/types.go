package models

import (
	"strings"
	"time"
)

// Seed identifies one reproducible optimizer run. It is kept as a string so
// that the digits handed to the optimizer are exactly the digits that end up
// in artifact and report names.
type Seed string

func (s Seed) String() string { return string(s) }

// Param is one parameter value of a configuration. Text is the canonical
// formatting used on the command line and in file names; it is computed once
// and never re-derived from Value.
type Param struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
	Text  string  `json:"text" yaml:"text"`
}

// Configuration is one point of a family's parameter space. Params are kept
// in the family's canonical parameter order.
type Configuration struct {
	Family string  `json:"family"`
	Params []Param `json:"params"`
}

// Get returns the named parameter
func (c Configuration) Get(name string) (Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Key joins the parameters as NAME_value pairs, e.g. "C1_1_C2_2".
func (c Configuration) Key() string {
	parts := make([]string, 0, 2*len(c.Params))
	for _, p := range c.Params {
		parts = append(parts, p.Name, p.Text)
	}
	return strings.Join(parts, "_")
}

// String renders the configuration for logs, e.g. "C1=1 C2=2".
func (c Configuration) String() string {
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		parts = append(parts, p.Name+"="+p.Text)
	}
	return strings.Join(parts, " ")
}

// InvocationStatus represents the outcome of one optimizer invocation
type InvocationStatus string

const (
	InvocationPending         InvocationStatus = "pending"
	InvocationSucceeded       InvocationStatus = "succeeded"
	InvocationFailed          InvocationStatus = "failed"
	InvocationTimedOut        InvocationStatus = "timed_out"
	InvocationMissingArtifact InvocationStatus = "missing_artifact"
	InvocationSkipped         InvocationStatus = "skipped"
)

// Usable reports whether the invocation left a usable artifact behind
func (s InvocationStatus) Usable() bool {
	return s == InvocationSucceeded || s == InvocationSkipped
}

// ResultRecord holds the statistics extracted from one artifact
type ResultRecord struct {
	Artifact       string
	ExecutionTime  string
	Params         []float64
	Best           float64
	Worst          float64
	ValidSolutions float64
	TotalSolutions float64
	Jumps          float64
	Similarity     float64 // percentage, two decimals
}

// Values returns the record in extraction order: execution time, parameter
// echo, best, worst, valid solutions, total solutions, jumps, similarity.
func (r ResultRecord) Values() []any {
	values := make([]any, 0, 7+len(r.Params))
	values = append(values, r.ExecutionTime)
	for _, p := range r.Params {
		values = append(values, p)
	}
	return append(values, r.Best, r.Worst, r.ValidSolutions, r.TotalSolutions, r.Jumps, r.Similarity)
}

// FailureKind classifies a recorded failure
type FailureKind string

const (
	FailureExternalProcess FailureKind = "external_process_failure"
	FailureMalformed       FailureKind = "malformed_artifact"
	FailurePathResolution  FailureKind = "path_resolution_failure"
	FailureReport          FailureKind = "report_failure"
)

// Failure is one entry of the machine-readable run summary
type Failure struct {
	Kind     FailureKind      `json:"kind"`
	Family   string           `json:"family,omitempty"`
	Seed     Seed             `json:"seed,omitempty"`
	Params   string           `json:"params,omitempty"`
	Subject  string           `json:"subject"`
	Status   InvocationStatus `json:"status,omitempty"`
	ExitCode *int             `json:"exit_code,omitempty"`
	Message  string           `json:"message"`
}

// Aggregation summarizes a set of samples
type Aggregation struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
}

// RunSummary is printed at the end of every sweep, repeat and collect run
type RunSummary struct {
	Batch     string                 `json:"batch"`
	Command   string                 `json:"command"`
	StartedAt time.Time              `json:"started_at"`
	Duration  time.Duration          `json:"duration_ns"`
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Skipped   int                    `json:"skipped"`
	Failed    int                    `json:"failed"`
	Reports   []string               `json:"reports,omitempty"`
	Failures  []Failure              `json:"failures"`
	Durations map[string]Aggregation `json:"durations_seconds,omitempty"`
}

// AddFailure records a failure and bumps the failed counter
func (s *RunSummary) AddFailure(f Failure) {
	s.Failures = append(s.Failures, f)
	s.Failed++
}

// OK reports whether the run finished without any recorded failure
func (s *RunSummary) OK() bool {
	return len(s.Failures) == 0
}

// Merge folds another summary into s
func (s *RunSummary) Merge(other *RunSummary) {
	if other == nil {
		return
	}
	s.Total += other.Total
	s.Succeeded += other.Succeeded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Reports = append(s.Reports, other.Reports...)
	s.Failures = append(s.Failures, other.Failures...)
	for k, v := range other.Durations {
		if s.Durations == nil {
			s.Durations = make(map[string]Aggregation)
		}
		s.Durations[k] = v
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfiguration() Configuration {
	return Configuration{
		Family: "AOA",
		Params: []Param{
			{Name: "C1", Value: 1, Text: "1"},
			{Name: "C2", Value: 2, Text: "2"},
			{Name: "C3", Value: 1, Text: "1"},
			{Name: "C4", Value: 0.5, Text: "0.5"},
		},
	}
}

func TestConfigurationKeyAndString(t *testing.T) {
	cfg := testConfiguration()

	assert.Equal(t, "C1_1_C2_2_C3_1_C4_0.5", cfg.Key())
	assert.Equal(t, "C1=1 C2=2 C3=1 C4=0.5", cfg.String())
}

func TestConfigurationGet(t *testing.T) {
	cfg := testConfiguration()

	p, ok := cfg.Get("C4")
	require.True(t, ok)
	assert.Equal(t, 0.5, p.Value)

	_, ok = cfg.Get("FL")
	assert.False(t, ok)
}

func TestInvocationStatusUsable(t *testing.T) {
	tests := []struct {
		status InvocationStatus
		usable bool
	}{
		{InvocationSucceeded, true},
		{InvocationSkipped, true},
		{InvocationFailed, false},
		{InvocationTimedOut, false},
		{InvocationMissingArtifact, false},
		{InvocationPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.usable, tt.status.Usable(), string(tt.status))
	}
}

func TestResultRecordValues(t *testing.T) {
	rec := ResultRecord{
		ExecutionTime:  "1 min. 2.5 sec.",
		Params:         []float64{1, 2, 1, 0.5},
		Best:           100,
		Worst:          250,
		ValidSolutions: 7000,
		TotalSolutions: 8000,
		Jumps:          12,
		Similarity:     87.65,
	}

	values := rec.Values()
	require.Len(t, values, 11)
	assert.Equal(t, "1 min. 2.5 sec.", values[0])
	assert.Equal(t, 0.5, values[4])
	assert.Equal(t, 12.0, values[9])
	assert.Equal(t, 87.65, values[10])
}

func TestRunSummary(t *testing.T) {
	s := &RunSummary{Total: 2, Succeeded: 2}
	assert.True(t, s.OK())

	code := 3
	s.AddFailure(Failure{Kind: FailureExternalProcess, Subject: "Output_seed_1_FL_0.0.xlsx", ExitCode: &code})
	assert.False(t, s.OK())
	assert.Equal(t, 1, s.Failed)

	other := &RunSummary{
		Total:     1,
		Failed:    1,
		Reports:   []string{"CSO_seed_1.xlsx"},
		Failures:  []Failure{{Kind: FailureMalformed, Subject: "x.xlsx"}},
		Durations: map[string]Aggregation{"family=AOA": {Count: 1}},
	}
	s.Merge(other)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Failed)
	assert.Len(t, s.Failures, 2)
	assert.Equal(t, []string{"CSO_seed_1.xlsx"}, s.Reports)
	assert.Contains(t, s.Durations, "family=AOA")

	s.Merge(nil)
	assert.Equal(t, 3, s.Total)
}

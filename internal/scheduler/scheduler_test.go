package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuecompass/compass/pkg/logger"
)

type noopJob struct {
	name     string
	schedule string
}

func (j noopJob) Name() string              { return j.name }
func (j noopJob) Schedule() string          { return j.schedule }
func (j noopJob) Run(context.Context) error { return nil }

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(noopJob{name: "a", schedule: "0 0 8 * * *"}))
	assert.Error(t, s.AddJob(noopJob{name: "a", schedule: "0 0 8 * * *"}), "duplicate name rejected")
	assert.Error(t, s.AddJob(noopJob{name: "b", schedule: "not a cron expr"}))

	assert.ElementsMatch(t, []string{"a"}, s.JobNames())
}

func TestRunJobUnknown(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.RunJob("missing"))
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.Add(JobResult{
			JobName:   "a",
			StartTime: time.Now(),
			Success:   i%3 != 0,
			Error:     fmt.Sprintf("run %d", i),
		})
	}

	assert.Len(t, h.Results, 100, "history is bounded")
	assert.Len(t, h.Latest(10), 10)
	assert.InDelta(t, 2.0/3.0, h.SuccessRate(), 0.05)
	assert.NotEmpty(t, h.Failed())
}

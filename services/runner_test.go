package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"massbank-harvester/models"
	"massbank-harvester/providers/oaipmh"
)

func TestRunSourceCountsUnits(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.h.Metrics = NewMetrics(prometheus.NewRegistry())
	env.client.headers = []oaipmh.Header{{Identifier: "MSBNK-1"}, {Identifier: "MSBNK-404"}}
	env.client.records["MSBNK-1"] = jsonContainerRecord("MSBNK-1", "2024-01-01T10:00:00Z", studyPayload, "massbank")

	job, err := env.h.RunSource(context.Background(), testSourceID)
	require.NoError(t, err)

	assert.Equal(t, 2, job.Gathered)
	assert.Equal(t, 1, job.Imported)
	assert.Equal(t, 1, job.Errored)

	stored := env.store.jobs[job.ID]
	assert.Equal(t, models.JobStatusFinished, stored.Status)
	assert.NotNil(t, stored.GatherStarted)
	assert.NotNil(t, stored.GatherFinished)
	assert.NotNil(t, stored.FinishedAt)

	m := env.h.Metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Gathered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imported))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues(StageFetch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImagesRendered))
}

func TestRunSourceGatherFailureFinishesJob(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.identifyErr = &oaipmh.HTTPError{URL: testSourceURL, StatusCode: 500, Status: "500 Internal Server Error"}

	job, err := env.h.RunSource(context.Background(), testSourceID)
	require.Error(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusFinished, env.store.jobs[job.ID].Status)
	assert.Equal(t, 0, job.Gathered)
	assert.Len(t, env.store.gatherErrors, 1)
}

func TestRunSourceStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.headers = []oaipmh.Header{{Identifier: "MSBNK-1"}}
	env.client.records["MSBNK-1"] = jsonContainerRecord("MSBNK-1", "", studyPayload)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, err := env.h.RunSource(ctx, testSourceID)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Gathered)
	assert.Equal(t, 0, job.Imported)
	assert.Equal(t, 0, job.Errored)
}

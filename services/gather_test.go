package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"massbank-harvester/models"
	"massbank-harvester/providers/oaipmh"
)

const windowConfig = `{"metadata_prefix":"json_container","from":"2024-01-01T00:00:00Z","until":"2024-01-02T00:00:00Z"}`

func TestGatherCreatesObjectsWithinWindow(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.headers = []oaipmh.Header{
		{Identifier: "MSBNK-1"},
		{Identifier: "MSBNK-2", Status: "deleted"},
		{Identifier: "MSBNK-3"},
		{Identifier: "MSBNK-1"},
	}
	job := &models.HarvestJob{ID: "job-1", SourceID: testSourceID}

	ids, err := env.h.Gather(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	args := env.client.lastArgs
	assert.Equal(t, "json_container", args.Prefix)
	assert.Empty(t, args.Set)
	require.NotNil(t, args.From)
	require.NotNil(t, args.Until)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *args.From)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), *args.Until)

	var guids []string
	for _, id := range ids {
		obj, err := env.store.GetObject(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.ObjectStateCreated, obj.State)
		assert.Equal(t, "job-1", obj.JobID)
		assert.Equal(t, testSourceID, obj.SourceID)
		guids = append(guids, obj.GUID)
	}
	assert.Equal(t, []string{"MSBNK-1", "MSBNK-3"}, guids)
}

func TestGatherOnlyIdentifierStopsAfterFirstMatch(t *testing.T) {
	env := newTestEnv(t, `{"only_identifier":"MSBNK-2"}`)
	env.client.headers = []oaipmh.Header{{Identifier: "MSBNK-1"}, {Identifier: "MSBNK-2"}, {Identifier: "MSBNK-3"}}

	ids, err := env.h.Gather(context.Background(), &models.HarvestJob{ID: "job-1", SourceID: testSourceID})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, 2, env.client.visited, "enumeration must stop after the match")
}

func TestGatherIdentifyFailure(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.identifyErr = &oaipmh.HTTPError{
		URL: testSourceURL, StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable",
		Header: http.Header{"Retry-After": {"120"}}, Body: "maintenance",
	}

	ids, err := env.h.Gather(context.Background(), &models.HarvestJob{ID: "job-1", SourceID: testSourceID})
	assert.Nil(t, ids)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, 0, env.client.listCalls)

	require.Len(t, env.store.gatherErrors, 1)
	assert.Equal(t, "Could not gather anything from "+testSourceURL, env.store.gatherErrors[0].Message)
	assert.Empty(t, env.store.objects)
}

func TestGatherListFailureLeavesNoObjects(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.headers = []oaipmh.Header{{Identifier: "MSBNK-1"}}
	env.client.listErr = errors.New("boom")

	ids, err := env.h.Gather(context.Background(), &models.HarvestJob{ID: "job-1", SourceID: testSourceID})
	assert.Nil(t, ids)
	require.Error(t, err)
	assert.Empty(t, env.store.objects)

	require.Len(t, env.store.gatherErrors, 1)
	msg := env.store.gatherErrors[0].Message
	assert.Contains(t, msg, "Could not gather anything from "+testSourceURL+": boom")
	assert.Contains(t, msg, "goroutine")
}

func TestGatherProtocolErrorKind(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.listErr = &oaipmh.ProtocolError{Code: oaipmh.CodeBadArgument, Message: "bad from"}

	_, err := env.h.Gather(context.Background(), &models.HarvestJob{ID: "job-1", SourceID: testSourceID})
	assert.Equal(t, KindProtocol, KindOf(err))
}

func TestGatherPersistenceFailure(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.client.headers = []oaipmh.Header{{Identifier: "MSBNK-1"}}
	env.store.failCreate = errors.New("db down")

	ids, err := env.h.Gather(context.Background(), &models.HarvestJob{ID: "job-1", SourceID: testSourceID})
	assert.Nil(t, ids)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Len(t, env.store.gatherErrors, 1)
}

func TestListArgsBranches(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	parse := func(blob string) SourceConfig { return ParseSourceConfig(blob, now, zap.NewNop()) }

	// Standardfenster greift immer, auch mit Set.
	args := listArgs(parse(`{"set":"massbank"}`))
	assert.Equal(t, "massbank", args.Set)
	require.NotNil(t, args.From)
	assert.Equal(t, now.Add(-DefaultWindow), *args.From)

	// Set ohne Fenster nur mit Schalter und ohne explizites Fenster.
	args = listArgs(parse(`{"set":"massbank","set_without_window":true}`))
	assert.Equal(t, "massbank", args.Set)
	assert.Nil(t, args.From)
	assert.Nil(t, args.Until)

	args = listArgs(parse(`{"set":"massbank","set_without_window":true,"from":"2024-01-01T00:00:00Z","until":"2024-01-02T00:00:00Z"}`))
	require.NotNil(t, args.From)
	assert.Equal(t, "massbank", args.Set)

	// Ohne Fenster und ohne Set: nur das Format.
	args = listArgs(SourceConfig{MetadataPrefix: "oai_dc"})
	assert.Equal(t, oaipmh.ListArgs{Prefix: "oai_dc"}, args)
}

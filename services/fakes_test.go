package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"massbank-harvester/catalog"
	"massbank-harvester/models"
	"massbank-harvester/providers"
	"massbank-harvester/providers/oaipmh"
)

var errNotFound = errors.New("not found")

type memStore struct {
	mu           sync.Mutex
	seq          int
	sources      map[string]*models.HarvestSource
	jobs         map[string]*models.HarvestJob
	objects      map[string]*models.HarvestObject
	objectErrors []models.HarvestObjectError
	gatherErrors []models.HarvestGatherError
	failCreate   error
}

func newMemStore() *memStore {
	return &memStore{
		sources: map[string]*models.HarvestSource{},
		jobs:    map[string]*models.HarvestJob{},
		objects: map[string]*models.HarvestObject{},
	}
}

func (s *memStore) GetSource(_ context.Context, id string) (*models.HarvestSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *src
	return &cp, nil
}

func (s *memStore) CreateJob(_ context.Context, sourceID string) (*models.HarvestJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	job := &models.HarvestJob{ID: fmt.Sprintf("job-%d", s.seq), SourceID: sourceID, Status: models.JobStatusNew}
	cp := *job
	s.jobs[job.ID] = &cp
	return job, nil
}

func (s *memStore) UpdateJob(_ context.Context, job *models.HarvestJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) CreateObjects(_ context.Context, objs []*models.HarvestObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	for _, o := range objs {
		cp := *o
		s.objects[o.ID] = &cp
	}
	return nil
}

func (s *memStore) GetObject(_ context.Context, id string) (*models.HarvestObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *obj
	return &cp, nil
}

func (s *memStore) SaveObjectContent(_ context.Context, id, content string, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.objects[id]
	obj.Content = &content
	obj.State = models.ObjectStateFetched
	obj.FetchedAt = &fetchedAt
	return nil
}

func (s *memStore) MarkImported(_ context.Context, id, packageID string, importedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.objects[id]
	for _, other := range s.objects {
		if other.GUID == obj.GUID {
			other.Current = false
		}
	}
	obj.PackageID = &packageID
	obj.State = models.ObjectStateImported
	obj.Current = true
	obj.ImportedAt = &importedAt
	return nil
}

func (s *memStore) SaveObjectError(_ context.Context, objectID, stage string, kind ErrorKind, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objectErrors = append(s.objectErrors, models.HarvestObjectError{
		HarvestObjectID: objectID, Stage: stage, Kind: string(kind), Message: message,
	})
	if obj, ok := s.objects[objectID]; ok {
		obj.State = models.ObjectStateErrored
	}
	return nil
}

func (s *memStore) SaveGatherError(_ context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gatherErrors = append(s.gatherErrors, models.HarvestGatherError{JobID: jobID, Message: message})
	return nil
}

func (s *memStore) addObject(obj *models.HarvestObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.ID] = obj
}

type memCatalog struct {
	mu       sync.Mutex
	packages map[string]*models.Package
	drafts   map[string]*models.PackageDraft
	saves    int
	failSave error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{packages: map[string]*models.Package{}, drafts: map[string]*models.PackageDraft{}}
}

func (c *memCatalog) ShowPackage(_ context.Context, id string) (*models.Package, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkg, ok := c.packages[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return pkg, nil
}

func (c *memCatalog) SavePackage(_ context.Context, draft *models.PackageDraft) (*models.Package, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSave != nil {
		return nil, c.failSave
	}
	c.saves++
	pkg := &models.Package{ID: draft.ID, Name: draft.Name, Title: draft.Title, OwnerOrg: draft.OwnerOrg}
	c.packages[draft.ID] = pkg
	cp := *draft
	c.drafts[draft.ID] = &cp
	return pkg, nil
}

type memAux struct {
	mu        sync.Mutex
	molecules map[string]models.MoleculeData
	related   map[[2]string]bool
	writes    int
}

func newMemAux() *memAux {
	return &memAux{molecules: map[string]models.MoleculeData{}, related: map[[2]string]bool{}}
}

func (a *memAux) WriteMolecule(_ context.Context, fact models.MoleculeData, alternateNames []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writes++
	if _, ok := a.molecules[fact.PackageID]; !ok {
		a.molecules[fact.PackageID] = fact
	}
	for _, name := range alternateNames {
		a.related[[2]string{fact.PackageID, name}] = true
	}
	return nil
}

type fsImages struct {
	dir     string
	renders int
}

func (f *fsImages) Ensure(_ context.Context, inchiKey string, render func(path string) error) (string, bool, error) {
	path := filepath.Join(f.dir, inchiKey+".png")
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := render(path); err != nil {
		return path, false, err
	}
	f.renders++
	return path, true, nil
}

type fakeClient struct {
	identifyErr error
	headers     []oaipmh.Header
	listErr     error
	records     map[string]*oaipmh.Record

	listCalls int
	visited   int
	lastArgs  oaipmh.ListArgs
}

func (c *fakeClient) Identify(context.Context) (*oaipmh.Identify, error) {
	if c.identifyErr != nil {
		return nil, c.identifyErr
	}
	return &oaipmh.Identify{RepositoryName: "fake"}, nil
}

func (c *fakeClient) ListIdentifiers(_ context.Context, args oaipmh.ListArgs, fn func(oaipmh.Header) bool) error {
	c.listCalls++
	c.lastArgs = args
	for _, h := range c.headers {
		c.visited++
		if !fn(h) {
			return nil
		}
	}
	return c.listErr
}

func (c *fakeClient) GetRecord(_ context.Context, identifier, prefix string) (*oaipmh.Record, error) {
	rec, ok := c.records[identifier]
	if !ok {
		return nil, &oaipmh.ProtocolError{Code: oaipmh.CodeIDDoesNotExist, Message: identifier}
	}
	return rec, nil
}

func jsonContainerRecord(id, datestamp, payload string, sets ...string) *oaipmh.Record {
	return &oaipmh.Record{
		Header:   oaipmh.Header{Identifier: id, Datestamp: datestamp, SetSpec: sets},
		Metadata: oaipmh.NewMetadata(map[string][]string{"json_data": {payload}}),
	}
}

const (
	testSourceID  = "massbank-source"
	testSourceURL = "http://repo.example/oai"
)

type testEnv struct {
	h       *Harvester
	store   *memStore
	catalog *memCatalog
	aux     *memAux
	images  *fsImages
	client  *fakeClient
}

func newTestEnv(t *testing.T, sourceConfig string) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   newMemStore(),
		catalog: newMemCatalog(),
		aux:     newMemAux(),
		images:  &fsImages{dir: t.TempDir()},
		client:  &fakeClient{records: map[string]*oaipmh.Record{}},
	}
	env.store.sources[testSourceID] = &models.HarvestSource{
		ID: testSourceID, URL: testSourceURL, Config: sourceConfig, OwnerOrg: "nfdi4chem",
	}
	factory := func(url string, opts oaipmh.Options) (providers.MetadataClient, error) {
		return env.client, nil
	}
	env.h = NewHarvester(env.store, env.catalog, env.aux, env.images, factory, zap.NewNop())
	env.h.Now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return env
}

// fetchedObject legt ein Objekt mit bereits kanonischem Inhalt an.
func (e *testEnv) fetchedObject(t *testing.T, id, guid, payload string) {
	t.Helper()
	content, err := Canonicalize(payload, []string{"massbank"}, "2024-01-01T10:00:00")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	e.store.addObject(&models.HarvestObject{
		ID: id, GUID: guid, JobID: "job-0", SourceID: testSourceID,
		Content: &content, State: models.ObjectStateFetched,
	})
}

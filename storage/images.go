package storage

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ImageStore legt Strukturbilder unter <Dir>/<InChIKey>.png ab und spiegelt neue Bilder
// optional in einen S3-Bucket.
type ImageStore struct {
	Dir    string
	Logger *zap.Logger

	S3      *s3.Client
	S3URL   string
	Bucket  string
	locks   [imageLockStripes]sync.Mutex
}

// imageLockStripes ist die feste Anzahl an Sperren; Schlüssel werden per Hash verteilt.
const imageLockStripes = 64

// NewImageStore erstellt einen ImageStore ohne S3-Spiegel.
func NewImageStore(dir string, logger *zap.Logger) *ImageStore {
	return &ImageStore{Dir: dir, Logger: logger}
}

// WithS3 aktiviert den S3-Spiegel.
func (s *ImageStore) WithS3(client *s3.Client, baseURL, bucket string) *ImageStore {
	s.S3, s.S3URL, s.Bucket = client, baseURL, bucket
	return s
}

// Path gibt den Ablagepfad für einen InChIKey zurück.
func (s *ImageStore) Path(inchiKey string) (string, error) {
	if inchiKey == "" || strings.ContainsAny(inchiKey, `/\`) || strings.Contains(inchiKey, "..") {
		return "", fmt.Errorf("invalid inchi key %q", inchiKey)
	}
	return filepath.Join(s.Dir, inchiKey+".png"), nil
}

// Ensure rendert das Bild nur, wenn es noch nicht existiert. created ist true, wenn
// render aufgerufen wurde und erfolgreich war.
func (s *ImageStore) Ensure(ctx context.Context, inchiKey string, render func(path string) error) (string, bool, error) {
	path, err := s.Path(inchiKey)
	if err != nil {
		return "", false, err
	}

	mu := s.lockFor(inchiKey)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return path, false, err
	}

	if err := render(path); err != nil {
		return path, false, err
	}
	s.mirror(ctx, inchiKey, path)
	return path, true, nil
}

func (s *ImageStore) lockFor(inchiKey string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(inchiKey))
	return &s.locks[h.Sum32()%imageLockStripes]
}

func (s *ImageStore) mirror(ctx context.Context, inchiKey, path string) {
	if s.S3 == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.Logger.Warn("Bild konnte nicht gelesen werden", zap.String("path", path), zap.Error(err))
		return
	}
	link, err := UploadFile(ctx, s.S3, s.S3URL, s.Bucket, "molecules/"+inchiKey+".png", "image/png", data)
	if err != nil {
		s.Logger.Warn("S3-Upload fehlgeschlagen", zap.String("inchi_key", inchiKey), zap.Error(err))
		return
	}
	s.Logger.Debug("Bild nach S3 gespiegelt", zap.String("url", link))
}

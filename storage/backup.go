package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectAPI ist der Teil des S3-Clients, den Backups brauchen.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DumpTarget beschreibt eine zu sichernde Postgres-Datenbank.
type DumpTarget struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Backup lädt gzip-komprimierte pg_dump-Sicherungen unter Prefix hoch und behält die
// neuesten Keep Stück.
type Backup struct {
	Client ObjectAPI
	Bucket string
	Prefix string
	Keep   int
	Logger *zap.Logger
}

// CreateDump führt pg_dump aus und gibt die gzip-komprimierte Ausgabe zurück.
func CreateDump(ctx context.Context, target DumpTarget) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", target.Host,
		"-p", strconv.Itoa(target.Port),
		"-U", target.User,
		"-d", target.Database,
		"-w", // Passwort wird über PGPASSWORD bereitgestellt
	)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", target.Password))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := io.Copy(gzipWriter, stdout); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("pg_dump %s: %w", target.Database, err)
	}
	return buf.Bytes(), nil
}

// Upload speichert einen Dump als <Prefix>backup-<Zeitstempel>.sql.gz.
func (b *Backup) Upload(ctx context.Context, data []byte, at time.Time) (string, error) {
	key := fmt.Sprintf("%sbackup-%s.sql.gz", b.Prefix, at.UTC().Format("2006-01-02T15-04-05Z"))
	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return "", err
	}
	b.Logger.Info("Backup hochgeladen", zap.String("bucket", b.Bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

// Rotate löscht alle Sicherungen unter Prefix außer den neuesten Keep. Fehler beim Löschen
// einzelner Objekte werden nur geloggt.
func (b *Backup) Rotate(ctx context.Context) (int, error) {
	output, err := b.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Bucket),
		Prefix: aws.String(b.Prefix),
	})
	if err != nil {
		return 0, err
	}

	if len(output.Contents) <= b.Keep {
		b.Logger.Info("Keine Rotation nötig", zap.Int("backups", len(output.Contents)), zap.Int("keep", b.Keep))
		return 0, nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return output.Contents[i].LastModified.After(*output.Contents[j].LastModified)
	})

	deleted := 0
	for _, obj := range output.Contents[b.Keep:] {
		b.Logger.Info("Lösche altes Backup", zap.String("key", aws.ToString(obj.Key)))
		_, err := b.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.Bucket),
			Key:    obj.Key,
		})
		if err != nil {
			b.Logger.Warn("Backup konnte nicht gelöscht werden", zap.String("key", aws.ToString(obj.Key)), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

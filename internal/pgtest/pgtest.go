// Package pgtest stellt Postgres-Datenbanken für Integrationstests bereit. Ist die
// angegebene Umgebungsvariable gesetzt, wird diese DSN verwendet; sonst startet ein
// Postgres-Container über testcontainers, der pro Testbinary geteilt wird.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image    = "postgres:16-alpine"
	user     = "harvest"
	password = "harvest"
	database = "harvest_test"
)

var (
	once      sync.Once
	container testcontainers.Container
	sharedDSN string
	startErr  error
)

// DSN liefert eine DSN für Tests. Im Short-Modus und ohne Docker wird der Test übersprungen.
func DSN(t *testing.T, envVar string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	if dsn := os.Getenv(envVar); dsn != "" {
		return dsn
	}
	once.Do(start)
	if startErr != nil {
		t.Skipf("no %s and no postgres container: %v", envVar, startErr)
	}
	return sharedDSN
}

func start() {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
				"POSTGRES_DB":       database,
			},
			// Postgres startet einmal zur Initialisierung und dann endgültig.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		startErr = err
		return
	}
	container = c

	host, err := c.Host(ctx)
	if err != nil {
		startErr = err
		return
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		startErr = err
		return
	}
	sharedDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port.Port(), user, password, database)
}

// Terminate stoppt den geteilten Container, falls einer gestartet wurde.
func Terminate() {
	if container != nil {
		_ = container.Terminate(context.Background())
	}
}

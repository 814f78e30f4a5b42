package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppName wird für Standardpfade (XDG) verwendet.
const AppName = "massbank-harvester"

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Katalog- und Harvest-Datenbank
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	// Zusatzdatenbank für molecule_data / related_resources
	AuxDBHost     string `envconfig:"AUX_DB_HOST" required:"true"`
	AuxDBPort     int    `envconfig:"AUX_DB_PORT" default:"5432"`
	AuxDBUser     string `envconfig:"AUX_DB_USER" required:"true"`
	AuxDBPassword string `envconfig:"AUX_DB_PASSWORD" required:"true"`
	AuxDBName     string `envconfig:"AUX_DB_NAME" required:"true"`
	AuxDBSSLMode  string `envconfig:"AUX_DB_SSLMODE" default:"disable"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 */6 * * *"`

	// OAI-PMH Transport
	OAIMaxRetries int `envconfig:"OAI_MAX_RETRIES" default:"3"`

	// Ablage der gerenderten Molekülbilder, leer = XDG-Datenverzeichnis
	ImageDir string `envconfig:"IMAGE_DIR"`

	// Optionaler S3-Spiegel für Molekülbilder
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	// Anzahl aufbewahrter Datenbank-Backups pro Datenbank
	BackupKeep int `envconfig:"BACKUP_KEEP" default:"4"`

	// Optionaler Event-Stream (kommagetrennte Broker-Liste)
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"harvest.packages"`
}

// DSN gibt den Data Source Name für die Katalog-Datenbank zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// AuxDSN gibt den Data Source Name für die Zusatzdatenbank zurück.
func (c *Config) AuxDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.AuxDBHost, c.AuxDBUser, c.AuxDBPassword, c.AuxDBName, c.AuxDBPort, c.AuxDBSSLMode)
}

// S3Enabled meldet, ob der S3-Spiegel konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3URL != ""
}

// Brokers liefert die Kafka-Broker als Liste.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return &c, err
	}
	if c.ImageDir == "" {
		c.ImageDir = filepath.Join(xdg.DataHome, AppName, "images")
	}
	return &c, nil
}

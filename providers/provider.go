package providers

import (
	"context"

	"massbank-harvester/providers/oaipmh"

	"go.uber.org/zap"
)

// MetadataClient ist das Interface, das jeder entfernte Metadaten-Endpunkt erfüllen muss.
type MetadataClient interface {
	// Identify dient als Lebenszeichen des Endpunkts.
	Identify(ctx context.Context) (*oaipmh.Identify, error)

	// ListIdentifiers ruft fn für jeden gefundenen Header auf, bis fn false zurückgibt.
	ListIdentifiers(ctx context.Context, args oaipmh.ListArgs, fn func(oaipmh.Header) bool) error

	// GetRecord holt einen einzelnen Datensatz im angegebenen Format.
	GetRecord(ctx context.Context, identifier, prefix string) (*oaipmh.Record, error)
}

// ClientFactory öffnet eine Sitzung gegen eine Quelle.
type ClientFactory func(url string, opts oaipmh.Options) (MetadataClient, error)

// NewOAIClientFactory gibt eine Factory für echte OAI-PMH-Clients zurück, die sich eine
// Reader-Registry und die Retry-Anzahl teilen.
func NewOAIClientFactory(registry *oaipmh.Registry, maxRetries int, logger *zap.Logger) ClientFactory {
	return func(url string, opts oaipmh.Options) (MetadataClient, error) {
		opts.Registry = registry
		if opts.MaxRetries == 0 {
			opts.MaxRetries = maxRetries
		}
		client, err := oaipmh.NewClient(url, opts, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

package gcs

import (
	"context"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// NewClient returns a GCS client. Credentials come from a service account
// file when one is configured, otherwise from a raw service account JSON
// payload (the GCP_CREDENTIALS form injected by CI). With neither, an
// unauthenticated client is returned: good enough to read the public
// feedback bucket, not to publish to it.
func NewClient(ctx context.Context, credentialFile, credentialJSON string) (*storage.Client, error) {
	if credentialFile != "" {
		return storage.NewClient(ctx, option.WithCredentialsFile(credentialFile))
	}
	if credentialJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialJSON)))
	}

	log.Info("no Google Cloud credentials configured, using anonymous storage access")
	return storage.NewClient(ctx, option.WithoutAuthentication())
}

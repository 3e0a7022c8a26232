package flags

import (
	"context"
	"os"

	"cloud.google.com/go/storage"
	"github.com/spf13/pflag"

	"github.com/dstack/feedback-pipeline/pkg/partition/gcs"
)

// GoogleCloudFlags contain configuration for Google Cloud storage access.
// Write credentials come either from a service account file or from the
// GCP_CREDENTIALS environment variable carrying the service account JSON
// payload (the form CI injects).
type GoogleCloudFlags struct {
	ServiceAccountCredentialFile string
	StorageBucket                string
}

func NewGoogleCloudFlags() *GoogleCloudFlags {
	return &GoogleCloudFlags{
		ServiceAccountCredentialFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		StorageBucket:                "dstack-feedback",
	}
}

func (f *GoogleCloudFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ServiceAccountCredentialFile,
		"google-service-account-credential-file",
		f.ServiceAccountCredentialFile,
		"location of a credential file described by https://cloud.google.com/docs/authentication/production")

	fs.StringVar(&f.StorageBucket, "google-storage-bucket", f.StorageBucket,
		"GCS bucket to mirror partitions to")
}

// GetStorageClient returns a GCS client. Without any credentials an
// unauthenticated client is returned, which is sufficient for reading the
// public feedback bucket but not for publishing.
func (f *GoogleCloudFlags) GetStorageClient(ctx context.Context) (*storage.Client, error) {
	return gcs.NewClient(ctx, f.ServiceAccountCredentialFile, os.Getenv("GCP_CREDENTIALS"))
}

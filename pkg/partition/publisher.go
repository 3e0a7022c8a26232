package partition

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

// Publisher mirrors partitions to a GCS bucket and reads them back for
// reconciliation. Local persistence is the durability floor; mirroring is
// best-effort and the pipeline treats upload errors as non-fatal.
type Publisher struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

func NewPublisher(client *storage.Client, bucket, prefix string) *Publisher {
	return &Publisher{
		bucket:     client.Bucket(bucket),
		bucketName: bucket,
		prefix:     prefix,
	}
}

// Upload copies a local partition's data file to the bucket under
// <prefix>/<partition>/issues.jsonl.
func (p *Publisher) Upload(ctx context.Context, partitionDir string) error {
	localPath := filepath.Join(partitionDir, DataFile)
	f, err := os.Open(localPath)
	if err != nil {
		return errors.Wrap(err, "partition file not found")
	}
	defer f.Close()

	objectPath := p.prefix + "/" + filepath.Base(partitionDir) + "/" + DataFile
	w := p.bucket.Object(objectPath).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return errors.Wrap(err, "error uploading partition")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "error finalizing partition upload")
	}

	log.Infof("uploaded %s to gs://%s/", objectPath, p.bucketName)
	return nil
}

// ListPartitions returns the partition data objects under the prefix in
// ascending partition order.
func (p *Publisher) ListPartitions(ctx context.Context) ([]string, error) {
	it := p.bucket.Objects(ctx, &storage.Query{Prefix: p.prefix + "/"})

	var objects []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error listing partitions")
		}
		if strings.HasSuffix(attrs.Name, "/"+DataFile) {
			objects = append(objects, attrs.Name)
		}
	}
	sort.Strings(objects)
	return objects, nil
}

// Download fetches one partition data object.
func (p *Publisher) Download(ctx context.Context, object string) ([]byte, error) {
	r, err := p.bucket.Object(object).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", object)
	}
	defer r.Close()
	return io.ReadAll(r)
}

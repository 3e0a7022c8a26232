package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dstack/feedback-pipeline/pkg/flags"
	"github.com/dstack/feedback-pipeline/pkg/flags/configflags"
	"github.com/dstack/feedback-pipeline/pkg/partition"
)

type ReconcileFlags struct {
	ConfigFlags      *configflags.ConfigFlags
	GoogleCloudFlags *flags.GoogleCloudFlags
	FromGCS          bool
	Output           string
}

func NewReconcileFlags() *ReconcileFlags {
	return &ReconcileFlags{
		ConfigFlags:      configflags.NewConfigFlags(),
		GoogleCloudFlags: flags.NewGoogleCloudFlags(),
		Output:           "data/issues_merged.jsonl",
	}
}

func (f *ReconcileFlags) BindFlags(fs *pflag.FlagSet) {
	f.ConfigFlags.BindFlags(fs)
	f.GoogleCloudFlags.BindFlags(fs)
	fs.BoolVar(&f.FromGCS, "from-gcs", f.FromGCS, "Reconcile the partitions in the GCS bucket instead of the local data directory")
	fs.StringVar(&f.Output, "output", f.Output, "Path of the merged row file to write")
}

func init() {
	f := NewReconcileFlags()

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge all partitions into one deduplicated dataset",
		Long: `Reconcile unions the column schema across all dated partitions, concatenates
their rows and deduplicates on iid keeping the latest-seen record, mirroring
what the dashboard does when it loads the dataset.`,
		Run: func(cmd *cobra.Command, args []string) {
			config, err := f.ConfigFlags.GetConfig()
			if err != nil {
				log.WithError(err).Fatal("could not load pipeline config")
			}

			var contents [][]byte
			if f.FromGCS {
				contents, err = fetchRemotePartitions(f, config.Storage.Prefix)
			} else {
				contents, err = readLocalPartitions(config.Storage.DataDir)
			}
			if err != nil {
				log.WithError(err).Fatal("could not read partitions")
			}

			dataset, err := partition.Reconcile(contents)
			if err != nil {
				log.WithError(err).Fatal("could not reconcile partitions")
			}

			if err := writeDataset(f.Output, dataset); err != nil {
				log.WithError(err).Fatal("could not write merged dataset")
			}
			log.Infof("wrote %d merged rows to %s", len(dataset.Rows), f.Output)
		},
	}

	f.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}

func readLocalPartitions(dataDir string) ([][]byte, error) {
	names, err := partition.ListLocal(dataDir)
	if err != nil {
		return nil, err
	}
	var contents [][]byte
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dataDir, name, partition.DataFile))
		if err != nil {
			return nil, err
		}
		contents = append(contents, data)
	}
	return contents, nil
}

func fetchRemotePartitions(f *ReconcileFlags, prefix string) ([][]byte, error) {
	ctx := context.TODO()
	client, err := f.GoogleCloudFlags.GetStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	publisher := partition.NewPublisher(client, f.GoogleCloudFlags.StorageBucket, prefix)

	objects, err := publisher.ListPartitions(ctx)
	if err != nil {
		return nil, err
	}
	var contents [][]byte
	for _, object := range objects {
		data, err := publisher.Download(ctx, object)
		if err != nil {
			return nil, err
		}
		contents = append(contents, data)
	}
	return contents, nil
}

func writeDataset(path string, dataset *partition.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	encoder := json.NewEncoder(out)
	for _, row := range dataset.Rows {
		if err := encoder.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

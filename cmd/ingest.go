package cmd

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dstack/feedback-pipeline/pkg/dataloader"
	"github.com/dstack/feedback-pipeline/pkg/dataloader/feedbackloader"
	"github.com/dstack/feedback-pipeline/pkg/dataloader/loaderwithmetrics"
	"github.com/dstack/feedback-pipeline/pkg/enrich"
	"github.com/dstack/feedback-pipeline/pkg/flags"
	"github.com/dstack/feedback-pipeline/pkg/flags/configflags"
	"github.com/dstack/feedback-pipeline/pkg/partition"
	"github.com/dstack/feedback-pipeline/pkg/runmeta"
	"github.com/dstack/feedback-pipeline/pkg/vocab"
)

type IngestFlags struct {
	ConfigFlags      *configflags.ConfigFlags
	GitLabFlags      *flags.GitLabFlags
	GoogleCloudFlags *flags.GoogleCloudFlags
	AIFlags          *flags.AIFlags
	SentimentFlags   *flags.SentimentFlags
	SkipUpload       bool
}

func NewIngestFlags() *IngestFlags {
	return &IngestFlags{
		ConfigFlags:      configflags.NewConfigFlags(),
		GitLabFlags:      flags.NewGitLabFlags(),
		GoogleCloudFlags: flags.NewGoogleCloudFlags(),
		AIFlags:          flags.NewAIFlags(),
		SentimentFlags:   flags.NewSentimentFlags(),
	}
}

func (f *IngestFlags) BindFlags(fs *pflag.FlagSet) {
	f.ConfigFlags.BindFlags(fs)
	f.GitLabFlags.BindFlags(fs)
	f.GoogleCloudFlags.BindFlags(fs)
	f.AIFlags.BindFlags(fs)
	f.SentimentFlags.BindFlags(fs)
	fs.BoolVar(&f.SkipUpload, "skip-upload", f.SkipUpload, "Write the partition locally but do not mirror it to GCS")
}

func init() {
	f := NewIngestFlags()

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, enrich and store new feedback issues",
		Run: func(cmd *cobra.Command, args []string) {
			config, err := f.ConfigFlags.GetConfig()
			if err != nil {
				log.WithError(err).Fatal("could not load pipeline config")
			}

			vocabulary, err := vocab.Load(config.Enrich.VocabularyDir, config.Enrich.VocabularyVersion)
			if err != nil {
				log.WithError(err).Fatal("could not load label vocabulary")
			}

			var publisher *partition.Publisher
			if !f.SkipUpload {
				gcsClient, err := f.GoogleCloudFlags.GetStorageClient(context.TODO())
				if err != nil {
					log.WithError(err).Error("could not create GCS client, partition will not be mirrored")
				} else {
					publisher = partition.NewPublisher(gcsClient, f.GoogleCloudFlags.StorageBucket, config.Storage.Prefix)
				}
			}

			llm := f.AIFlags.GetLLMClient()
			loader := feedbackloader.New(config,
				f.GitLabFlags.GetClient(config.Fetch),
				f.SentimentFlags.GetClient(),
				enrich.NewLabelClassifier(llm, vocabulary),
				enrich.NewOrgAttributor(llm),
				runmeta.NewTracker(config.Storage.MetadataPath),
				partition.NewStore(config.Storage.DataDir, config.Enrich.VocabularyVersion),
				publisher)

			loaders := loaderwithmetrics.New([]dataloader.DataLoader{loader})
			loaders.Load()

			if errs := loaders.Errors(); len(errs) > 0 {
				for _, err := range errs {
					log.Errorf("pipeline error: %+v", err)
				}
				os.Exit(1)
			}
		},
	}

	f.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}

package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dstack/feedback-pipeline/pkg/flags/configflags"
	"github.com/dstack/feedback-pipeline/pkg/vocab"
)

type VocabFlags struct {
	ConfigFlags *configflags.ConfigFlags
}

func init() {
	f := &VocabFlags{ConfigFlags: configflags.NewConfigFlags()}

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the configured label vocabulary",
		Run: func(cmd *cobra.Command, args []string) {
			config, err := f.ConfigFlags.GetConfig()
			if err != nil {
				log.WithError(err).Fatal("could not load pipeline config")
			}
			labels, err := vocab.Load(config.Enrich.VocabularyDir, config.Enrich.VocabularyVersion)
			if err != nil {
				log.WithError(err).Fatal("could not load label vocabulary")
			}
			for _, label := range labels {
				fmt.Println(label)
			}
		},
	}

	f.ConfigFlags.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}

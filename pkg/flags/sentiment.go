package flags

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/dstack/feedback-pipeline/pkg/enrich"
)

// SentimentFlags contains flags for the document sentiment service.
type SentimentFlags struct {
	Endpoint string
}

func NewSentimentFlags() *SentimentFlags {
	return &SentimentFlags{
		Endpoint: "https://language.googleapis.com/v2/documents:analyzeSentiment",
	}
}

func (f *SentimentFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Endpoint, "sentiment-endpoint", f.Endpoint,
		"URL of the sentiment analysis endpoint. Set SENTIMENT_API_KEY to specify an API key.")
}

func (f *SentimentFlags) GetClient() *enrich.SentimentClient {
	return enrich.NewSentimentClient(f.Endpoint, os.Getenv("SENTIMENT_API_KEY"))
}

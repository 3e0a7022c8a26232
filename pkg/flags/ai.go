package flags

import (
	"github.com/spf13/pflag"

	"github.com/dstack/feedback-pipeline/pkg/enrich"
)

// AIFlags contains flags for the OpenAI-compatible endpoint used for label
// classification and organization attribution.
type AIFlags struct {
	Endpoint string
	Model    string
}

func NewAIFlags() *AIFlags {
	return &AIFlags{}
}

func (f *AIFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Endpoint, "ai-endpoint", "",
		"URL for an OpenAI-compatible endpoint. Set OPENAI_API_KEY to specify an API key.")
	fs.StringVar(&f.Model, "ai-model", "gemini-2.0-flash",
		"The model to use for labeling and organization attribution")
}

func (f *AIFlags) GetLLMClient() *enrich.LLMClient {
	return enrich.NewLLMClient(f.Endpoint, f.Model)
}

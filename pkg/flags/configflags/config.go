package configflags

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
)

// ConfigFlags holds the location of the pipeline configuration file.
type ConfigFlags struct {
	Path string
}

func NewConfigFlags() *ConfigFlags {
	return &ConfigFlags{}
}

func (f *ConfigFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Path,
		"config",
		f.Path,
		"Pipeline configuration file; the built-in D-Stack defaults are used when unset")
}

// GetConfig loads the pipeline configuration, falling back to the built-in
// defaults when no file was given.
func (f *ConfigFlags) GetConfig() (*v1.PipelineConfig, error) {
	if f.Path == "" {
		return v1.Default(), nil
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.WithMessage(err, "could not load config")
	}
	config := v1.Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WithMessage(err, "couldn't unmarshal config")
	}

	return config, nil
}

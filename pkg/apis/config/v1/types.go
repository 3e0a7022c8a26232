package v1

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that round-trips through YAML as a string like
// "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// PipelineConfig is the immutable tuning and business-rule configuration for
// one pipeline run. All exclusion lists, pacing values and the vocabulary
// version live here rather than in package constants so that tests can run
// with their own values (and without real rate-limit sleeps).
type PipelineConfig struct {
	Fetch       FetchConfig       `yaml:"fetch"`
	Clean       CleanConfig       `yaml:"clean"`
	Enrich      EnrichConfig      `yaml:"enrich"`
	Postprocess PostprocessConfig `yaml:"postprocess"`
	Storage     StorageConfig     `yaml:"storage"`
}

type FetchConfig struct {
	// BaseURL is the GitLab instance to fetch from.
	BaseURL string `yaml:"baseURL"`
	// Project is the "namespace/project" path of the feedback project.
	Project string `yaml:"project"`
	// PerPage is the listing page size.
	PerPage int `yaml:"perPage"`
	// RequestTimeout bounds each page request.
	RequestTimeout Duration `yaml:"requestTimeout"`
}

type CleanConfig struct {
	// ExcludeIIDs are seed/test issues dropped during cleaning.
	ExcludeIIDs []int `yaml:"excludeIIDs"`
	// ExcludeDescriptions are cleaned description values that mark an issue
	// as an empty or test submission.
	ExcludeDescriptions []string `yaml:"excludeDescriptions"`
	// FormTitlePrefix marks issues submitted through the website feedback form.
	FormTitlePrefix string `yaml:"formTitlePrefix"`
	// NonFormPage is the form_page sentinel for issues filed directly.
	NonFormPage string `yaml:"nonFormPage"`
	// DescriptionBoilerplate is stripped verbatim from descriptions.
	DescriptionBoilerplate string `yaml:"descriptionBoilerplate"`
}

type EnrichConfig struct {
	// BatchSize is the number of issues between progress commits/log lines.
	BatchSize int `yaml:"batchSize"`
	// SuccessDelay is slept after each successful inference call.
	SuccessDelay Duration `yaml:"successDelay"`
	// ErrorDelay is slept after a failed inference call.
	ErrorDelay Duration `yaml:"errorDelay"`
	// VocabularyVersion selects the keywords_config_v<N>.txt label list.
	VocabularyVersion int `yaml:"vocabularyVersion"`
	// VocabularyDir is the directory holding the versioned label lists.
	VocabularyDir string `yaml:"vocabularyDir"`
}

type PostprocessConfig struct {
	// ExcludePages are form_page values whose records are dropped.
	ExcludePages []string `yaml:"excludePages"`
	// SecondRoundYear is the created_at year mapped to feedback round 2.
	// Every other year maps to round 1.
	SecondRoundYear int `yaml:"secondRoundYear"`
}

type StorageConfig struct {
	// DataDir is the local partition root.
	DataDir string `yaml:"dataDir"`
	// MetadataPath is the run metadata JSON file.
	MetadataPath string `yaml:"metadataPath"`
	// Bucket is the GCS bucket partitions are mirrored to.
	Bucket string `yaml:"bucket"`
	// Prefix is the object prefix inside the bucket.
	Prefix string `yaml:"prefix"`
}

// Default returns the production configuration for the D-Stack consultation
// project. A YAML config file overrides it wholesale.
func Default() *PipelineConfig {
	excludeIIDs := make([]int, 0, 8)
	for iid := 1; iid <= 8; iid++ {
		excludeIIDs = append(excludeIIDs, iid)
	}
	return &PipelineConfig{
		Fetch: FetchConfig{
			BaseURL:        "https://gitlab.opencode.de",
			Project:        "dstack/d-stack-home",
			PerPage:        100,
			RequestTimeout: Duration(30 * time.Second),
		},
		Clean: CleanConfig{
			ExcludeIIDs:            excludeIIDs,
			ExcludeDescriptions:    []string{"", "test", "Test"},
			FormTitlePrefix:        "Feedback für die Seite",
			NonFormPage:            "Via OpenCode",
			DescriptionBoilerplate: "**Feedback:** <br>",
		},
		Enrich: EnrichConfig{
			BatchSize:         10,
			SuccessDelay:      Duration(2 * time.Second),
			ErrorDelay:        Duration(5 * time.Second),
			VocabularyVersion: 1,
			VocabularyDir:     "keyword_lists",
		},
		Postprocess: PostprocessConfig{
			ExcludePages: []string{
				"/beteiligung?utm_source=chatgpt.com",
				"/wtf",
				"/landkarte/ Tech-Stack Aufnahmekriterien & Prozess",
			},
			SecondRoundYear: 2026,
		},
		Storage: StorageConfig{
			DataDir:      "data/issues_postprocessed",
			MetadataPath: "data/run_metadata.json",
			Bucket:       "dstack-feedback",
			Prefix:       "data",
		},
	}
}

package index

import "fmt"

// Field names shared by the index mapping, the ingested documents and the
// kNN query.
const (
	TextField   = "text"
	VectorField = "vector_field"
)

const (
	DefaultShards    = 3
	DefaultReplicas  = 2
	DefaultSpaceType = "cosinesimil"
	DefaultDimension = 1536
)

var spaceTypes = map[string]bool{
	"l2":           true,
	"l1":           true,
	"linf":         true,
	"cosinesimil":  true,
	"innerproduct": true,
}

// IndexSettings shapes the kNN index created for page embeddings.
type IndexSettings struct {
	Shards    int    `yaml:"shards"`
	Replicas  int    `yaml:"replicas"`
	SpaceType string `yaml:"space_type"`
	Dimension int    `yaml:"dimension"`
}

// DefaultIndexSettings matches the output of the Titan text embedding model.
func DefaultIndexSettings() IndexSettings {
	return IndexSettings{
		Shards:    DefaultShards,
		Replicas:  DefaultReplicas,
		SpaceType: DefaultSpaceType,
		Dimension: DefaultDimension,
	}
}

// Validate checks the settings before they are sent.
func (s IndexSettings) Validate() error {
	if s.Shards < 1 {
		return fmt.Errorf("%w: shards must be at least 1", ErrInvalidSettings)
	}
	if s.Replicas < 0 {
		return fmt.Errorf("%w: replicas cannot be negative", ErrInvalidSettings)
	}
	if !spaceTypes[s.SpaceType] {
		return fmt.Errorf("%w: unknown space type %q", ErrInvalidSettings, s.SpaceType)
	}
	if s.Dimension < 1 || s.Dimension > 16000 {
		return fmt.Errorf("%w: dimension must be between 1 and 16000", ErrInvalidSettings)
	}
	return nil
}

type createIndexBody struct {
	Settings settingsBody `json:"settings"`
	Mappings mappingsBody `json:"mappings"`
}

type settingsBody struct {
	Index indexSettingsBody `json:"index"`
}

type indexSettingsBody struct {
	NumberOfShards   int    `json:"number_of_shards"`
	NumberOfReplicas int    `json:"number_of_replicas"`
	KNN              bool   `json:"knn"`
	KNNSpaceType     string `json:"knn.space_type"`
}

type mappingsBody struct {
	Properties map[string]fieldMapping `json:"properties"`
}

type fieldMapping struct {
	Type      string `json:"type"`
	Analyzer  string `json:"analyzer,omitempty"`
	Dimension int    `json:"dimension,omitempty"`
}

func (s IndexSettings) body() createIndexBody {
	return createIndexBody{
		Settings: settingsBody{Index: indexSettingsBody{
			NumberOfShards:   s.Shards,
			NumberOfReplicas: s.Replicas,
			KNN:              true,
			KNNSpaceType:     s.SpaceType,
		}},
		Mappings: mappingsBody{Properties: map[string]fieldMapping{
			TextField:   {Type: "text", Analyzer: "standard"},
			VectorField: {Type: "knn_vector", Dimension: s.Dimension},
		}},
	}
}

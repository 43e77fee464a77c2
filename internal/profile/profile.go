package profile

import (
	"strings"

	"docuchat/internal/service"
)

// Config holds the retrieval and generation parameters bundled by a profile.
// SemanticWeight and LexicalWeight are deliberately unconstrained: the source
// configuration never required them to sum to 1, so combined scores are only
// comparable within a single profile.
type Config struct {
	SimilarityThreshold  float64 `json:"similarityThreshold"`
	MaxChunks            int     `json:"maxChunks"`
	SemanticWeight       float64 `json:"semanticWeight"`
	LexicalWeight        float64 `json:"lexicalWeight"`
	Temperature          float64 `json:"temperature"`
	ModelName            string  `json:"modelName"`
	ChunkSize            int     `json:"chunkSize"`
	ChunkOverlap         int     `json:"chunkOverlap"`
	MaxContextTokens     int     `json:"maxContextTokens"`
	TargetTokensPerChunk int     `json:"targetTokensPerChunk"`
}

// Characteristics describes a profile in free text for display purposes.
type Characteristics struct {
	Focus           string `json:"focus"`
	ExpectedSpeed   string `json:"expectedSpeed"`
	ExpectedQuality string `json:"expectedQuality"`
	BestFor         string `json:"bestFor"`
	Tradeoffs       string `json:"tradeoffs"`
}

// Profile is a named, selectable bundle of retrieval/generation parameters.
// IsCustom is set at creation and never changes; it decides delete semantics
// (built-ins are hidden, customs are hard-deleted).
type Profile struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Config          Config          `json:"config"`
	Characteristics Characteristics `json:"characteristics"`
	IsCustom        bool            `json:"isCustom"`
	IsActive        bool            `json:"isActive"`
}

// Input is the caller-supplied payload for creating a custom profile.
// Zero config fields are filled from defaults before validation.
type Input struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Config          Config          `json:"config"`
	Characteristics Characteristics `json:"characteristics,omitempty"`
}

// Validate checks an Input for structural problems. Collision checks against
// existing profiles are the registry's job, not Validate's.
func (in *Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &service.ValidationError{Field: "name", Message: "name must not be empty"}
	}
	if in.Config.SemanticWeight < 0 {
		return &service.ValidationError{Field: "config.semanticWeight", Message: "weight must not be negative"}
	}
	if in.Config.LexicalWeight < 0 {
		return &service.ValidationError{Field: "config.lexicalWeight", Message: "weight must not be negative"}
	}
	if in.Config.SimilarityThreshold < 0 || in.Config.SimilarityThreshold > 1 {
		return &service.ValidationError{Field: "config.similarityThreshold", Message: "threshold must be in [0,1]"}
	}
	if in.Config.MaxChunks < 0 {
		return &service.ValidationError{Field: "config.maxChunks", Message: "maxChunks must not be negative"}
	}
	return nil
}

// ApplyDefaults fills unset config fields from the balanced defaults so a
// partial create payload still yields a usable profile.
func (in *Input) ApplyDefaults() {
	def := defaultConfig()
	if in.Config.MaxChunks == 0 {
		in.Config.MaxChunks = def.MaxChunks
	}
	if in.Config.SemanticWeight == 0 && in.Config.LexicalWeight == 0 {
		in.Config.SemanticWeight = def.SemanticWeight
		in.Config.LexicalWeight = def.LexicalWeight
	}
	if in.Config.Temperature == 0 {
		in.Config.Temperature = def.Temperature
	}
	if in.Config.ModelName == "" {
		in.Config.ModelName = def.ModelName
	}
	if in.Config.ChunkSize == 0 {
		in.Config.ChunkSize = def.ChunkSize
	}
	if in.Config.ChunkOverlap == 0 {
		in.Config.ChunkOverlap = def.ChunkOverlap
	}
	if in.Config.MaxContextTokens == 0 {
		in.Config.MaxContextTokens = def.MaxContextTokens
	}
	if in.Config.TargetTokensPerChunk == 0 {
		in.Config.TargetTokensPerChunk = def.TargetTokensPerChunk
	}
}

// Slugify derives a stable profile id from a display name: lowercase,
// non-alphanumeric runs collapsed to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

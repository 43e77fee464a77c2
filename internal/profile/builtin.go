package profile

// Built-in profile ids. These are seeded once at startup and can only be
// hidden, never deleted.
const (
	IDFast         = "fast"
	IDBalanced     = "balanced"
	IDQuality      = "quality"
	IDLexicalHeavy = "lexical-heavy"
)

// DefaultActiveID is the profile activated on first seed.
const DefaultActiveID = IDBalanced

func defaultConfig() Config {
	return Config{
		SimilarityThreshold:  0.70,
		MaxChunks:            5,
		SemanticWeight:       0.6,
		LexicalWeight:        0.4,
		Temperature:          0.3,
		ModelName:            "gpt-4o-mini",
		ChunkSize:            1000,
		ChunkOverlap:         200,
		MaxContextTokens:     3000,
		TargetTokensPerChunk: 600,
	}
}

// Builtins returns the seed set of built-in profiles. The balanced profile is
// marked active; seeding only applies these rows when they do not exist yet.
func Builtins() []Profile {
	balanced := defaultConfig()

	fast := defaultConfig()
	fast.SimilarityThreshold = 0.75
	fast.MaxChunks = 3
	fast.MaxContextTokens = 1500
	fast.TargetTokensPerChunk = 400

	quality := defaultConfig()
	quality.SimilarityThreshold = 0.65
	quality.MaxChunks = 8
	quality.Temperature = 0.2
	quality.ModelName = "gpt-4o"
	quality.MaxContextTokens = 6000
	quality.TargetTokensPerChunk = 800

	lexical := defaultConfig()
	lexical.SemanticWeight = 0.3
	lexical.LexicalWeight = 0.7
	lexical.SimilarityThreshold = 0.80

	return []Profile{
		{
			ID:          IDFast,
			Name:        "Fast",
			Description: "Smallest context and strictest threshold for quick answers.",
			Config:      fast,
			Characteristics: Characteristics{
				Focus:           "latency",
				ExpectedSpeed:   "fastest",
				ExpectedQuality: "good",
				BestFor:         "short factual questions",
				Tradeoffs:       "may miss context that sits just below the threshold",
			},
		},
		{
			ID:          IDBalanced,
			Name:        "Balanced",
			Description: "Default blend of semantic and lexical relevance.",
			Config:      balanced,
			IsActive:    true,
			Characteristics: Characteristics{
				Focus:           "general use",
				ExpectedSpeed:   "fast",
				ExpectedQuality: "high",
				BestFor:         "most questions",
				Tradeoffs:       "none in particular",
			},
		},
		{
			ID:          IDQuality,
			Name:        "Quality",
			Description: "Wider retrieval and larger context for thorough answers.",
			Config:      quality,
			Characteristics: Characteristics{
				Focus:           "answer depth",
				ExpectedSpeed:   "slower",
				ExpectedQuality: "highest",
				BestFor:         "complex or multi-part questions",
				Tradeoffs:       "larger context, slower generation",
			},
		},
		{
			ID:          IDLexicalHeavy,
			Name:        "Lexical heavy",
			Description: "Favors exact keyword matches over semantic similarity.",
			Config:      lexical,
			Characteristics: Characteristics{
				Focus:           "exact terminology",
				ExpectedSpeed:   "fast",
				ExpectedQuality: "high for term lookups",
				BestFor:         "names, codes and domain jargon",
				Tradeoffs:       "weaker on paraphrased questions",
			},
		},
	}
}

type localizedText struct {
	Name        string
	Description string
}

// builtinLocalizations carries display-text overrides per language for the
// built-in profiles. The source deployment was Hebrew-facing, so "he" is the
// one shipped localization; unknown languages fall back to the defaults.
var builtinLocalizations = map[string]map[string]localizedText{
	"he": {
		IDFast:         {Name: "מהיר", Description: "הקשר מצומצם וסף מחמיר לתשובות מהירות."},
		IDBalanced:     {Name: "מאוזן", Description: "שילוב ברירת מחדל של דמיון סמנטי והתאמה מילולית."},
		IDQuality:      {Name: "איכות", Description: "אחזור רחב והקשר גדול לתשובות מעמיקות."},
		IDLexicalHeavy: {Name: "מילולי", Description: "מעדיף התאמות מילות מפתח מדויקות על פני דמיון סמנטי."},
	},
}

// Localize returns a copy of p with display fields translated for language,
// when a translation exists. Config and lifecycle fields are untouched.
func Localize(p Profile, language string) Profile {
	texts, ok := builtinLocalizations[language]
	if !ok || p.IsCustom {
		return p
	}
	if t, ok := texts[p.ID]; ok {
		p.Name = t.Name
		p.Description = t.Description
	}
	return p
}

package matcher

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Label is the confidence tag attached to a ranked candidate.
type Label string

const (
	LabelExactSingle   Label = "Exact Single Match"
	LabelExactMultiple Label = "Exact Multiple Match"
	LabelTop           Label = "Top Match"
	LabelBestBelow     Label = "Best Match (below threshold)"
	LabelOther         Label = "Other Possible Match"
	LabelNoMatch       Label = "No Match"
)

// EmployeeRecord is one canonical catalog entry. All fields are non-nil strings
// after normalization; empty is a valid value.
type EmployeeRecord struct {
	EmpID     string `json:"empId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

// MatchCandidate is a scored employee for one username.
type MatchCandidate struct {
	Employee EmployeeRecord `json:"employee"`
	Score    float64        `json:"score"`
	Rank     int            `json:"rank"`
	Label    Label          `json:"label"`
	Exact    bool           `json:"exact"`
}

// ScoreText formats the score as a percentage string.
func (c MatchCandidate) ScoreText() string {
	return fmt.Sprintf("%.2f%%", c.Score)
}

// NoMatch reports whether c is the sentinel emitted when nothing scored.
func (c MatchCandidate) NoMatch() bool {
	return c.Label == LabelNoMatch
}

// Result holds the ranked candidates for a single input username.
type Result struct {
	Username   string           `json:"username"`
	Candidates []MatchCandidate `json:"candidates"`
	Ambiguous  bool             `json:"ambiguous"`
	Refined    bool             `json:"refined"`
}

// Weights blend the three string-similarity signals.
type Weights struct {
	Levenshtein float64 `json:"levenshtein"`
	Partial     float64 `json:"partial"`
	TokenSet    float64 `json:"tokenSet"`
}

// PhoneticWeights are the points awarded per phonetic-code equality.
type PhoneticWeights struct {
	SoundexLast    float64 `json:"soundexLast"`
	MetaphoneLast  float64 `json:"metaphoneLast"`
	SoundexFirst   float64 `json:"soundexFirst"`
	MetaphoneFirst float64 `json:"metaphoneFirst"`
}

// Bonuses are additive points for the independent heuristics.
type Bonuses struct {
	IDSubstring        float64 `json:"idSubstring"`
	Initial            float64 `json:"initial"`
	SecondInitial      float64 `json:"secondInitial"`
	FirstNameSubstring float64 `json:"firstNameSubstring"`
	LastNameSubstring  float64 `json:"lastNameSubstring"`
}

// RankingConfig controls truncation, labeling and ambiguity detection.
type RankingConfig struct {
	TopGroup      int     `json:"topGroup"`
	Additional    int     `json:"additional"`
	Threshold     float64 `json:"threshold"`
	AmbiguityBand float64 `json:"ambiguityBand"`
}

// ExactScores are the scores assigned by the deterministic pattern path.
type ExactScores struct {
	Single   float64 `json:"single"`
	Multiple float64 `json:"multiple"`
}

// RefinerConfig points at the optional tie-break classifier artifacts.
type RefinerConfig struct {
	Enabled            bool    `json:"enabled"`
	OrtDLL             string  `json:"ortDll"`
	ModelPath          string  `json:"modelPath"`
	FeatureColumnsPath string  `json:"featureColumnsPath"`
	InputName          string  `json:"inputName"`
	OutputName         string  `json:"outputName"`
	Divisor            float64 `json:"divisor"`
}

// Config is the immutable scoring configuration handed to an Engine.
type Config struct {
	Weights  Weights         `json:"weights"`
	Phonetic PhoneticWeights `json:"phonetic"`
	Bonus    Bonuses         `json:"bonus"`
	Ranking  RankingConfig   `json:"ranking"`
	Exact    ExactScores     `json:"exact"`
	Refiner  RefinerConfig   `json:"refiner"`
	Columns  ColumnAliases   `json:"columns"`
	Workers  int             `json:"workers"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Weights:  Weights{Levenshtein: 0.4, Partial: 0.3, TokenSet: 0.3},
		Phonetic: PhoneticWeights{SoundexLast: 6, MetaphoneLast: 7, SoundexFirst: 3, MetaphoneFirst: 3},
		Bonus: Bonuses{
			IDSubstring:        14,
			Initial:            5,
			SecondInitial:      5,
			FirstNameSubstring: 5,
			LastNameSubstring:  8,
		},
		Ranking: RankingConfig{TopGroup: 2, Additional: 2, Threshold: 50, AmbiguityBand: 2},
		Exact:   ExactScores{Single: 100, Multiple: 95},
		Refiner: RefinerConfig{InputName: "float_input", OutputName: "probabilities", Divisor: 1000},
		Columns: defaultColumnAliases(),
	}
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults repairs structural zero values. Weights and bonuses are left
// alone because zero is a meaningful setting for them.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Ranking.TopGroup <= 0 && c.Ranking.Additional <= 0 {
		c.Ranking.TopGroup = def.Ranking.TopGroup
		c.Ranking.Additional = def.Ranking.Additional
	}
	if c.Exact.Single <= 0 {
		c.Exact.Single = def.Exact.Single
	}
	if c.Exact.Multiple <= 0 {
		c.Exact.Multiple = def.Exact.Multiple
	}
	if c.Refiner.Divisor <= 0 {
		c.Refiner.Divisor = def.Refiner.Divisor
	}
	if c.Refiner.InputName == "" {
		c.Refiner.InputName = def.Refiner.InputName
	}
	if c.Refiner.OutputName == "" {
		c.Refiner.OutputName = def.Refiner.OutputName
	}
	c.Columns = c.Columns.withDefaults()
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

// DisplayBudget is the maximum number of candidates reported per username.
func (c Config) DisplayBudget() int {
	return c.Ranking.TopGroup + c.Ranking.Additional
}

// Validate checks the semantic constraints a JSON schema cannot express.
func (c Config) Validate() error {
	w := c.Weights
	if w.Levenshtein < 0 || w.Partial < 0 || w.TokenSet < 0 {
		return fmt.Errorf("similarity weights must be non-negative")
	}
	if sum := w.Levenshtein + w.Partial + w.TokenSet; sum > 1+1e-9 {
		return fmt.Errorf("similarity weights sum to %.3f, want <= 1", sum)
	}
	p := c.Phonetic
	if p.SoundexLast < 0 || p.MetaphoneLast < 0 || p.SoundexFirst < 0 || p.MetaphoneFirst < 0 {
		return fmt.Errorf("phonetic weights must be non-negative")
	}
	b := c.Bonus
	if b.IDSubstring < 0 || b.Initial < 0 || b.SecondInitial < 0 || b.FirstNameSubstring < 0 || b.LastNameSubstring < 0 {
		return fmt.Errorf("bonuses must be non-negative")
	}
	if c.Ranking.TopGroup < 0 || c.Ranking.Additional < 0 {
		return fmt.Errorf("ranking group sizes must be non-negative")
	}
	if c.Ranking.AmbiguityBand < 0 {
		return fmt.Errorf("ambiguity band must be non-negative")
	}
	if c.Exact.Single <= 0 || c.Exact.Single > 100 || c.Exact.Multiple <= 0 || c.Exact.Multiple > c.Exact.Single {
		return fmt.Errorf("exact scores must satisfy 0 < multiple <= single <= 100")
	}
	if c.Refiner.Divisor <= 0 {
		return fmt.Errorf("refiner divisor must be positive")
	}
	return nil
}

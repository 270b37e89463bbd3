package neat

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion" yaml:"fitness_criterion"` // "max", "min" or "mean"
	FitnessThreshold     float64 `ini:"fitness_threshold" yaml:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction" yaml:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination" yaml:"no_fitness_termination"`
	Seed                 int64   `ini:"seed" yaml:"seed"`                             // 0 seeds from the clock
	EvaluationWorkers    int     `ini:"evaluation_workers" yaml:"evaluation_workers"` // <=1 evaluates sequentially
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	// --- Top-level Genome parameters ---
	NumInputs                        int     `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs" yaml:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden" yaml:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward" yaml:"feed_forward"` // If true, recurrent connections are disallowed
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob" yaml:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob" yaml:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation" yaml:"single_structural_mutation"`
	MaxStructuralMutations           int     `ini:"max_structural_mutations" yaml:"max_structural_mutations"` // <=0 means unlimited
	StructuralMutationSurer          string  `ini:"structural_mutation_surer" yaml:"structural_mutation_surer"`
	InitialConnection                string  `ini:"initial_connection" yaml:"initial_connection"` // e.g. "full all", "partial 0.5 hidden"

	// --- Node Gene parameters ---
	BiasDefault     string  `ini:"bias_default" yaml:"bias_default"` // empty draws from the init distribution
	BiasInitMean    float64 `ini:"bias_init_mean" yaml:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev" yaml:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type" yaml:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate" yaml:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate" yaml:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power" yaml:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value" yaml:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value" yaml:"bias_min_value"`

	ResponseDefault     string  `ini:"response_default" yaml:"response_default"`
	ResponseInitMean    float64 `ini:"response_init_mean" yaml:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev" yaml:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type" yaml:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate" yaml:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate" yaml:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power" yaml:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value" yaml:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value" yaml:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default" yaml:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" " yaml:"activation_options"`
	ActivationMutateRate float64  `ini:"activation_mutate_rate" yaml:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default" yaml:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" " yaml:"aggregation_options"`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate" yaml:"aggregation_mutate_rate"`

	// --- Connection Gene parameters ---
	WeightDefault     string  `ini:"weight_default" yaml:"weight_default"`
	WeightInitMean    float64 `ini:"weight_init_mean" yaml:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev" yaml:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type" yaml:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate" yaml:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value" yaml:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value" yaml:"weight_min_value"`

	EnabledDefault     string  `ini:"enabled_default" yaml:"enabled_default"` // "true", "false" or "random"
	EnabledMutateRate  float64 `ini:"enabled_mutate_rate" yaml:"enabled_mutate_rate"`
	EnabledReplaceRate float64 `ini:"enabled_replace_rate" yaml:"enabled_replace_rate"` // added to the enabled mutation rate on every mutation

	// --- Calculated/Derived ---
	InputKeys    []int              `ini:"-" yaml:"-"`
	OutputKeys   []int              `ini:"-" yaml:"-"`
	Connectivity ConnectivityPolicy `ini:"-" yaml:"-"`

	bias, response, weight  *FloatAttributeConfig
	enabled                 *BoolAttributeConfig
	activation, aggregation *ChoiceAttributeConfig
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism" yaml:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold" yaml:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size" yaml:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc   string  `ini:"species_fitness_func" yaml:"species_fitness_func"`
	MaxStagnation        int     `ini:"max_stagnation" yaml:"max_stagnation"`
	SpeciesElitism       int     `ini:"species_elitism" yaml:"species_elitism"`
	ImprovementThreshold float64 `ini:"improvement_threshold" yaml:"improvement_threshold"`
}

// LoadConfig loads configuration parameters from a file. Files ending in
// .yaml or .yml are read as YAML, anything else as the INI layout.
func LoadConfig(filePath string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return loadYAMLConfig(filePath)
	default:
		return loadINIConfig(filePath)
	}
}

func loadYAMLConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINIConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true, // Allow # comments starting with # or ;
		UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := &Config{}

	// Map sections to structs
	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}

	// Bools with trailing comments do not always survive MapTo.
	neatSection := cfg.Section("NEAT")
	if key, err := neatSection.GetKey("no_fitness_termination"); err == nil {
		config.Neat.NoFitnessTermination, _ = key.Bool()
	}
	if key, err := neatSection.GetKey("reset_on_extinction"); err == nil {
		config.Neat.ResetOnExtinction, _ = key.Bool()
	}
	genomeSection := cfg.Section("DefaultGenome")
	if key, err := genomeSection.GetKey("feed_forward"); err == nil {
		config.Genome.FeedForward, _ = key.Bool()
	}
	if key, err := genomeSection.GetKey("single_structural_mutation"); err == nil {
		config.Genome.SingleStructuralMutation, _ = key.Bool()
	}

	// --- Explicitly clean potentially problematic string values ---
	for _, s := range []*string{
		&config.Genome.BiasInitType, &config.Genome.ResponseInitType, &config.Genome.WeightInitType,
		&config.Genome.BiasDefault, &config.Genome.ResponseDefault, &config.Genome.WeightDefault,
		&config.Genome.ActivationDefault, &config.Genome.AggregationDefault, &config.Genome.EnabledDefault,
		&config.Genome.InitialConnection, &config.Genome.StructuralMutationSurer,
		&config.Neat.FitnessCriterion, &config.Stagnation.SpeciesFitnessFunc,
	} {
		*s = cleanIniString(*s)
	}
	for i, opt := range config.Genome.ActivationOptions {
		config.Genome.ActivationOptions[i] = strings.TrimSpace(opt)
	}
	for i, opt := range config.Genome.AggregationOptions {
		config.Genome.AggregationOptions[i] = strings.TrimSpace(opt)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a validated configuration sized for a two-input,
// one-output problem such as XOR.
func DefaultConfig() *Config {
	config := &Config{
		Neat: NeatConfig{
			PopSize:          150,
			FitnessCriterion: "max",
			FitnessThreshold: 3.9,
		},
		Genome: GenomeConfig{
			NumInputs:                        2,
			NumOutputs:                       1,
			FeedForward:                      true,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.5,
			ConnAddProb:                      0.5,
			ConnDeleteProb:                   0.5,
			NodeAddProb:                      0.2,
			NodeDeleteProb:                   0.2,
			InitialConnection:                "full all",

			BiasInitStdev:   1.0,
			BiasReplaceRate: 0.1,
			BiasMutateRate:  0.7,
			BiasMutatePower: 0.5,
			BiasMaxValue:    30,
			BiasMinValue:    -30,

			ResponseInitMean: 1.0,
			ResponseMaxValue: 30,
			ResponseMinValue: -30,

			ActivationDefault: "sigmoid",
			ActivationOptions: []string{"sigmoid"},

			AggregationDefault: "sum",
			AggregationOptions: []string{"sum"},

			WeightInitStdev:   1.0,
			WeightReplaceRate: 0.1,
			WeightMutateRate:  0.8,
			WeightMutatePower: 0.5,
			WeightMaxValue:    30,
			WeightMinValue:    -30,

			EnabledDefault:    "true",
			EnabledMutateRate: 0.01,
		},
		Reproduction: ReproductionConfig{
			Elitism:           2,
			SurvivalThreshold: 0.2,
			MinSpeciesSize:    2,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "max",
			MaxStagnation:      20,
			SpeciesElitism:     2,
		},
	}
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return config
}

// Validate fills defaults, checks ranges and derives the values the rest of
// the package relies on (input/output keys, connectivity policy and the shared
// attribute configurations). It must be called after building a Config by hand.
func (c *Config) Validate() error {
	// Set Defaults (where neat-python had them hardcoded or implied)
	if c.Neat.FitnessCriterion == "" {
		c.Neat.FitnessCriterion = "max"
	}
	if c.Genome.BiasInitType == "" {
		c.Genome.BiasInitType = "gaussian"
	}
	if c.Genome.ResponseInitType == "" {
		c.Genome.ResponseInitType = "gaussian"
	}
	if c.Genome.WeightInitType == "" {
		c.Genome.WeightInitType = "gaussian"
	}
	if c.Genome.ActivationDefault == "" {
		c.Genome.ActivationDefault = "random"
	}
	if c.Genome.AggregationDefault == "" {
		c.Genome.AggregationDefault = "random"
	}
	if c.Genome.EnabledDefault == "" {
		c.Genome.EnabledDefault = "true"
	}
	if c.Genome.InitialConnection == "" {
		c.Genome.InitialConnection = "unconnected"
	}
	if c.Reproduction.MinSpeciesSize == 0 {
		c.Reproduction.MinSpeciesSize = 1
	}
	if c.Reproduction.SurvivalThreshold == 0 {
		c.Reproduction.SurvivalThreshold = 0.2
	}
	if c.Stagnation.SpeciesFitnessFunc == "" {
		c.Stagnation.SpeciesFitnessFunc = "mean"
	}
	if c.Stagnation.MaxStagnation == 0 {
		c.Stagnation.MaxStagnation = 15
	}

	// Basic value validation
	if c.Neat.PopSize <= 0 {
		return errors.New("config error: pop_size must be positive")
	}
	validCriteria := map[string]bool{"max": true, "min": true, "mean": true}
	c.Neat.FitnessCriterion = strings.ToLower(c.Neat.FitnessCriterion)
	if !validCriteria[c.Neat.FitnessCriterion] {
		return fmt.Errorf("config error: invalid fitness_criterion '%s', must be one of 'max', 'min', 'mean'", c.Neat.FitnessCriterion)
	}
	if c.Genome.NumInputs <= 0 {
		return errors.New("config error: num_inputs must be positive")
	}
	if c.Genome.NumOutputs <= 0 {
		return errors.New("config error: num_outputs must be positive")
	}
	if c.Genome.NumHidden < 0 {
		return errors.New("config error: num_hidden cannot be negative")
	}
	if c.Genome.CompatibilityDisjointCoefficient < 0 {
		return errors.New("config error: compatibility_disjoint_coefficient cannot be negative")
	}
	if c.Genome.CompatibilityWeightCoefficient < 0 {
		return errors.New("config error: compatibility_weight_coefficient cannot be negative")
	}
	for name, p := range map[string]float64{
		"conn_add_prob":    c.Genome.ConnAddProb,
		"conn_delete_prob": c.Genome.ConnDeleteProb,
		"node_add_prob":    c.Genome.NodeAddProb,
		"node_delete_prob": c.Genome.NodeDeleteProb,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}
	if c.Reproduction.SurvivalThreshold < 0 || c.Reproduction.SurvivalThreshold > 1 {
		return errors.New("config error: survival_threshold must be between 0 and 1")
	}
	if c.Reproduction.MinSpeciesSize <= 0 {
		return errors.New("config error: min_species_size must be positive")
	}
	if c.Reproduction.Elitism < 0 {
		return errors.New("config error: elitism cannot be negative")
	}
	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return errors.New("config error: compatibility_threshold must be positive")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return errors.New("config error: max_stagnation must be positive")
	}
	if c.Stagnation.SpeciesElitism < 0 {
		return errors.New("config error: species_elitism cannot be negative")
	}
	c.Stagnation.SpeciesFitnessFunc = strings.ToLower(c.Stagnation.SpeciesFitnessFunc)
	if _, ok := StatFunctions[c.Stagnation.SpeciesFitnessFunc]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}

	policy, err := ParseConnectivityPolicy(c.Genome.InitialConnection)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	c.Genome.Connectivity = policy

	// Derive Input/Output Keys
	c.Genome.InputKeys = make([]int, c.Genome.NumInputs)
	for i := 0; i < c.Genome.NumInputs; i++ {
		c.Genome.InputKeys[i] = -(i + 1)
	}
	c.Genome.OutputKeys = make([]int, c.Genome.NumOutputs)
	for i := 0; i < c.Genome.NumOutputs; i++ {
		c.Genome.OutputKeys[i] = i
	}

	return c.Genome.buildAttributeConfigs()
}

func (gc *GenomeConfig) buildAttributeConfigs() error {
	var err error
	if gc.bias, err = newFloatAttributeConfig(AttrBias, gc.BiasDefault, gc.BiasInitMean, gc.BiasInitStdev, gc.BiasInitType,
		gc.BiasReplaceRate, gc.BiasMutateRate, gc.BiasMutatePower, gc.BiasMinValue, gc.BiasMaxValue); err != nil {
		return err
	}
	if gc.response, err = newFloatAttributeConfig(AttrResponse, gc.ResponseDefault, gc.ResponseInitMean, gc.ResponseInitStdev, gc.ResponseInitType,
		gc.ResponseReplaceRate, gc.ResponseMutateRate, gc.ResponseMutatePower, gc.ResponseMinValue, gc.ResponseMaxValue); err != nil {
		return err
	}
	if gc.weight, err = newFloatAttributeConfig(AttrWeight, gc.WeightDefault, gc.WeightInitMean, gc.WeightInitStdev, gc.WeightInitType,
		gc.WeightReplaceRate, gc.WeightMutateRate, gc.WeightMutatePower, gc.WeightMinValue, gc.WeightMaxValue); err != nil {
		return err
	}

	enabled := &BoolAttributeConfig{
		Name:        AttrEnabled,
		MutateRate:  gc.EnabledMutateRate,
		ReplaceRate: gc.EnabledReplaceRate,
	}
	switch strings.ToLower(strings.TrimSpace(gc.EnabledDefault)) {
	case "true", "yes", "on", "1":
		v := true
		enabled.Default = &v
	case "false", "no", "off", "0":
		v := false
		enabled.Default = &v
	case "random", "none":
	default:
		return fmt.Errorf("config error: invalid enabled_default '%s'", gc.EnabledDefault)
	}
	gc.enabled = enabled

	if gc.activation, err = newChoiceAttributeConfig(AttrActivation, gc.ActivationDefault, gc.ActivationOptions, gc.ActivationMutateRate, ActivationFunctions); err != nil {
		return err
	}
	if gc.aggregation, err = newChoiceAttributeConfig(AttrAggregation, gc.AggregationDefault, gc.AggregationOptions, gc.AggregationMutateRate, AggregationFunctions); err != nil {
		return err
	}
	return nil
}

func newFloatAttributeConfig(name, defaultValue string, mean, stdev float64, initType string, replaceRate, mutateRate, mutatePower, minValue, maxValue float64) (*FloatAttributeConfig, error) {
	if maxValue < minValue {
		return nil, fmt.Errorf("config error: %s_max_value cannot be less than %s_min_value", name, name)
	}
	if minValue == 0 && maxValue == 0 {
		minValue, maxValue = -math.MaxFloat64, math.MaxFloat64
	}
	initType = strings.ToLower(initType)
	switch initType {
	case "gaussian", "normal", "uniform":
	default:
		return nil, fmt.Errorf("config error: invalid %s_init_type '%s'", name, initType)
	}
	if mutateRate < 0 || replaceRate < 0 || mutateRate+replaceRate > 1 {
		return nil, fmt.Errorf("config error: %s mutate and replace rates must be non-negative and sum to at most 1", name)
	}

	ac := &FloatAttributeConfig{
		Name:        name,
		InitMean:    mean,
		InitStdev:   stdev,
		InitType:    initType,
		ReplaceRate: replaceRate,
		MutateRate:  mutateRate,
		MutatePower: mutatePower,
		MinValue:    minValue,
		MaxValue:    maxValue,
	}
	switch strings.ToLower(strings.TrimSpace(defaultValue)) {
	case "", "none", "random":
	default:
		v, err := strconv.ParseFloat(strings.TrimSpace(defaultValue), 64)
		if err != nil {
			return nil, fmt.Errorf("config error: invalid %s_default '%s': %w", name, defaultValue, err)
		}
		v = clamp(v, minValue, maxValue)
		ac.Default = &v
	}
	return ac, nil
}

func newChoiceAttributeConfig[F any](name, defaultValue string, options []string, mutateRate float64, known map[string]F) (*ChoiceAttributeConfig, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("config error: %s_options must be specified", name)
	}
	for _, opt := range options {
		if _, ok := known[opt]; !ok {
			return nil, fmt.Errorf("config error: unknown %s function '%s'", name, opt)
		}
	}
	ac := &ChoiceAttributeConfig{
		Name:       name,
		Options:    append([]string(nil), options...),
		MutateRate: mutateRate,
	}
	switch d := strings.TrimSpace(defaultValue); strings.ToLower(d) {
	case "", "random", "none":
	default:
		if _, ok := known[d]; !ok {
			return nil, fmt.Errorf("config error: unknown %s_default '%s'", name, d)
		}
		ac.Default = d
	}
	return ac, nil
}

// BiasConfig returns the shared configuration of node bias attributes.
func (gc *GenomeConfig) BiasConfig() *FloatAttributeConfig {
	gc.mustBeValidated()
	return gc.bias
}

// ResponseConfig returns the shared configuration of node response attributes.
func (gc *GenomeConfig) ResponseConfig() *FloatAttributeConfig {
	gc.mustBeValidated()
	return gc.response
}

// WeightConfig returns the shared configuration of connection weight attributes.
func (gc *GenomeConfig) WeightConfig() *FloatAttributeConfig {
	gc.mustBeValidated()
	return gc.weight
}

// EnabledConfig returns the shared configuration of connection enabled attributes.
func (gc *GenomeConfig) EnabledConfig() *BoolAttributeConfig {
	gc.mustBeValidated()
	return gc.enabled
}

// ActivationConfig returns the shared configuration of node activation attributes.
func (gc *GenomeConfig) ActivationConfig() *ChoiceAttributeConfig {
	gc.mustBeValidated()
	return gc.activation
}

// AggregationConfig returns the shared configuration of node aggregation attributes.
func (gc *GenomeConfig) AggregationConfig() *ChoiceAttributeConfig {
	gc.mustBeValidated()
	return gc.aggregation
}

// AllowedStructuralMutations is the number of structural mutations applied per
// Mutate call; math.MaxInt when unlimited.
func (gc *GenomeConfig) AllowedStructuralMutations() int {
	if gc.SingleStructuralMutation {
		return 1
	}
	if gc.MaxStructuralMutations <= 0 {
		return math.MaxInt
	}
	return gc.MaxStructuralMutations
}

// EnsureStructuralMutation reports whether structural mutations should try
// harder to change the genome (add-node falls back to add-connection).
func (gc *GenomeConfig) EnsureStructuralMutation() bool {
	switch strings.ToLower(gc.StructuralMutationSurer) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

// IsOutput reports whether key is one of the configured output nodes.
func (gc *GenomeConfig) IsOutput(key int) bool {
	return key >= 0 && key < gc.NumOutputs
}

// IsInput reports whether key is one of the configured input terminals.
func (gc *GenomeConfig) IsInput(key int) bool {
	return key < 0 && key >= -gc.NumInputs
}

func (gc *GenomeConfig) mustBeValidated() {
	if gc.bias == nil {
		panic("neat: genome configuration used before Config.Validate")
	}
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

package neat

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// MutationConfig controls the per-species offspring composition and the
// mutation operators themselves (spec §4.D, §4.E, §6).
type MutationConfig struct {
	PAddConn              float32 `ini:"p_add_conn"`
	PAddNode              float32 `ini:"p_add_node"`
	PInterSpecies         float32 `ini:"p_inter_species"`
	KeepDisabledRate      float32 `ini:"keep_disabled_rate"`
	PMutate               float32 `ini:"p_mutate"`
	PNetworkMutation      float32 `ini:"p_network_mutation"`
	PUniformMutation      float32 `ini:"p_uniform_mutation"`
	MinNetworkChampionSize int    `ini:"min_network_champion_size"`
}

// ExtinctionConfig bounds how many of a species' worst members are dropped
// before ancestor sampling (spec §4.D "Extinction filter").
type ExtinctionConfig struct {
	MaxRemovePopulationPortion float32 `ini:"max_remove_population_portion"`
	MaxRemoveScorePortion      float32 `ini:"max_remove_score_portion"`
}

// WeightConfig bounds connection weight sampling and perturbation (spec §4.E, §6).
type WeightConfig struct {
	WeightMin float32 `ini:"weight_min"`
	WeightMax float32 `ini:"weight_max"`
	OffsetMin float32 `ini:"offset_min"`
	OffsetMax float32 `ini:"offset_max"`
}

// DistanceConfig parameterizes the compatibility-distance formula used by
// the species sorter (spec §4.C).
type DistanceConfig struct {
	Threshold  float32 `ini:"threshold"`
	CExcess    float32 `ini:"c_excess"`
	CDisjoint  float32 `ini:"c_disjoint"`
	CAvgWeight float32 `ini:"c_avg_weight"`
}

// EvolutionConfig is the trainer's full configuration surface (spec §6).
type EvolutionConfig struct {
	Mutation       MutationConfig   `ini:"mutation"`
	Extinction     ExtinctionConfig `ini:"extinction"`
	Weights        WeightConfig     `ini:"weights"`
	Distance       DistanceConfig   `ini:"distance"`
	FitnessEpsilon float32          `ini:"fitness_epsilon"`
}

// DefaultMutationConfig returns the defaults spec §6 lists for `mutation`.
func DefaultMutationConfig() MutationConfig {
	return MutationConfig{
		PAddConn:               0.05,
		PAddNode:               0.03,
		PInterSpecies:          0.001,
		KeepDisabledRate:       0.75,
		PMutate:                0.25,
		PNetworkMutation:       0.8,
		PUniformMutation:       0.9,
		MinNetworkChampionSize: 5,
	}
}

// DefaultExtinctionConfig returns the defaults spec §6 lists for `extinction`.
func DefaultExtinctionConfig() ExtinctionConfig {
	return ExtinctionConfig{
		MaxRemovePopulationPortion: 0.2,
		MaxRemoveScorePortion:      0.2,
	}
}

// DefaultWeightConfig returns the defaults spec §6 lists for `weights`.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		WeightMin: 0.0,
		WeightMax: 1.0,
		OffsetMin: -0.01,
		OffsetMax: 0.01,
	}
}

// DefaultDistanceConfig returns the defaults spec §6 lists for `distance`.
func DefaultDistanceConfig() DistanceConfig {
	return DistanceConfig{
		Threshold:  3.0,
		CExcess:    1.0,
		CDisjoint:  1.0,
		CAvgWeight: 0.4,
	}
}

// DefaultEvolutionConfig returns every default spec §6 names.
func DefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{
		Mutation:       DefaultMutationConfig(),
		Extinction:     DefaultExtinctionConfig(),
		Weights:        DefaultWeightConfig(),
		Distance:       DefaultDistanceConfig(),
		FitnessEpsilon: 0.001,
	}
}

// LoadEvolutionConfig reads an override file with gopkg.in/ini.v1, starting
// from DefaultEvolutionConfig and overwriting only the fields present in the
// file. This mirrors the teacher's LoadConfig, adapted to the narrower
// arena-based configuration surface — there is deliberately no on-disk
// population/genome format here (spec §6: "No on-disk format is specified").
func LoadEvolutionConfig(path string) (*EvolutionConfig, error) {
	cfg := DefaultEvolutionConfig()

	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("neat: load config %q: %w", path, err)
	}

	if err := file.Section("mutation").MapTo(&cfg.Mutation); err != nil {
		return nil, fmt.Errorf("neat: parse [mutation]: %w", err)
	}
	if err := file.Section("extinction").MapTo(&cfg.Extinction); err != nil {
		return nil, fmt.Errorf("neat: parse [extinction]: %w", err)
	}
	if err := file.Section("weights").MapTo(&cfg.Weights); err != nil {
		return nil, fmt.Errorf("neat: parse [weights]: %w", err)
	}
	if err := file.Section("distance").MapTo(&cfg.Distance); err != nil {
		return nil, fmt.Errorf("neat: parse [distance]: %w", err)
	}
	if key, err := file.Section("").GetKey("fitness_epsilon"); err == nil {
		if v, err := key.Float64(); err == nil {
			cfg.FitnessEpsilon = float32(v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports a programmer/config error for out-of-range probabilities.
// This is the only place EvolutionConfig's fields are checked; degenerate
// population states at runtime are handled per spec §7, not here.
func (c EvolutionConfig) Validate() error {
	probs := map[string]float32{
		"mutation.p_add_conn":          c.Mutation.PAddConn,
		"mutation.p_add_node":          c.Mutation.PAddNode,
		"mutation.p_inter_species":     c.Mutation.PInterSpecies,
		"mutation.keep_disabled_rate":  c.Mutation.KeepDisabledRate,
		"mutation.p_mutate":            c.Mutation.PMutate,
		"mutation.p_network_mutation":  c.Mutation.PNetworkMutation,
		"mutation.p_uniform_mutation":  c.Mutation.PUniformMutation,
		"extinction.max_remove_population_portion": c.Extinction.MaxRemovePopulationPortion,
		"extinction.max_remove_score_portion":      c.Extinction.MaxRemoveScorePortion,
	}
	for name, v := range probs {
		if v < 0 || v > 1 {
			return fmt.Errorf("neat: %s must be in [0,1], got %v", name, v)
		}
	}
	if c.Weights.WeightMin > c.Weights.WeightMax {
		return fmt.Errorf("neat: weights.weight_min > weights.weight_max")
	}
	if c.Mutation.MinNetworkChampionSize < 1 {
		return fmt.Errorf("neat: mutation.min_network_champion_size must be >= 1")
	}
	return nil
}

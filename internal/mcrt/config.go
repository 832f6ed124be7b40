package mcrt

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// PointSourceCfg configures one PointSource.
type PointSourceCfg struct {
	ID         string  `yaml:"id"`
	Position   [3]Real `yaml:"position"`
	Luminosity Real    `yaml:"luminosity"`
	Weight     Real    `yaml:"weight,omitempty"`
	Velocity   [3]Real `yaml:"velocity,omitempty"`
	LambdaMin  Real    `yaml:"lambdaMin,omitempty"`
	LambdaMax  Real    `yaml:"lambdaMax,omitempty"`
}

// ImportedSourceCfg configures one ImportedSource backed by a column-text
// snapshot file. The snapshot must carry the four trailing SED parameter
// columns [logU, Z, IonisingLum, EmissionBool]; SEDFamily names an entry
// in the config's sedFamilies list.
type ImportedSourceCfg struct {
	ID             string `yaml:"id"`
	Snapshot       string `yaml:"snapshotFile"`
	Weight         Real   `yaml:"weight,omitempty"`
	LambdaMin      Real   `yaml:"lambdaMin,omitempty"`
	LambdaMax      Real   `yaml:"lambdaMax,omitempty"`
	SEDFamily      string `yaml:"sedFamily"`
	ImportVelocity bool   `yaml:"importVelocity,omitempty"`
}

// SEDFamilyCfg configures a table-interpolated SED family inline: three
// strictly increasing axes and a table indexed [lambda][logU][Z].
type SEDFamilyCfg struct {
	Name    string     `yaml:"name"` // e.g. "continuum" or "line"
	Lambdas []Real     `yaml:"lambdas"`
	LogUs   []Real     `yaml:"logUs"`
	Zs      []Real     `yaml:"zs"`
	Table   [][][]Real `yaml:"table"`
}

// BuildSEDFamily validates and constructs the configured SED family.
func (sc *SEDFamilyCfg) BuildSEDFamily() (*SEDFamily, error) {
	return NewSEDFamily(sc.Name, sc.Lambdas, sc.LogUs, sc.Zs, sc.Table)
}

// MediumCfg configures one ImportedMedium over a column-text snapshot.
type MediumCfg struct {
	ID                      string `yaml:"id"`
	Snapshot                string `yaml:"snapshotFile"`
	Kind                    string `yaml:"kind"` // "dust" or "gas"
	MassFraction            Real   `yaml:"massFraction,omitempty"`
	DustMaxTemperature      Real   `yaml:"dustMaxTemperature,omitempty"`
	UseMetallicity          bool   `yaml:"useMetallicity,omitempty"`
	ImportMetallicity       bool   `yaml:"importMetallicity,omitempty"`
	ImportTemperature       bool   `yaml:"importTemperature,omitempty"`
	ImportVelocity          bool   `yaml:"importVelocity,omitempty"`
	ImportMagneticField     bool   `yaml:"importMagneticField,omitempty"`
	ImportVariableMixParams int    `yaml:"importVariableMixParams,omitempty"`

	GrainKappaAbs0 Real `yaml:"grainKappaAbs0,omitempty"`
	GrainKappaSca0 Real `yaml:"grainKappaSca0,omitempty"`
	GrainSlopeAbs  Real `yaml:"grainSlopeAbs,omitempty"`
	GrainSlopeSca  Real `yaml:"grainSlopeSca,omitempty"`
	MassPerParticle Real `yaml:"massPerParticle,omitempty"`
}

// Config is the top-level run configuration: an envelope of sub-configs,
// each validated and built into a runtime object by the run orchestrator.
type Config struct {
	NumPackets           int    `yaml:"numPackets,omitempty"`
	NumPacketsMultiplier Real   `yaml:"numPacketsMultiplier,omitempty"`
	SourceBias           Real   `yaml:"sourceBias,omitempty"`
	LambdaMin            Real   `yaml:"lambdaMin,omitempty"`
	LambdaMax            Real   `yaml:"lambdaMax,omitempty"`
	LaunchSeed           uint64 `yaml:"launchSeed,omitempty"`

	SEDFamilies     []SEDFamilyCfg      `yaml:"sedFamilies,omitempty"`
	PointSources    []PointSourceCfg    `yaml:"pointSources,omitempty"`
	ImportedSources []ImportedSourceCfg `yaml:"importedSources,omitempty"`
	Media           []MediumCfg         `yaml:"media,omitempty"`

	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

// LoadConfig reads a YAML run configuration, merging it over the embedded
// defaults (defaults.yaml). The baseline is itself a parsed YAML document
// rather than per-field zero-checks: for SourceBias, zero is a valid
// setting and not distinguishable from "unset" after unmarshal.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("mcrt: parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mcrt: reading config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("mcrt: parsing config %q: %w", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	DebugLog("loaded config: numPackets=%d sourceBias=%.3g sources=%d+%d media=%d",
		cfg.NumPackets, cfg.SourceBias, len(cfg.PointSources), len(cfg.ImportedSources), len(cfg.Media))
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.NumPackets < 0 {
		return fmt.Errorf("mcrt: numPackets must be >= 0, got %d", c.NumPackets)
	}
	if c.NumPacketsMultiplier <= 0 || c.NumPacketsMultiplier > 1000 {
		return fmt.Errorf("mcrt: numPacketsMultiplier must be in (0,1000], got %.6g", c.NumPacketsMultiplier)
	}
	if c.SourceBias < 0 || c.SourceBias > 1 {
		return fmt.Errorf("mcrt: sourceBias must be in [0,1], got %.6g", c.SourceBias)
	}
	// Wavelengths are in microns; the admissible band is 1 Angstrom to 1 m.
	const lambdaFloor, lambdaCeil = 1e-4, 1e6
	if c.LambdaMin < lambdaFloor || c.LambdaMax > lambdaCeil || c.LambdaMax <= c.LambdaMin {
		return fmt.Errorf("mcrt: invalid global wavelength range [%.6g, %.6g] micron (must lie within [%.6g, %.6g])",
			c.LambdaMin, c.LambdaMax, Real(lambdaFloor), Real(lambdaCeil))
	}
	if len(c.PointSources) == 0 && len(c.ImportedSources) == 0 {
		return fmt.Errorf("mcrt: config has no sources")
	}
	families := make(map[string]bool, len(c.SEDFamilies))
	for _, f := range c.SEDFamilies {
		if f.Name == "" {
			return fmt.Errorf("mcrt: SED family entries require a name")
		}
		if families[f.Name] {
			return fmt.Errorf("mcrt: duplicate SED family %q", f.Name)
		}
		families[f.Name] = true
	}
	for _, s := range c.ImportedSources {
		if s.Snapshot == "" {
			return fmt.Errorf("mcrt: imported source %q requires a snapshotFile", s.ID)
		}
		if !families[s.SEDFamily] {
			return fmt.Errorf("mcrt: imported source %q references undefined SED family %q", s.ID, s.SEDFamily)
		}
	}
	for _, m := range c.Media {
		if m.Kind != "dust" && m.Kind != "gas" {
			return fmt.Errorf("mcrt: medium %q has invalid kind %q (want \"dust\" or \"gas\")", m.ID, m.Kind)
		}
	}
	return nil
}

// EmissionCount returns the segment budget N = numPackets *
// numPacketsMultiplier, rounded to the nearest integer. Truncation would
// silently drop budget for small numPackets*multiplier products, so this
// rounds rather than floors.
func (c *Config) EmissionCount() int {
	n := Real(c.NumPackets) * c.NumPacketsMultiplier
	return int(n + 0.5)
}

// wavelengthRangeOrDefault resolves a possibly-zero per-source range
// against the config's global range.
func (c *Config) wavelengthRangeOrDefault(lo, hi Real) (Real, Real) {
	if lo <= 0 {
		lo = c.LambdaMin
	}
	if hi <= 0 {
		hi = c.LambdaMax
	}
	return lo, hi
}

// BuildImportedSource loads sc's snapshot (with the four trailing SED
// parameter columns) and constructs the ImportedSource it describes.
func (sc *ImportedSourceCfg) BuildImportedSource(sed *SEDFamily, lambdaMin, lambdaMax Real) (*ImportedSource, error) {
	opts := ColumnImportOptions{
		ImportVelocity:          sc.ImportVelocity,
		ImportVariableMixParams: 4,
	}
	snap, err := LoadColumnSnapshot(sc.Snapshot, opts)
	if err != nil {
		return nil, err
	}
	weight := sc.Weight
	if weight <= 0 {
		weight = 1
	}
	return NewImportedSource(sc.ID, snap, sed, weight, lambdaMin, lambdaMax)
}

// BuildSourceSystem constructs a SourceSystem from the config's source
// entries: point sources get a flat spectral CDF over their wavelength
// range, imported sources get their snapshot loaded and wired to the
// named SED family from the sedFamilies list.
func (c *Config) BuildSourceSystem() (*SourceSystem, error) {
	families := make(map[string]*SEDFamily, len(c.SEDFamilies))
	for i := range c.SEDFamilies {
		f, err := c.SEDFamilies[i].BuildSEDFamily()
		if err != nil {
			return nil, fmt.Errorf("mcrt: building SED family %q: %w", c.SEDFamilies[i].Name, err)
		}
		families[f.Name()] = f
	}

	sources := make([]Source, 0, len(c.PointSources)+len(c.ImportedSources))
	for _, ps := range c.PointSources {
		lo, hi := c.wavelengthRangeOrDefault(ps.LambdaMin, ps.LambdaMax)
		weight := ps.Weight
		if weight <= 0 {
			weight = 1
		}
		grid := []Real{lo, (lo + hi) / 2, hi}
		vals := []Real{1, 1, 1}
		cdf, err := newCDF(grid, vals)
		if err != nil {
			return nil, fmt.Errorf("mcrt: building flat spectrum for source %q: %w", ps.ID, err)
		}
		pos := Point3{ps.Position[0], ps.Position[1], ps.Position[2]}
		vel := Vector3{ps.Velocity[0], ps.Velocity[1], ps.Velocity[2]}
		src, err := NewPointSource(ps.ID, pos, ps.Luminosity, weight, vel, lo, hi, cdf)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	for _, ic := range c.ImportedSources {
		sed, ok := families[ic.SEDFamily]
		if !ok {
			return nil, fmt.Errorf("mcrt: imported source %q references undefined SED family %q", ic.ID, ic.SEDFamily)
		}
		lo, hi := c.wavelengthRangeOrDefault(ic.LambdaMin, ic.LambdaMax)
		src, err := ic.BuildImportedSource(sed, lo, hi)
		if err != nil {
			return nil, fmt.Errorf("mcrt: building imported source %q: %w", ic.ID, err)
		}
		sources = append(sources, src)
	}

	ss, err := NewSourceSystem(sources, c.SourceBias)
	if err != nil {
		return nil, err
	}
	ss.SetSeed(c.LaunchSeed)
	return ss, nil
}

// BuildMedia constructs every configured ImportedMedium.
func (c *Config) BuildMedia() ([]*ImportedMedium, error) {
	media := make([]*ImportedMedium, 0, len(c.Media))
	for i := range c.Media {
		m, err := c.Media[i].BuildMedium()
		if err != nil {
			return nil, fmt.Errorf("mcrt: building medium %q: %w", c.Media[i].ID, err)
		}
		media = append(media, m)
	}
	return media, nil
}

// BuildMedium loads mc's snapshot and constructs the ImportedMedium it
// describes.
func (mc *MediumCfg) BuildMedium() (*ImportedMedium, error) {
	opts := ColumnImportOptions{
		HoldsNumber:             false,
		ImportMetallicity:       mc.ImportMetallicity,
		ImportTemperature:       mc.ImportTemperature,
		ImportVelocity:          mc.ImportVelocity,
		ImportMagneticField:     mc.ImportMagneticField,
		ImportVariableMixParams: mc.ImportVariableMixParams,
	}
	snap, err := LoadColumnSnapshot(mc.Snapshot, opts)
	if err != nil {
		return nil, err
	}
	kind := MediumDust
	if mc.Kind == "gas" {
		kind = MediumGas
	}
	massFraction := mc.MassFraction
	if massFraction <= 0 {
		massFraction = DefaultMassFraction
	}

	massPerParticle := mc.MassPerParticle
	if massPerParticle <= 0 {
		massPerParticle = 1
	}
	mc.MassPerParticle = massPerParticle

	var mix Mix
	var mixFamily MixFamily
	if mc.ImportVariableMixParams > 0 {
		fam, err := NewGrainMixFamily(mc.GrainKappaAbs0, mc.GrainKappaSca0, mc.GrainSlopeAbs, mc.GrainSlopeSca, mc.MassPerParticle)
		if err != nil {
			return nil, err
		}
		mixFamily = fam
	} else {
		m, err := NewPowerLawMix(mc.GrainKappaAbs0, mc.GrainKappaSca0, mc.GrainSlopeAbs, mc.GrainSlopeSca, mc.MassPerParticle)
		if err != nil {
			return nil, err
		}
		mix = m
	}

	return NewImportedMedium(snap, kind, massFraction, mc.DustMaxTemperature, mc.UseMetallicity, mix, mixFamily)
}

package mcrt

// Default configuration values. The run-level ones mirror defaults.yaml,
// which config.go's LoadConfig merges under a user config;
// DefaultMassFraction is applied by MediumCfg.BuildMedium when a medium
// omits massFraction.
const (
	DefaultNumPackets           = 1_000_000
	DefaultNumPacketsMultiplier = 1
	DefaultSourceBias           = 0.5
	DefaultLambdaMin            = 0.09 // microns
	DefaultLambdaMax            = 20   // microns
	DefaultSEDBins              = 256
	DefaultMassFraction         = 0.3
	DefaultDustMaxTemperature   = 0 // K; 0 disables the cutoff
	DefaultColumnNBins          = 64
)

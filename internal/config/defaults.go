package config

const (
	defaultDataDir             = "~/.local/share/vinyasa"
	defaultLibraryPath         = "~/.local/share/vinyasa/poses.json"
	defaultLogDir              = "~/.local/share/vinyasa/logs"
	defaultArchivePath         = "~/.local/share/vinyasa/practice.db"
	defaultSourceKind          = "stdin"
	defaultCameraTimeout       = 30
	defaultSimilarityThreshold = 0.15
	defaultConfidenceFloor     = 0.5
	defaultHysteresisEpsilon   = 0.005
	defaultScaleEpsilon        = 0.001
	defaultMinHoldSeconds      = 3.0
	defaultCooldownSeconds     = 10.0
	defaultEntryCooldown       = 30.0
	defaultWindowDays          = 30
	defaultImprovement         = 2.0
	defaultRecordEveryN        = 10
	defaultMeasureInterval     = 10.0
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LibraryPath: defaultLibraryPath,
			LogDir:      defaultLogDir,
		},
		Source: Source{
			Kind:          defaultSourceKind,
			CameraTimeout: defaultCameraTimeout,
		},
		Detection: Detection{
			SimilarityThreshold: defaultSimilarityThreshold,
			ConfidenceFloor:     defaultConfidenceFloor,
			HysteresisEpsilon:   defaultHysteresisEpsilon,
			ScaleEpsilon:        defaultScaleEpsilon,
			MinHoldSeconds:      defaultMinHoldSeconds,
		},
		Narrator: Narrator{
			Enabled:              true,
			Command:              defaultSpeechCommand(),
			CooldownSeconds:      defaultCooldownSeconds,
			AnnouncePoseEntry:    true,
			EntryCooldownSeconds: defaultEntryCooldown,
			SpeakSummary:         true,
		},
		Tracking: Tracking{
			WindowDays:                 defaultWindowDays,
			ImprovementThreshold:       defaultImprovement,
			RecordEveryNFrames:         defaultRecordEveryN,
			MeasurementIntervalSeconds: defaultMeasureInterval,
		},
		Archive: Archive{
			Enabled: true,
			Path:    defaultArchivePath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

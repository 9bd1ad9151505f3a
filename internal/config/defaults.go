package config

const (
	defaultStagingDir        = "~/.local/share/shortreel/staging"
	defaultOutputDir         = "~/videos/shortreel"
	defaultLogDir            = "~/.local/share/shortreel/logs"
	defaultAssetCacheDir     = "~/.cache/shortreel/assets"
	defaultAPIBind           = "127.0.0.1:7512"
	defaultSTTBaseURL        = "https://api.groq.com/openai/v1/audio/transcriptions"
	defaultSTTModel          = "whisper-large-v3-turbo"
	defaultSTTLanguage       = "en"
	defaultSTTTimeoutSeconds = 120
	defaultSTTMaxAttempts    = 3
	defaultRenderBinary      = "reelrender"
	defaultRenderTimeout     = 600
	defaultFPS               = 30
	defaultWidth             = 1080
	defaultHeight            = 1920
	defaultMaxErrorFraction  = 0.5
	defaultSimilarityWarn    = 0.6
	defaultWordsPerCaption   = 1
	defaultFontSize          = 72
	defaultCaptionPosition   = "center"
	defaultHighlightColor    = "#0066CC"
	defaultIntroSeconds      = 1.5
	defaultOutroSeconds      = 2.0
	defaultMusicDuckDB       = -18.0
	defaultQueuePollInterval = 5
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 120
	defaultWorkers           = 1
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:    defaultStagingDir,
			OutputDir:     defaultOutputDir,
			LogDir:        defaultLogDir,
			AssetCacheDir: defaultAssetCacheDir,
			APIBind:       defaultAPIBind,
		},
		STT: STT{
			BaseURL:        defaultSTTBaseURL,
			Model:          defaultSTTModel,
			Language:       defaultSTTLanguage,
			TimeoutSeconds: defaultSTTTimeoutSeconds,
			MaxAttempts:    defaultSTTMaxAttempts,
		},
		Render: Render{
			Binary:         defaultRenderBinary,
			TimeoutSeconds: defaultRenderTimeout,
			FPS:            defaultFPS,
			Width:          defaultWidth,
			Height:         defaultHeight,
		},
		Alignment: Alignment{
			MaxErrorFraction:        defaultMaxErrorFraction,
			SimilarityWarnThreshold: defaultSimilarityWarn,
		},
		Captions: Captions{
			WordsPerCaption: defaultWordsPerCaption,
			FontSize:        defaultFontSize,
			Position:        defaultCaptionPosition,
			HighlightColor:  defaultHighlightColor,
		},
		Composition: Composition{
			IntroSeconds: defaultIntroSeconds,
			OutroSeconds: defaultOutroSeconds,
			MusicDuckDB:  defaultMusicDuckDB,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
			Workers:           defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

const (
	defaultConfigPath           = "~/.config/reelharvest/config.toml"
	defaultStateDir             = "~/.local/share/reelharvest"
	defaultLogDir               = "~/.local/share/reelharvest/logs"
	defaultStagingDir           = "~/.local/share/reelharvest/staging"
	defaultApifyBaseURL         = "https://api.apify.com"
	defaultCommentsActor        = "XomSRf7d0qf3mVj1y"
	defaultMediaActor           = "S5h7zRLfKFEr8pdj7"
	defaultApifyTimeoutSeconds  = 120
	defaultRequestsPerMinute    = 30
	defaultApifyBurst           = 1
	defaultMaxComments          = 20
	defaultTopK                 = 6
	defaultReplyWeight          = 2.0
	defaultLikeWeight           = 1.0
	defaultRetryAttempts        = 3
	defaultCacheTimeoutSeconds  = 10
	defaultMaxImageBytes        = 20 << 20
	defaultMaxVideoBytes        = 512 << 20
	defaultMediaSource          = "apify"
	defaultFrameInterval        = 3
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultReferenceColumn      = "usn_time"
	defaultFolderLimit          = 50
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultScheduleCron         = "0 3 * * *"
	defaultNotifyTimeoutSeconds = 10
)

var defaultManifestPatterns = []string{"*_processed.json", "*_addurl.json"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			StagingDir: defaultStagingDir,
		},
		Apify: Apify{
			BaseURL:           defaultApifyBaseURL,
			CommentsActor:     defaultCommentsActor,
			MediaActor:        defaultMediaActor,
			TimeoutSeconds:    defaultApifyTimeoutSeconds,
			RequestsPerMinute: defaultRequestsPerMinute,
			Burst:             defaultApifyBurst,
		},
		Harvest: Harvest{
			MaxComments:    defaultMaxComments,
			TopK:           defaultTopK,
			ReplyWeight:    defaultReplyWeight,
			LikeWeight:     defaultLikeWeight,
			RetryAttempts:  defaultRetryAttempts,
			IncludeReplies: true,
		},
		Cache: Cache{
			TimeoutSeconds: defaultCacheTimeoutSeconds,
			MaxImageBytes:  defaultMaxImageBytes,
			MaxVideoBytes:  defaultMaxVideoBytes,
		},
		Media: Media{
			Source:        defaultMediaSource,
			FrameInterval: defaultFrameInterval,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Manifest: Manifest{
			Patterns:        append([]string(nil), defaultManifestPatterns...),
			ReferenceColumn: defaultReferenceColumn,
		},
		Layout: Layout{
			CommentsDir: "comments",
			AvatarDir:   "user_cover_img",
			FilteredDir: "filter_cmt",
			VideoDir:    "vid",
			CoverDir:    "cover_img",
			FramesDir:   "img",
			FinalDir:    "final_imgs",
			FolderLimit: defaultFolderLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Schedule: Schedule{
			Cron: defaultScheduleCron,
		},
		Notify: Notify{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
	}
}

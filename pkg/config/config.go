package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var appConfig *AppConfig
var dbTablePrefix string

type AppConfig struct {
	RDS    *redis.Client
	DB     *gorm.DB
	Logger *logrus.Logger

	RootWorkingDir string
	Client         ClientInfo      `yaml:"client"`
	LogSettings    LogSettings     `yaml:"log_settings"`
	RedisInfo      RedisInfo       `yaml:"redis_info"`
	DatabaseInfo   DatabaseInfo    `yaml:"database_info"`
	Podcast        PodcastSettings `yaml:"podcast"`
	Insights       InsightsConfig  `yaml:"insights"`
}

type ClientInfo struct {
	Port           int            `yaml:"port"`
	Debug          bool           `yaml:"debug"`
	Path           string         `yaml:"path"`
	ApiKey         string         `yaml:"api_key"`
	Secret         string         `yaml:"secret"`
	TokenValidity  *time.Duration `yaml:"token_validity"`
	PrometheusConf PrometheusConf `yaml:"prometheus"`
	ProxyHeader    string         `yaml:"proxy_header"`
}

type PrometheusConf struct {
	Enable      bool   `yaml:"enable"`
	MetricsPath string `yaml:"metrics_path"`
}

type LogSettings struct {
	LogFile    string  `yaml:"log_file"`
	LogLevel   *string `yaml:"log_level"`
	MaxSize    int     `yaml:"max_size"`
	MaxBackups int     `yaml:"max_backups"`
	MaxAge     int     `yaml:"max_age"`
}

// PodcastSettings controls where episode audio and transcripts live
// and how the processing pipeline behaves.
type PodcastSettings struct {
	DownloadPath       string         `yaml:"download_path"`
	CachePath          string         `yaml:"cache_path"`
	MaxDownloadSize    uint64         `yaml:"max_download_size"`
	SourceLang         string         `yaml:"source_lang"`
	TargetLang         string         `yaml:"target_lang"`
	TranslationWorkers int            `yaml:"translation_workers"`
	KeepDownloads      bool           `yaml:"keep_downloads"`
	DownloadRetention  *time.Duration `yaml:"download_retention"`
	SearchCacheTTL     *time.Duration `yaml:"search_cache_ttl"`
	FfmpegBin          string         `yaml:"ffmpeg_bin"`
}

type DatabaseInfo struct {
	DriverName      string          `yaml:"driver_name"`
	Host            string          `yaml:"host"`
	Port            int32           `yaml:"port"`
	Username        string          `yaml:"username"`
	Password        string          `yaml:"password"`
	DBName          string          `yaml:"db"`
	Prefix          string          `yaml:"prefix"`
	Charset         *string         `yaml:"charset"`
	Loc             *string         `yaml:"loc"`
	ConnMaxLifetime *time.Duration  `yaml:"conn_max_lifetime"`
	MaxOpenConns    *int            `yaml:"max_open_conns"`
	Replicas        []ReplicaDBInfo `yaml:"replicas"`
}

// ReplicaDBInfo holds connection details for a read replica database.
type ReplicaDBInfo struct {
	Host     string `yaml:"host"`
	Port     int32  `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisInfo struct {
	Host              string   `yaml:"host"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	DBName            int      `yaml:"db"`
	UseTLS            bool     `yaml:"use_tls"`
	MasterName        string   `yaml:"sentinel_master_name"`
	SentinelUsername  string   `yaml:"sentinel_username"`
	SentinelPassword  string   `yaml:"sentinel_password"`
	SentinelAddresses []string `yaml:"sentinel_addresses"`
}

func New(appCnf *AppConfig) (*AppConfig, error) {
	// default validity of export download tokens is 30 minutes
	if appCnf.Client.TokenValidity == nil || *appCnf.Client.TokenValidity < 0 {
		validity := time.Minute * 30
		appCnf.Client.TokenValidity = &validity
	}

	// the platform injects PORT for containerised deployments,
	// it always wins over the yaml value
	if p := os.Getenv("PORT"); p != "" {
		if port, err := strconv.Atoi(p); err == nil && port > 0 {
			appCnf.Client.Port = port
		}
	}
	if appCnf.Client.Port == 0 {
		appCnf.Client.Port = 8080
	}

	if appCnf.Podcast.DownloadPath == "" {
		appCnf.Podcast.DownloadPath = "./downloads"
	}
	if appCnf.Podcast.CachePath == "" {
		appCnf.Podcast.CachePath = "./cache"
	}
	for _, p := range []string{appCnf.Podcast.DownloadPath, appCnf.Podcast.CachePath} {
		if strings.HasPrefix(p, "./") {
			p = filepath.Join(appCnf.RootWorkingDir, p)
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			err = os.MkdirAll(p, os.ModePerm)
			if err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", p, err)
			}
		}
	}

	if appCnf.Podcast.MaxDownloadSize == 0 {
		// podcasts routinely run past an hour, allow a generous cap
		appCnf.Podcast.MaxDownloadSize = 500 * 1024 * 1024
	}
	if appCnf.Podcast.SourceLang == "" {
		appCnf.Podcast.SourceLang = "en"
	}
	if appCnf.Podcast.TargetLang == "" {
		appCnf.Podcast.TargetLang = "pt"
	}
	if appCnf.Podcast.TranslationWorkers <= 0 {
		appCnf.Podcast.TranslationWorkers = DefaultTranslationWorkers
	}
	if appCnf.Podcast.DownloadRetention == nil || *appCnf.Podcast.DownloadRetention <= 0 {
		d := time.Hour * 72
		appCnf.Podcast.DownloadRetention = &d
	}
	if appCnf.Podcast.SearchCacheTTL == nil || *appCnf.Podcast.SearchCacheTTL <= 0 {
		d := time.Minute * 15
		appCnf.Podcast.SearchCacheTTL = &d
	}
	if appCnf.Podcast.FfmpegBin == "" {
		appCnf.Podcast.FfmpegBin = "ffmpeg"
	}

	// OPENAI_API_KEY from the environment overrides the yaml credentials,
	// which is how the deployment pipelines feed the key in
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		appCnf.Insights.SetProviderAPIKey("openai", key)
	}

	if appCnf.DatabaseInfo.Prefix != "" {
		dbTablePrefix = appCnf.DatabaseInfo.Prefix
	}

	appConfig = appCnf
	return appCnf, nil
}

// GetConfig returns the global config set by New.
func GetConfig() *AppConfig {
	return appConfig
}

func FormatDBTable(table string) string {
	if dbTablePrefix != "" {
		return dbTablePrefix + table
	}
	return table
}

package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type SignalConfig struct {
	ApiUrl string `yaml:"apiUrl" validate:"required"`
	// Number is the account used for sending notifications. Leave empty to
	// discover it from the gateway's account list at startup.
	Number string `yaml:"number"`
	// Channels is the static list of monitored channels. When empty the bot
	// monitors the discovered account's own inbox.
	Channels []string `yaml:"channels"`
	Notify   bool     `yaml:"notify"`
}

type IpfsConfig struct {
	ApiUrl      string `yaml:"apiUrl" validate:"required"`
	DownloadDir string `yaml:"downloadDir" validate:"required|unixPath"`
}

type PinsConfig struct {
	Duration time.Duration `yaml:"duration" validate:"required|min:1"`
	// DatabasePath defaults to pins.db next to the download directory.
	DatabasePath string `yaml:"databasePath"`
}

type PollerConfig struct {
	Interval     time.Duration `yaml:"interval" validate:"required|min:1"`
	MaxDownloads int           `yaml:"maxDownloads"`
}

type DedupConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	Signal    SignalConfig  `yaml:"signal"`
	Ipfs      IpfsConfig    `yaml:"ipfs"`
	Pins      PinsConfig    `yaml:"pins"`
	Poller    PollerConfig  `yaml:"poller"`
	Dedup     DedupConfig   `yaml:"dedup"`
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

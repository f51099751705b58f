package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"pinbot/internal/structures"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("poller.interval", 5*time.Second)
	viper.SetDefault("poller.maxDownloads", 4)
	viper.SetDefault("pins.duration", 72*time.Hour)
	viper.SetDefault("dedup.size", 1)
	viper.SetDefault("dedup.ttl", 24*time.Hour)

	viper.BindEnv("signal.apiUrl", "SIGNAL_API_URL")
	viper.BindEnv("signal.number", "SIGNAL_NUMBER")
	viper.BindEnv("ipfs.apiUrl", "IPFS_API_URL")
	viper.BindEnv("ipfs.downloadDir", "IPFS_DOWNLOAD_DIR")
	viper.BindEnv("logger.level", "PINBOT_LOG_LEVEL")

	// The original deployment configured these as bare numbers (seconds and
	// hours respectively), so they cannot go through the duration decode hook.
	if raw := os.Getenv("FETCH_INTERVAL"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("FETCH_INTERVAL must be a number of seconds: %w", err)
		}
		viper.Set("poller.interval", time.Duration(seconds)*time.Second)
	}
	if raw := os.Getenv("PIN_DURATION"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("PIN_DURATION must be a number of hours: %w", err)
		}
		viper.Set("pins.duration", time.Duration(hours)*time.Hour)
	}

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if conf.Pins.DatabasePath == "" {
		downloadDir := strings.TrimRight(conf.Ipfs.DownloadDir, "/")
		conf.Pins.DatabasePath = filepath.Join(filepath.Dir(downloadDir), "pins.db")
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "pinbot"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

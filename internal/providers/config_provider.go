package providers

import (
	"fitsink/internal/structures"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("environment", "FITSINK_ENV")
	viper.BindEnv("logger.level", "FITSINK_LOG_LEVEL")
	viper.BindEnv("database.host", "FITSINK_DB_HOST")
	viper.BindEnv("database.port", "FITSINK_DB_PORT")
	viper.BindEnv("database.user", "FITSINK_DB_USER")
	viper.BindEnv("database.password", "FITSINK_DB_PASSWORD")
	viper.BindEnv("database.name", "FITSINK_DB_NAME")
	viper.BindEnv("vital.apiKey", "VITAL_API_KEY")
	viper.BindEnv("vital.webhookSecret", "VITAL_WEBHOOK_SECRET")
	viper.BindEnv("terra.devId", "TERRA_DEV_ID")
	viper.BindEnv("terra.apiKey", "TERRA_API_KEY")
	viper.BindEnv("terra.signingSecret", "TERRA_SIGNING_SECRET")
	viper.BindEnv("stripe.webhookSecret", "STRIPE_WEBHOOK_SECRET")
	viper.BindEnv("api.token", "FITSINK_API_TOKEN")
	viper.BindEnv("cache.enabled", "FITSINK_CACHE_ENABLED")
	viper.BindEnv("cache.size", "FITSINK_CACHE_SIZE")
	viper.BindEnv("archive.dir", "FITSINK_ARCHIVE_DIR")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FitSink"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

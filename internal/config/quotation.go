package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// QuotationConfig is the letterhead printed on exported quotation sheets.
type QuotationConfig struct {
	CompanyName string   `mapstructure:"companyName"`
	GSTIN       string   `mapstructure:"gstin"`
	Address     string   `mapstructure:"address"`
	Terms       []string `mapstructure:"terms"`
}

func DefaultQuotationConfig() QuotationConfig {
	return QuotationConfig{
		CompanyName: "Medbill",
		Terms: []string{
			"Prices are inclusive of GST as shown.",
			"Quotation valid for 30 days from the date above.",
		},
	}
}

// QuotationConfigHolder serves the latest valid QuotationConfig. When backed
// by a file, edits are picked up without a restart.
type QuotationConfigHolder struct {
	current atomic.Value // holds QuotationConfig
}

func NewQuotationConfigHolder(log *zap.Logger) (*QuotationConfigHolder, error) {
	log = log.Named("config.quotation")
	v := viper.New()

	v.SetConfigName("quotation")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/medbill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MEDBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &QuotationConfigHolder{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		holder.current.Store(DefaultQuotationConfig())
		return holder, nil
	}

	cfg, err := decodeQuotationConfig(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeQuotationConfig(v)
		if err != nil {
			log.Warn("quotation config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("quotation config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticQuotationConfigHolder returns a holder that never reloads.
func NewStaticQuotationConfigHolder(cfg QuotationConfig) *QuotationConfigHolder {
	holder := &QuotationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *QuotationConfigHolder) Get() QuotationConfig {
	return h.current.Load().(QuotationConfig)
}

func decodeQuotationConfig(v *viper.Viper) (QuotationConfig, error) {
	var cfg QuotationConfig
	if err := v.UnmarshalKey("quotation", &cfg); err != nil {
		return QuotationConfig{}, err
	}
	cfg.CompanyName = strings.TrimSpace(cfg.CompanyName)
	if err := validateQuotationConfig(cfg); err != nil {
		return QuotationConfig{}, err
	}
	return cfg, nil
}

func validateQuotationConfig(cfg QuotationConfig) error {
	if cfg.CompanyName == "" {
		return errors.New("quotation.companyName cannot be empty")
	}
	if len(cfg.Terms) > 20 {
		return errors.New("quotation.terms cannot exceed 20 entries")
	}
	return nil
}

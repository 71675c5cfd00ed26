package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	TransitionPolicyStrict     = "strict"
	TransitionPolicyPermissive = "permissive"
)

// ShopConfig carries shop-level settings that can change without a restart.
type ShopConfig struct {
	Name             string `mapstructure:"name"`
	Address          string `mapstructure:"address"`
	Email            string `mapstructure:"email"`
	CurrencySymbol   string `mapstructure:"currencySymbol"`
	TransitionPolicy string `mapstructure:"transitionPolicy"`
	// InvoiceNumberTemplate accepts {YYYY} {YY} {MM} {DD} {SEQ} and {SEQn}.
	InvoiceNumberTemplate string `mapstructure:"invoiceNumberTemplate"`
}

func DefaultShopConfig() ShopConfig {
	return ShopConfig{
		Name:             "Service Bay",
		CurrencySymbol:   "₹",
		TransitionPolicy: TransitionPolicyStrict,
	}
}

type ShopConfigHolder struct {
	current atomic.Value // holds ShopConfig
}

// NewStaticShopConfigHolder returns a holder that never reloads.
func NewStaticShopConfigHolder(cfg ShopConfig) *ShopConfigHolder {
	holder := &ShopConfigHolder{}
	holder.current.Store(normalizeShopConfig(cfg))
	return holder
}

func NewShopConfigHolder(log *zap.Logger) (*ShopConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("shop.config")

	v := viper.New()

	v.SetConfigName("shop")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/servicebay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SERVICEBAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultShopConfig()
	v.SetDefault("shop.name", defaults.Name)
	v.SetDefault("shop.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("shop.transitionPolicy", defaults.TransitionPolicy)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg ShopConfig
	if err := v.UnmarshalKey("shop", &cfg); err != nil {
		return nil, err
	}
	cfg = normalizeShopConfig(cfg)
	if err := validateShopConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ShopConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ShopConfig
		if err := v.UnmarshalKey("shop", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		updated = normalizeShopConfig(updated)
		if err := validateShopConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ShopConfigHolder) Get() ShopConfig {
	if h == nil {
		return DefaultShopConfig()
	}
	cfg, ok := h.current.Load().(ShopConfig)
	if !ok {
		return DefaultShopConfig()
	}
	return cfg
}

func normalizeShopConfig(cfg ShopConfig) ShopConfig {
	defaults := DefaultShopConfig()
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	cfg.CurrencySymbol = strings.TrimSpace(cfg.CurrencySymbol)
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = defaults.CurrencySymbol
	}
	cfg.TransitionPolicy = strings.ToLower(strings.TrimSpace(cfg.TransitionPolicy))
	if cfg.TransitionPolicy == "" {
		cfg.TransitionPolicy = defaults.TransitionPolicy
	}
	cfg.InvoiceNumberTemplate = strings.TrimSpace(cfg.InvoiceNumberTemplate)
	return cfg
}

func validateShopConfig(cfg ShopConfig) error {
	switch cfg.TransitionPolicy {
	case TransitionPolicyStrict, TransitionPolicyPermissive:
	default:
		return fmt.Errorf("shop.transitionPolicy %q is not supported", cfg.TransitionPolicy)
	}
	if cfg.Email != "" && !strings.Contains(cfg.Email, "@") {
		return errors.New("shop.email is invalid")
	}
	return nil
}

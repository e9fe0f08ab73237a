package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WebhookPolicy controls how unverifiable webhook deliveries are treated and
// how many times a failed ledger entry may be retried by the external job.
type WebhookPolicy struct {
	// FailOpen accepts deliveries when the bound provider cannot verify
	// signatures. The delivery is still recorded in the ledger either way.
	FailOpen bool `mapstructure:"failOpen"`
	// MaxRetries caps PaymentLedgerEntry.RetryCount.
	MaxRetries int `mapstructure:"maxRetries"`
}

func DefaultWebhookPolicy() WebhookPolicy {
	return WebhookPolicy{
		FailOpen:   true,
		MaxRetries: 5,
	}
}

// WebhookPolicyHolder serves the current policy and hot-reloads it when the
// payments config file changes on disk.
type WebhookPolicyHolder struct {
	current atomic.Value // holds WebhookPolicy
}

func NewWebhookPolicyHolder(cfg Config) (*WebhookPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("payments")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/atsfit")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATSFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultWebhookPolicy()
	defaults.FailOpen = cfg.WebhookFailOpen
	v.SetDefault("webhook.failOpen", defaults.FailOpen)
	v.SetDefault("webhook.maxRetries", defaults.MaxRetries)

	holder := &WebhookPolicyHolder{}

	load := func() error {
		var policy WebhookPolicy
		if err := v.UnmarshalKey("webhook", &policy); err != nil {
			return err
		}
		if policy.MaxRetries <= 0 {
			policy.MaxRetries = defaults.MaxRetries
		}
		holder.current.Store(policy)
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	if err := load(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := load(); err != nil {
			log.Printf("reload payments config: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *WebhookPolicyHolder) Current() WebhookPolicy {
	if h == nil {
		return DefaultWebhookPolicy()
	}
	if policy, ok := h.current.Load().(WebhookPolicy); ok {
		return policy
	}
	return DefaultWebhookPolicy()
}

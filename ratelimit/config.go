/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/acronis/go-funnel/config"
	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/log"
)

const cfgDefaultKeyPrefix = "rateLimit"

const (
	cfgKeyEnabled      = "enabled"
	cfgKeyAlg          = "alg"
	cfgKeyRate         = "rate"
	cfgKeyBurst        = "burst"
	cfgKeyMaxKeys      = "maxKeys"
	cfgKeyKey          = "key"
	cfgKeyExempt       = "exempt"
	cfgKeyExcludedKeys = "excludedKeys"
)

// Rate-limiting algorithms.
const (
	AlgLeakyBucket   = "leaky_bucket"
	AlgSlidingWindow = "sliding_window"
	AlgTokenBucket   = "token_bucket"
)

// Default values.
const (
	DefaultAlg     = AlgLeakyBucket
	DefaultMaxKeys = 10000
)

// Config represents a set of configuration parameters for rate limiting.
type Config struct {
	Enabled      bool
	Alg          string
	Rate         Rate
	Burst        int
	MaxKeys      int
	KeyType      KeyType
	Exempt       []string
	ExcludedKeys []string

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, false)
	dp.SetDefault(cfgKeyAlg, DefaultAlg)
	dp.SetDefault(cfgKeyMaxKeys, DefaultMaxKeys)
	dp.SetDefault(cfgKeyKey, string(KeyTypeIdentity))
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Alg, err = dp.GetStringFromSet(cfgKeyAlg, []string{AlgLeakyBucket, AlgSlidingWindow, AlgTokenBucket}, false); err != nil {
		return err
	}
	if c.Rate, err = decodeRate(dp.Get(cfgKeyRate)); err != nil {
		return dp.WrapKeyErr(cfgKeyRate, err)
	}
	if c.Enabled && c.Rate.IsZero() {
		return dp.WrapKeyErr(cfgKeyRate, fmt.Errorf("must be set when rate limiting is enabled"))
	}
	if c.Burst, err = dp.GetInt(cfgKeyBurst); err != nil {
		return err
	}
	if c.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyBurst, fmt.Errorf("cannot be negative"))
	}
	if c.MaxKeys, err = dp.GetInt(cfgKeyMaxKeys); err != nil {
		return err
	}
	if c.MaxKeys < 0 {
		return dp.WrapKeyErr(cfgKeyMaxKeys, fmt.Errorf("cannot be negative"))
	}
	keyType, err := dp.GetStringFromSet(cfgKeyKey,
		[]string{string(KeyTypeNoKey), string(KeyTypeIdentity), string(KeyTypeConnection)}, false)
	if err != nil {
		return err
	}
	c.KeyType = KeyType(keyType)
	if c.Exempt, err = getTrimmedStrings(dp, cfgKeyExempt); err != nil {
		return err
	}
	if c.ExcludedKeys, err = getTrimmedStrings(dp, cfgKeyExcludedKeys); err != nil {
		return err
	}
	return nil
}

// NewFromConfig creates a funnel.RateLimiter from the configuration.
// It returns nil if rate limiting is disabled, so every request is allowed.
func NewFromConfig(cfg *Config, logger log.FieldLogger) (funnel.RateLimiter, error) {
	return NewFromConfigWithOpts(cfg, logger, LimiterOpts{})
}

// NewFromConfigWithOpts is NewFromConfig with optional limiter parameters.
func NewFromConfigWithOpts(cfg *Config, logger log.FieldLogger, opts LimiterOpts) (funnel.RateLimiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var limiter Limiter
	var err error
	switch cfg.Alg {
	case AlgLeakyBucket, "":
		limiter, err = NewLeakyBucketLimiter(cfg.Rate, cfg.Burst, cfg.MaxKeys)
	case AlgSlidingWindow:
		limiter, err = NewSlidingWindowLimiterWithOpts(cfg.Rate, cfg.MaxKeys, opts)
	case AlgTokenBucket:
		limiter, err = NewTokenBucketLimiterWithOpts(cfg.Rate, cfg.Burst, cfg.MaxKeys, opts)
	default:
		return nil, fmt.Errorf("unknown rate limiting algorithm %q", cfg.Alg)
	}
	if err != nil {
		return nil, fmt.Errorf("new %s limiter: %w", cfg.Alg, err)
	}
	return NewRequestLimiter(limiter, RequestLimiterOpts{
		KeyType:      cfg.KeyType,
		Exempt:       cfg.Exempt,
		ExcludedKeys: cfg.ExcludedKeys,
		Logger:       logger,
	})
}

func decodeRate(val interface{}) (Rate, error) {
	var res Rate
	if val == nil {
		return res, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
		Result:     &res,
	})
	if err != nil {
		return res, err
	}
	if err = decoder.Decode(val); err != nil {
		return res, err
	}
	return res, nil
}

func getTrimmedStrings(dp config.DataProvider, key string) ([]string, error) {
	vals, err := dp.GetStringSlice(key)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res, nil
}

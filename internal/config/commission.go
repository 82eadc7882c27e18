package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// DefaultCommissionRateBps is the platform cut on COD bookings (10%).
	DefaultCommissionRateBps = 1000
	DefaultCommissionDueDays = 7
	DefaultCollectionMethod  = "upi"
)

// CommissionPolicy controls how commission obligations are computed.
type CommissionPolicy struct {
	RateBps          int64  `mapstructure:"rateBps"`
	DueDays          int    `mapstructure:"dueDays"`
	CollectionMethod string `mapstructure:"collectionMethod"`
}

func DefaultCommissionPolicy() CommissionPolicy {
	return CommissionPolicy{
		RateBps:          DefaultCommissionRateBps,
		DueDays:          DefaultCommissionDueDays,
		CollectionMethod: DefaultCollectionMethod,
	}
}

// CommissionFor returns the commission owed on amount, rounded half up to the minor unit.
func (p CommissionPolicy) CommissionFor(amount int64) int64 {
	if amount <= 0 || p.RateBps <= 0 {
		return 0
	}
	return (amount*p.RateBps + 5000) / 10000
}

type CommissionPolicyHolder struct {
	current atomic.Value // holds CommissionPolicy
}

// NewStaticCommissionPolicyHolder returns a holder that never reloads.
func NewStaticCommissionPolicyHolder(policy CommissionPolicy) *CommissionPolicyHolder {
	holder := &CommissionPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewCommissionPolicyHolder(log *zap.Logger) (*CommissionPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("commission")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/fixdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FIXDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCommissionPolicy()
	v.SetDefault("commission.rateBps", defaults.RateBps)
	v.SetDefault("commission.dueDays", defaults.DueDays)
	v.SetDefault("commission.collectionMethod", defaults.CollectionMethod)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var policy CommissionPolicy
	if err := v.UnmarshalKey("commission", &policy); err != nil {
		return nil, err
	}
	if err := validateCommissionPolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticCommissionPolicyHolder(policy)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CommissionPolicy
		if err := v.UnmarshalKey("commission", &updated); err != nil {
			log.Warn("commission policy reload failed", zap.Error(err))
			return
		}
		if err := validateCommissionPolicy(updated); err != nil {
			log.Warn("invalid commission policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("commission policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *CommissionPolicyHolder) Get() CommissionPolicy {
	if h == nil {
		return DefaultCommissionPolicy()
	}
	policy, ok := h.current.Load().(CommissionPolicy)
	if !ok {
		return DefaultCommissionPolicy()
	}
	return policy
}

func validateCommissionPolicy(p CommissionPolicy) error {
	if p.RateBps <= 0 || p.RateBps > 10000 {
		return errors.New("commission.rateBps must be within (0, 10000]")
	}
	if p.DueDays <= 0 {
		return errors.New("commission.dueDays must be positive")
	}
	if strings.TrimSpace(p.CollectionMethod) == "" {
		return errors.New("commission.collectionMethod cannot be empty")
	}
	return nil
}

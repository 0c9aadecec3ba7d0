package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CreditPolicy carries the business knobs of the repayment engine.
type CreditPolicy struct {
	Purchase  PurchasePolicy  `mapstructure:"purchase"`
	Repayment RepaymentPolicy `mapstructure:"repayment"`
	Scoring   ScoringPolicy   `mapstructure:"scoring"`
	Tiers     TierPolicy      `mapstructure:"tiers"`
}

type PurchasePolicy struct {
	MinAmount int64 `mapstructure:"minAmount"`
	MaxAmount int64 `mapstructure:"maxAmount"`
}

type RepaymentPolicy struct {
	AmountTolerance float64 `mapstructure:"amountTolerance"`
	CurrencySymbol  string  `mapstructure:"currencySymbol"`
}

// ScoringPolicy parameterizes the vendor credit score formula.
type ScoringPolicy struct {
	OnTimeThresholdDays int     `mapstructure:"onTimeThresholdDays"`
	TargetAverageDays   int     `mapstructure:"targetAverageDays"`
	DeclineMarginDays   int     `mapstructure:"declineMarginDays"`
	OnTimeWeight        float64 `mapstructure:"onTimeWeight"`
	AverageDaysWeight   float64 `mapstructure:"averageDaysWeight"`
	InterestRatioWeight float64 `mapstructure:"interestRatioWeight"`
	DeclinePenalty      float64 `mapstructure:"declinePenalty"`
}

type TierPolicy struct {
	DiscountWarnRate float64       `mapstructure:"discountWarnRate"`
	InterestWarnRate float64       `mapstructure:"interestWarnRate"`
	SnapshotTTL      time.Duration `mapstructure:"snapshotTTL"`
}

func DefaultCreditPolicy() CreditPolicy {
	return CreditPolicy{
		Purchase: PurchasePolicy{
			MinAmount: 50_000,
			MaxAmount: 100_000,
		},
		Repayment: RepaymentPolicy{
			AmountTolerance: 1,
			CurrencySymbol:  "₹",
		},
		Scoring: DefaultScoringPolicy(),
		Tiers: TierPolicy{
			DiscountWarnRate: 20,
			InterestWarnRate: 15,
			SnapshotTTL:      30 * time.Second,
		},
	}
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		OnTimeThresholdDays: 90,
		TargetAverageDays:   45,
		DeclineMarginDays:   15,
		OnTimeWeight:        40,
		AverageDaysWeight:   30,
		InterestRatioWeight: 20,
		DeclinePenalty:      10,
	}
}

type CreditPolicyHolder struct {
	current atomic.Value // holds CreditPolicy
}

// NewStaticCreditPolicyHolder returns a holder pinned to the given policy.
func NewStaticCreditPolicyHolder(policy CreditPolicy) *CreditPolicyHolder {
	holder := &CreditPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewCreditPolicyHolder() (*CreditPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("credit")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/vendorcredit/config")
	v.AddConfigPath("/etc/vendorcredit")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VENDORCREDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setPolicyDefaults(v, DefaultCreditPolicy())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := decodePolicy(v)
	if err != nil {
		return nil, err
	}
	if err := ValidateCreditPolicy(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticCreditPolicyHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePolicy(v)
		if err != nil {
			log.Printf("[credit-policy] reload failed: %v", err)
			return
		}
		if err := ValidateCreditPolicy(updated); err != nil {
			log.Printf("[credit-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[credit-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CreditPolicyHolder) Get() CreditPolicy {
	if h == nil {
		return DefaultCreditPolicy()
	}
	policy, ok := h.current.Load().(CreditPolicy)
	if !ok {
		return DefaultCreditPolicy()
	}
	return policy
}

// decodePolicy goes through AllSettings so a partial file keeps the defaults
// of the keys it omits.
func decodePolicy(v *viper.Viper) (CreditPolicy, error) {
	var wrapper struct {
		Credit CreditPolicy `mapstructure:"credit"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return CreditPolicy{}, err
	}
	return wrapper.Credit, nil
}

func setPolicyDefaults(v *viper.Viper, p CreditPolicy) {
	v.SetDefault("credit.purchase.minAmount", p.Purchase.MinAmount)
	v.SetDefault("credit.purchase.maxAmount", p.Purchase.MaxAmount)
	v.SetDefault("credit.repayment.amountTolerance", p.Repayment.AmountTolerance)
	v.SetDefault("credit.repayment.currencySymbol", p.Repayment.CurrencySymbol)
	v.SetDefault("credit.scoring.onTimeThresholdDays", p.Scoring.OnTimeThresholdDays)
	v.SetDefault("credit.scoring.targetAverageDays", p.Scoring.TargetAverageDays)
	v.SetDefault("credit.scoring.declineMarginDays", p.Scoring.DeclineMarginDays)
	v.SetDefault("credit.scoring.onTimeWeight", p.Scoring.OnTimeWeight)
	v.SetDefault("credit.scoring.averageDaysWeight", p.Scoring.AverageDaysWeight)
	v.SetDefault("credit.scoring.interestRatioWeight", p.Scoring.InterestRatioWeight)
	v.SetDefault("credit.scoring.declinePenalty", p.Scoring.DeclinePenalty)
	v.SetDefault("credit.tiers.discountWarnRate", p.Tiers.DiscountWarnRate)
	v.SetDefault("credit.tiers.interestWarnRate", p.Tiers.InterestWarnRate)
	v.SetDefault("credit.tiers.snapshotTTL", p.Tiers.SnapshotTTL)
}

func ValidateCreditPolicy(cfg CreditPolicy) error {
	if cfg.Purchase.MinAmount <= 0 {
		return errors.New("credit.purchase.minAmount must be positive")
	}
	if cfg.Purchase.MaxAmount < cfg.Purchase.MinAmount {
		return errors.New("credit.purchase.maxAmount must not be below minAmount")
	}
	if cfg.Repayment.AmountTolerance < 0 {
		return errors.New("credit.repayment.amountTolerance cannot be negative")
	}
	if cfg.Scoring.OnTimeThresholdDays <= 0 {
		return errors.New("credit.scoring.onTimeThresholdDays must be positive")
	}
	if cfg.Scoring.TargetAverageDays <= 0 {
		return errors.New("credit.scoring.targetAverageDays must be positive")
	}
	if cfg.Scoring.DeclineMarginDays < 0 {
		return errors.New("credit.scoring.declineMarginDays cannot be negative")
	}
	if cfg.Tiers.SnapshotTTL < 0 {
		return errors.New("credit.tiers.snapshotTTL cannot be negative")
	}
	return nil
}

package tenant

import (
	"github.com/shopspring/decimal"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
)

// SubscriptionPlan is a commercial plan. Plans are ordered from BASIC to
// CUSTOM; upgrades and downgrades compare that order.
type SubscriptionPlan string

const (
	PlanBasic        SubscriptionPlan = "BASIC"
	PlanStandard     SubscriptionPlan = "STANDARD"
	PlanProfessional SubscriptionPlan = "PROFESSIONAL"
	PlanEnterprise   SubscriptionPlan = "ENTERPRISE"
	PlanCustom       SubscriptionPlan = "CUSTOM"
)

var planOrder = map[SubscriptionPlan]int{
	PlanBasic:        0,
	PlanStandard:     1,
	PlanProfessional: 2,
	PlanEnterprise:   3,
	PlanCustom:       4,
}

// IsValid returns true if the plan is a known value
func (p SubscriptionPlan) IsValid() bool {
	_, ok := planOrder[p]
	return ok
}

// Ordinal returns the plan's position in the plan order, -1 if unknown
func (p SubscriptionPlan) Ordinal() int {
	if o, ok := planOrder[p]; ok {
		return o
	}
	return -1
}

// String returns the string representation
func (p SubscriptionPlan) String() string {
	return string(p)
}

// BillingPeriod is the length of one billing cycle
type BillingPeriod string

const (
	BillingMonthly   BillingPeriod = "MONTHLY"
	BillingQuarterly BillingPeriod = "QUARTERLY"
	BillingYearly    BillingPeriod = "YEARLY"
)

// IsValid returns true if the period is a known value
func (p BillingPeriod) IsValid() bool {
	switch p {
	case BillingMonthly, BillingQuarterly, BillingYearly:
		return true
	}
	return false
}

// Months returns the number of calendar months in the period
func (p BillingPeriod) Months() int {
	switch p {
	case BillingQuarterly:
		return 3
	case BillingYearly:
		return 12
	default:
		return 1
	}
}

// Multiplier returns the price factor applied to the monthly base price.
// Quarterly carries a 5% discount and yearly charges ten months.
func (p BillingPeriod) Multiplier() decimal.Decimal {
	switch p {
	case BillingQuarterly:
		return decimal.RequireFromString("2.85")
	case BillingYearly:
		return decimal.NewFromInt(10)
	default:
		return decimal.NewFromInt(1)
	}
}

// String returns the string representation
func (p BillingPeriod) String() string {
	return string(p)
}

// Monthly base prices by plan. CUSTOM is priced outside the catalogue.
var basePrices = map[SubscriptionPlan]valueobject.Money{
	PlanBasic:        valueobject.MustNewMoneyFromString("29.99"),
	PlanStandard:     valueobject.MustNewMoneyFromString("99.99"),
	PlanProfessional: valueobject.MustNewMoneyFromString("299.99"),
	PlanEnterprise:   valueobject.MustNewMoneyFromString("999.99"),
}

// BasePrice returns the monthly price of a plan
func BasePrice(plan SubscriptionPlan) valueobject.Money {
	if price, ok := basePrices[plan]; ok {
		return price
	}
	return valueobject.Zero()
}

// CalculatePrice returns the price of one billing period, rounded half-even
func CalculatePrice(plan SubscriptionPlan, period BillingPeriod) valueobject.Money {
	price, err := BasePrice(plan).MultiplyDecimal(period.Multiplier())
	if err != nil {
		// multipliers are positive constants
		return valueobject.Zero()
	}
	return price
}

// PlanLimits are the usage limits granted by a plan. Nil means unlimited.
type PlanLimits struct {
	Users     *int
	Students  *int
	StorageGB *int
}

// LimitsForPlan returns the limits of a plan. ok is false for CUSTOM,
// whose limits are negotiated and left untouched.
func LimitsForPlan(plan SubscriptionPlan) (limits PlanLimits, ok bool) {
	switch plan {
	case PlanBasic:
		return PlanLimits{Users: intPtr(10), Students: intPtr(100), StorageGB: intPtr(5)}, true
	case PlanStandard:
		return PlanLimits{Users: intPtr(50), Students: intPtr(500), StorageGB: intPtr(25)}, true
	case PlanProfessional:
		return PlanLimits{Users: intPtr(200), Students: intPtr(2000), StorageGB: intPtr(100)}, true
	case PlanEnterprise:
		return PlanLimits{StorageGB: intPtr(500)}, true
	default:
		return PlanLimits{}, false
	}
}

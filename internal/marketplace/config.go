package marketplace

import (
	"sort"
	"strings"

	"sellerpulse/pkg/contracts/domain"
)

// GrossSalesFormula names how a marketplace's gross sales are derived from
// the "product sales" and "product sales tax" columns.
type GrossSalesFormula string

const (
	// SalesOnly: sales tax is collected on top of the list price and is not
	// part of gross sales (US, CA).
	SalesOnly GrossSalesFormula = "sales_only"
	// SalesPlusTax: list prices include VAT/GST but the report splits the
	// tax into its own column, so gross = sales + tax (UK, EU, AU).
	SalesPlusTax GrossSalesFormula = "sales_plus_tax"
	// TaxInclusivePrincipal: the report's principal amount already folds
	// the VAT in; the tax column is informational (AE, SA).
	TaxInclusivePrincipal GrossSalesFormula = "tax_inclusive_principal"
)

// Apply computes gross sales for the formula.
func (g GrossSalesFormula) Apply(sales, tax float64) float64 {
	switch g {
	case SalesPlusTax:
		return sales + tax
	case SalesOnly, TaxInclusivePrincipal:
		return sales
	default:
		return sales
	}
}

// Field names a financial field of a canonical transaction.
type Field string

const (
	FieldTotal                Field = "total"
	FieldOther                Field = "other"
	FieldOtherTransactionFees Field = "other_transaction_fees"
	FieldSellingFees          Field = "selling_fees"
	FieldFBAFees              Field = "fba_fees"
)

// Value reads the field from a transaction.
func (f Field) Value(tx domain.Transaction) float64 {
	switch f {
	case FieldOther:
		return tx.Other
	case FieldOtherTransactionFees:
		return tx.OtherTransactionFees
	case FieldSellingFees:
		return tx.SellingFees
	case FieldFBAFees:
		return tx.FBAFees
	default:
		return tx.Total
	}
}

// ShippingSource locates FBM shipping cost in a marketplace's report.
// RequireFBM restricts the match to rows tagged as merchant fulfilled.
type ShippingSource struct {
	Category   domain.CategoryType
	Field      Field
	RequireFBM bool
}

// Config is the immutable reference configuration of one marketplace.
type Config struct {
	Code               string
	Name               string
	Domain             string
	Currency           string
	HasVAT             bool
	VATIncludedInPrice bool
	RefundRecoveryRate float64
	GrossSales         GrossSalesFormula
	HasLiquidations    bool
	FBMShipping        ShippingSource
	PostalZoneAnalysis bool
	// DayFirst marks numeric dates as dd/mm/yyyy rather than mm/dd/yyyy.
	DayFirst bool
}

// GrossSalesOf applies the marketplace's gross sales formula.
func (c Config) GrossSalesOf(sales, tax float64) float64 {
	return c.GrossSales.Apply(sales, tax)
}

var shippingServices = ShippingSource{Category: domain.CategoryShippingServices, Field: FieldTotal}

var configs = map[string]Config{
	"US": {
		Code: "US", Name: "United States", Domain: "amazon.com", Currency: "USD",
		RefundRecoveryRate: 0.20, GrossSales: SalesOnly, HasLiquidations: true,
		FBMShipping: shippingServices, PostalZoneAnalysis: true,
	},
	"CA": {
		Code: "CA", Name: "Canada", Domain: "amazon.ca", Currency: "CAD",
		RefundRecoveryRate: 0.20, GrossSales: SalesOnly,
		FBMShipping: shippingServices,
	},
	"UK": {
		Code: "UK", Name: "United Kingdom", Domain: "amazon.co.uk", Currency: "GBP",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.20,
		GrossSales: SalesPlusTax, HasLiquidations: true, FBMShipping: shippingServices, DayFirst: true,
	},
	"DE": {
		Code: "DE", Name: "Germany", Domain: "amazon.de", Currency: "EUR",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.20,
		GrossSales: SalesPlusTax, HasLiquidations: true, FBMShipping: shippingServices, DayFirst: true,
	},
	"FR": {
		Code: "FR", Name: "France", Domain: "amazon.fr", Currency: "EUR",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.20,
		GrossSales: SalesPlusTax, HasLiquidations: true, FBMShipping: shippingServices, DayFirst: true,
	},
	"IT": {
		Code: "IT", Name: "Italy", Domain: "amazon.it", Currency: "EUR",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.20,
		GrossSales: SalesPlusTax, HasLiquidations: true, FBMShipping: shippingServices, DayFirst: true,
	},
	"ES": {
		Code: "ES", Name: "Spain", Domain: "amazon.es", Currency: "EUR",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.20,
		GrossSales: SalesPlusTax, HasLiquidations: true, FBMShipping: shippingServices, DayFirst: true,
	},
	"AU": {
		Code: "AU", Name: "Australia", Domain: "amazon.com.au", Currency: "AUD",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.20,
		GrossSales: SalesPlusTax, FBMShipping: shippingServices, DayFirst: true,
	},
	"AE": {
		Code: "AE", Name: "United Arab Emirates", Domain: "amazon.ae", Currency: "AED",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.10,
		GrossSales: TaxInclusivePrincipal, DayFirst: true,
		FBMShipping: ShippingSource{Category: domain.CategoryOrder, Field: FieldOtherTransactionFees, RequireFBM: true},
	},
	"SA": {
		Code: "SA", Name: "Saudi Arabia", Domain: "amazon.sa", Currency: "SAR",
		HasVAT: true, VATIncludedInPrice: true, RefundRecoveryRate: 0.10,
		GrossSales: TaxInclusivePrincipal, DayFirst: true,
		FBMShipping: ShippingSource{Category: domain.CategoryOrder, Field: FieldOtherTransactionFees, RequireFBM: true},
	},
}

// aliases maps alternate spellings to canonical codes.
var aliases = map[string]string{
	"UAE": "AE",
	"KSA": "SA",
	"GB":  "UK",
	"USA": "US",
}

// Lookup returns the configuration for a code or alias.
func Lookup(code string) (Config, bool) {
	cfg, ok := configs[NormalizeCode(code)]
	return cfg, ok
}

// MustLookup returns the configuration for code, or a US-shaped default
// carrying the code when it is unknown.
func MustLookup(code string) Config {
	if cfg, ok := Lookup(code); ok {
		return cfg
	}
	cfg := configs["US"]
	cfg.Code = code
	cfg.HasLiquidations = false
	cfg.PostalZoneAnalysis = false
	return cfg
}

// Codes returns every supported marketplace code in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(configs))
	for code := range configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeCode upper-cases and resolves aliases. Unknown codes are
// returned upper-cased.
func NormalizeCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := aliases[c]; ok {
		return canonical
	}
	return c
}

// Aliases returns the alternate spellings of a canonical code (AE -> UAE).
func Aliases(code string) []string {
	canonical := NormalizeCode(code)
	var out []string
	for alias, target := range aliases {
		if target == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

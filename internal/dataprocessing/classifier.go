package dataprocessing

import (
	"strings"

	"sellerpulse/pkg/contracts/domain"
)

// typeRule maps one raw report "type" value to its category.
type typeRule struct {
	raw      string
	category domain.CategoryType
}

// typeRules is the closed table of report type strings, English first and
// then the German, French, Italian and Spanish report dialects.
var typeRules = []typeRule{
	{"Order", domain.CategoryOrder},
	{"Refund", domain.CategoryRefund},
	{"Adjustment", domain.CategoryAdjustment},
	{"FBA Inventory Fee", domain.CategoryFBAInventoryFee},
	{"Chargeback Refund", domain.CategoryChargebackRefund},
	{"Service Fee", domain.CategoryServiceFee},
	{"FBA Transaction Fee", domain.CategoryFBATransactionFee},
	{"Fee Adjustment", domain.CategoryFeeAdjustment},
	{"SAFE-T Reimbursement", domain.CategorySAFETReimbursement},
	{"Liquidations", domain.CategoryLiquidations},
	{"Liquidations Adjustments", domain.CategoryLiquidations},
	{"Shipping Services", domain.CategoryShippingServices},

	{"Bestellung", domain.CategoryOrder},
	{"Erstattung", domain.CategoryRefund},
	{"Anpassung", domain.CategoryAdjustment},
	{"Lagergebühr Versand durch Amazon", domain.CategoryFBAInventoryFee},
	{"Versand durch Amazon Lagergebühr", domain.CategoryFBAInventoryFee},
	{"Erstattung durch Rückbuchung", domain.CategoryChargebackRefund},
	{"Servicegebühr", domain.CategoryServiceFee},
	{"Transaktionsgebühr Versand durch Amazon", domain.CategoryFBATransactionFee},
	{"Gebührenanpassung", domain.CategoryFeeAdjustment},
	{"SAFE-T-Erstattung", domain.CategorySAFETReimbursement},
	{"Liquidationen", domain.CategoryLiquidations},
	{"Versanddienste", domain.CategoryShippingServices},

	{"Commande", domain.CategoryOrder},
	{"Remboursement", domain.CategoryRefund},
	{"Ajustement", domain.CategoryAdjustment},
	{"Frais de stock Expédié par Amazon", domain.CategoryFBAInventoryFee},
	{"Remboursement de rétrofacturation", domain.CategoryChargebackRefund},
	{"Frais de service", domain.CategoryServiceFee},
	{"Frais de transaction Expédié par Amazon", domain.CategoryFBATransactionFee},
	{"Ajustement des frais", domain.CategoryFeeAdjustment},
	{"Remboursement SAFE-T", domain.CategorySAFETReimbursement},
	{"Liquidations de stock", domain.CategoryLiquidations},
	{"Services d'expédition", domain.CategoryShippingServices},

	{"Ordine", domain.CategoryOrder},
	{"Rimborso", domain.CategoryRefund},
	{"Modifica", domain.CategoryAdjustment},
	{"Costo di stoccaggio Logistica di Amazon", domain.CategoryFBAInventoryFee},
	{"Rimborso chargeback", domain.CategoryChargebackRefund},
	{"Commissione di servizio", domain.CategoryServiceFee},
	{"Commissione per transazione Logistica di Amazon", domain.CategoryFBATransactionFee},
	{"Modifica commissione", domain.CategoryFeeAdjustment},
	{"Rimborso SAFE-T", domain.CategorySAFETReimbursement},
	{"Liquidazioni", domain.CategoryLiquidations},
	{"Servizi di spedizione", domain.CategoryShippingServices},

	{"Pedido", domain.CategoryOrder},
	{"Reembolso", domain.CategoryRefund},
	{"Ajuste", domain.CategoryAdjustment},
	{"Tarifas de inventario de Logística de Amazon", domain.CategoryFBAInventoryFee},
	{"Reembolso de contracargo", domain.CategoryChargebackRefund},
	{"Tarifa de servicio", domain.CategoryServiceFee},
	{"Tarifa de transacción de Logística de Amazon", domain.CategoryFBATransactionFee},
	{"Ajuste de tarifa", domain.CategoryFeeAdjustment},
	{"Reembolso SAFE-T", domain.CategorySAFETReimbursement},
	{"Liquidaciones", domain.CategoryLiquidations},
	{"Servicios de envío", domain.CategoryShippingServices},
}

var typeIndex = buildTypeIndex(typeRules)

func buildTypeIndex(rules []typeRule) map[string]domain.CategoryType {
	index := make(map[string]domain.CategoryType, len(rules))
	for _, r := range rules {
		key := strings.ToLower(r.raw)
		// earlier rules win
		if _, exists := index[key]; !exists {
			index[key] = r.category
		}
	}
	return index
}

// Classify maps a raw report type to its category. Unknown types return
// false and the row must be dropped.
func Classify(rawType string) (domain.CategoryType, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(rawType), " "))
	if key == "" {
		return "", false
	}
	category, ok := typeIndex[key]
	return category, ok
}

// liquidationAdjustmentTypes share the Liquidations category but carry
// corrections, not liquidation proceeds.
var liquidationAdjustmentTypes = map[string]bool{
	"liquidations adjustments": true,
}

// IsLiquidationProceeds reports whether rawType is a liquidation sale whose
// total counts as liquidation proceeds.
func IsLiquidationProceeds(rawType string) bool {
	category, ok := Classify(rawType)
	if !ok || category != domain.CategoryLiquidations {
		return false
	}
	return !liquidationAdjustmentTypes[strings.ToLower(strings.Join(strings.Fields(rawType), " "))]
}

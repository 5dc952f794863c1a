package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sellerpulse/pkg/contracts/domain"
)

func TestNormalizeInventoryFeeDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		orderID     string
		want        string
	}{
		{"removal disposal", "FBA Removal Order: Disposal Fee", "", LabelDisposal},
		{"blank with shipment id", "", "FBA194PTBZ6H", LabelPartneredCarrier},
		{"blank without order id", "", "", LabelOther},
		{"whitespace with non shipment id", "   ", "111-2222222-3333333", LabelOther},
		{"partnered carrier", "FBA Amazon-Partnered Carrier Shipment Fee", "", LabelPartneredCarrier},
		{"inbound transportation", "FBA inbound transportation fee", "", LabelPartneredCarrier},
		{"long term before storage", "FBA Long-Term Storage Fee", "", LabelLongTermStorage},
		{"german long term", "Langzeitlagergebühr", "", LabelLongTermStorage},
		{"german storage", "Lagergebühr für Versand durch Amazon", "", LabelStorage},
		{"plain storage", "FBA storage fee", "", LabelStorage},
		{"french disposal", "Frais d'élimination", "", LabelDisposal},
		{"inbound placement", "FBA Inbound Placement Service Fee", "", LabelInboundPlacement},
		{"return fee", "FBA Customer Return Fee", "", LabelReturnFee},
		{"capacity reservation", "Capacity Reservation Fee", "", LabelCapacityReservation},
		{"italian capacity", "Tariffa di prenotazione della capacità", "", LabelCapacityReservation},
		{"unrecognised kept verbatim", "Inventory Coaching Fee", "", "Inventory Coaching Fee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInventoryFeeDescription(tt.description, tt.orderID))
		})
	}
}

func TestNormalizeInventoryFeeDescription_RuleVariants(t *testing.T) {
	for _, rule := range inventoryFeeRules {
		for _, variant := range rule.groups[0] {
			assert.Equal(t, rule.label, NormalizeInventoryFeeDescription(variant, ""), variant)
		}
	}
}

func TestNormalizeAdjustmentDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"blank", "", LabelOther},
		{"whitespace", "  ", LabelOther},
		{"other literal", "Other", LabelOther},
		{"failed disbursement", "Failed disbursement", LabelFailedDisbursement},
		{"buyer recharge", "Buyer Recharge", LabelBuyerRecharge},
		{"a-to-z", "A-to-z Guarantee Recovery", LabelAtoZRecovery},
		{"lost outbound", "FBA Inventory Reimbursement - Lost:Outbound", LabelLostOutbound},
		{"lost inbound", "FBA Inventory Reimbursement - Lost:Inbound", LabelLostInbound},
		{"lost warehouse", "FBA Inventory Reimbursement - Lost:Warehouse", LabelLostWarehouse},
		{"damaged warehouse", "FBA Inventory Reimbursement - Damaged:Warehouse", LabelDamagedWarehouse},
		{"german lost warehouse", "Erstattung für FBA-Lagerbestand - Verloren: Lager", LabelLostWarehouse},
		{"german damaged warehouse", "Erstattung für FBA-Lagerbestand - Beschädigt: Lager", LabelDamagedWarehouse},
		{"german damaged customer return", "Erstattung für FBA-Lagerbestand - Beschädigt: Kundenrücksendung", LabelCustomerReturn},
		{"french damaged", "Remboursement de stock - Endommagé : entrepôt", LabelDamagedWarehouse},
		{"customer return", "FBA Inventory Reimbursement - Customer Return", LabelCustomerReturn},
		{"customer service", "FBA Inventory Reimbursement - Customer Service Issue", LabelCustomerServiceIssue},
		{"general adjustment", "FBA Inventory Reimbursement - General Adjustment", LabelGeneralAdjustment},
		{"fee correction", "FBA Inventory Reimbursement - Fee Correction", LabelFeeCorrection},
		{"unrecognised kept verbatim", "Manual correction by support", "Manual correction by support"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAdjustmentDescription(tt.description))
		})
	}
}

func TestIsAdvertisingDescription(t *testing.T) {
	for _, d := range []string{"cost of advertising", "werbekosten", "frais de publicité", "costo della pubblicità", "gastos de publicidad"} {
		assert.True(t, IsAdvertisingDescription(d), d)
	}
	assert.False(t, IsAdvertisingDescription("subscription fee"))
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, LabelDisposal, NormalizeDescription(domain.CategoryFBAInventoryFee, "Disposal Fee", ""))
	assert.Equal(t, LabelBuyerRecharge, NormalizeDescription(domain.CategoryAdjustment, "Buyer Recharge", ""))
	assert.Equal(t, "Cost of Advertising", NormalizeDescription(domain.CategoryServiceFee, "Cost of Advertising", ""))
}

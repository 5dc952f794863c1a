package dataprocessing

import (
	"regexp"
	"strings"

	"sellerpulse/pkg/contracts/domain"
)

// Canonical inventory fee labels.
const (
	LabelPartneredCarrier    = "Partnered Carrier Fee"
	LabelLongTermStorage     = "Long-Term Storage Fee"
	LabelStorage             = "Storage Fee"
	LabelDisposal            = "Disposal Fee"
	LabelInboundPlacement    = "Inbound Placement Fee"
	LabelReturnFee           = "Return Fee"
	LabelCapacityReservation = "Capacity Reservation Fee"
	LabelOther               = "Other"
)

// Canonical adjustment labels.
const (
	LabelFailedDisbursement    = "Failed disbursement"
	LabelBuyerRecharge         = "Buyer Recharge"
	LabelAtoZRecovery          = "A-to-z Guarantee Recovery"
	LabelReimbursementPrefix   = "FBA Inventory Reimbursement - "
	LabelLostOutbound          = LabelReimbursementPrefix + "Lost:Outbound"
	LabelLostInbound           = LabelReimbursementPrefix + "Lost:Inbound"
	LabelLostWarehouse         = LabelReimbursementPrefix + "Lost:Warehouse"
	LabelDamagedWarehouse      = LabelReimbursementPrefix + "Damaged:Warehouse"
	LabelCustomerReturn        = LabelReimbursementPrefix + "Customer Return"
	LabelCustomerServiceIssue  = LabelReimbursementPrefix + "Customer Service Issue"
	LabelGeneralAdjustment     = LabelReimbursementPrefix + "General Adjustment"
	LabelFeeCorrection         = LabelReimbursementPrefix + "Fee Correction"
)

// descriptionRule matches when every group has at least one of its
// keywords in the lower-cased description.
type descriptionRule struct {
	label  string
	groups [][]string
}

func (r descriptionRule) matches(lower string) bool {
	for _, group := range r.groups {
		hit := false
		for _, kw := range group {
			if strings.Contains(lower, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func anyOf(keywords ...string) [][]string {
	return [][]string{keywords}
}

func allOf(groups ...[]string) [][]string {
	return groups
}

// inventoryFeeRules is evaluated top to bottom; narrower labels precede
// broader ones ("long-term storage" before "storage").
var inventoryFeeRules = []descriptionRule{
	{LabelPartneredCarrier, anyOf(
		"partnered carrier",
		"inbound transportation",
		"amazon partnered carrier",
		"transportgebühr für amazon-partnerversand",
		"partnerversand",
		"transporteur partenaire",
		"transporteur partenaire d'amazon",
		"corriere convenzionato",
		"trasportatore partner",
		"transportista asociado",
	)},
	{LabelLongTermStorage, anyOf(
		"long-term storage",
		"long term storage",
		"langzeitlagergebühr",
		"stockage de longue durée",
		"stoccaggio a lungo termine",
		"almacenamiento prolongado",
	)},
	{LabelStorage, anyOf(
		"storage fee",
		"lagergebühr",
		"frais de stockage",
		"costo di stoccaggio",
		"tarifa de almacenamiento",
	)},
	{LabelDisposal, anyOf(
		"disposal",
		"entsorgung",
		"élimination",
		"smaltimento",
		"eliminación",
	)},
	{LabelInboundPlacement, anyOf(
		"inbound placement",
		"placement service",
		"platzierung",
		"placement des stocks",
		"posizionamento",
		"ubicación",
	)},
	{LabelReturnFee, anyOf(
		"return fee",
		"return processing",
		"rücksendegebühr",
		"frais de retour",
		"commissione di reso",
		"tarifa de devolución",
	)},
	{LabelCapacityReservation, anyOf(
		"capacity reservation",
		"kapazitätsreservierung",
		"réservation de capacité",
		"prenotazione della capacità",
		"reserva de capacidad",
	)},
}

var fbaShipmentID = regexp.MustCompile(`^FBA[0-9A-Z]+$`)

// NormalizeInventoryFeeDescription maps an FBA Inventory Fee description to
// its canonical label. A blank description is a partnered carrier charge
// when the order ID carries an FBA shipment ID, otherwise "Other".
// Unrecognised text is returned unchanged.
func NormalizeInventoryFeeDescription(description, orderID string) string {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		if fbaShipmentID.MatchString(strings.TrimSpace(orderID)) {
			return LabelPartneredCarrier
		}
		return LabelOther
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range inventoryFeeRules {
		if rule.matches(lower) {
			return rule.label
		}
	}
	return description
}

var reimbursementKeywords = []string{
	"fba inventory reimbursement",
	"erstattung für fba-lagerbestand",
	"fba-lagerbestand",
	"remboursement de stock",
	"remboursement des stocks",
	"rimborso per l'inventario",
	"reembolso de inventario",
}

// warehouseKeywords avoid a bare "lager", which every German
// reimbursement carries in its "FBA-Lagerbestand" prefix.
var warehouseKeywords = []string{
	"warehouse",
	": lager",
	"lager:",
	"im lager",
	"lagerhaus",
	"entrepôt",
	"magazzino",
	"almacén",
}

// adjustmentRules is evaluated top to bottom. Reimbursement sub-types are
// keyed off nested keyword groups.
var adjustmentRules = []descriptionRule{
	{LabelFailedDisbursement, anyOf(
		"failed disbursement",
		"fehlgeschlagene auszahlung",
		"échec du versement",
		"pagamento non riuscito",
		"desembolso fallido",
	)},
	{LabelBuyerRecharge, anyOf(
		"buyer recharge",
		"erneute belastung des käufers",
		"nouvelle facturation",
		"riaddebito",
		"recargo al comprador",
	)},
	{LabelAtoZRecovery, anyOf(
		"a-to-z guarantee recovery",
		"a-to-z-garantie",
		"garantie de a à z",
		"garanzia dalla a alla z",
		"garantía de la a a la z",
	)},
	{LabelLostOutbound, allOf(
		[]string{"lost", "verloren", "perdu", "smarrit", "perdid"},
		[]string{"outbound", "warenausgang", "sortant", "uscita", "salida"},
	)},
	{LabelLostInbound, allOf(
		[]string{"lost", "verloren", "perdu", "smarrit", "perdid"},
		[]string{"inbound", "wareneingang", "entrant", "entrata", "entrada"},
	)},
	{LabelLostWarehouse, allOf(
		[]string{"lost", "verloren", "perdu", "smarrit", "perdid"},
		warehouseKeywords,
	)},
	{LabelDamagedWarehouse, allOf(
		[]string{"damaged", "beschädigt", "endommagé", "danneggiat", "dañad"},
		warehouseKeywords,
	)},
	{LabelCustomerReturn, allOf(
		reimbursementKeywords,
		[]string{"customer return", "kundenrücksendung", "retour client", "reso cliente", "devolución de cliente"},
	)},
	{LabelCustomerServiceIssue, allOf(
		reimbursementKeywords,
		[]string{"customer service issue", "kundenservice", "service client", "servizio clienti", "atención al cliente"},
	)},
	{LabelGeneralAdjustment, allOf(
		reimbursementKeywords,
		[]string{"general adjustment", "allgemeine anpassung", "ajustement général", "rettifica generale", "ajuste general"},
	)},
	{LabelFeeCorrection, allOf(
		reimbursementKeywords,
		[]string{"fee correction", "gebührenkorrektur", "correction des frais", "correzione commissioni", "corrección de tarifas"},
	)},
}

// NormalizeAdjustmentDescription maps an Adjustment description to its
// canonical label. Blank descriptions map to "Other" and unrecognised text
// is returned unchanged.
func NormalizeAdjustmentDescription(description string) string {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" || strings.EqualFold(trimmed, LabelOther) {
		return LabelOther
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range adjustmentRules {
		if rule.matches(lower) {
			return rule.label
		}
	}
	return description
}

// advertisingPhrases are the report wordings of the advertising charge.
var advertisingPhrases = []string{
	"cost of advertising",
	"werbekosten",
	"frais de publicité",
	"coût de la publicité",
	"costo della pubblicità",
	"gastos de publicidad",
}

// IsAdvertisingDescription reports whether a lower-cased Service Fee
// description is the advertising charge.
func IsAdvertisingDescription(lower string) bool {
	for _, phrase := range advertisingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// NormalizeDescription applies the normalizer matching the row's category.
func NormalizeDescription(category domain.CategoryType, description, orderID string) string {
	switch category {
	case domain.CategoryFBAInventoryFee:
		return NormalizeInventoryFeeDescription(description, orderID)
	case domain.CategoryAdjustment:
		return NormalizeAdjustmentDescription(description)
	default:
		return description
	}
}

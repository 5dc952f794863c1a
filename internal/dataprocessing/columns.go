package dataprocessing

import (
	"strings"
)

// Field is a canonical column of the transaction report.
type Field string

const (
	FieldDate                 Field = "date"
	FieldType                 Field = "type"
	FieldOrderID              Field = "order_id"
	FieldSKU                  Field = "sku"
	FieldDescription          Field = "description"
	FieldQuantity             Field = "quantity"
	FieldMarketplace          Field = "marketplace"
	FieldFulfillment          Field = "fulfillment"
	FieldOrderPostal          Field = "order_postal"
	FieldProductSales         Field = "product_sales"
	FieldProductSalesTax      Field = "product_sales_tax"
	FieldPromotionalRebates   Field = "promotional_rebates"
	FieldSellingFees          Field = "selling_fees"
	FieldFBAFees              Field = "fba_fees"
	FieldOtherTransactionFees Field = "other_transaction_fees"
	FieldOther                Field = "other"
	FieldTotal                Field = "total"
)

// Fields lists every canonical field in mapping order.
var Fields = []Field{
	FieldDate, FieldType, FieldOrderID, FieldSKU, FieldDescription, FieldQuantity,
	FieldMarketplace, FieldFulfillment, FieldOrderPostal, FieldProductSales,
	FieldProductSalesTax, FieldPromotionalRebates, FieldSellingFees, FieldFBAFees,
	FieldOtherTransactionFees, FieldOther, FieldTotal,
}

// FieldAliases ranks the lower-case header spellings of each field: English
// first, then German, French, Italian and Spanish.
var FieldAliases = map[Field][]string{
	FieldDate: {
		"date/time", "date",
		"datum/uhrzeit", "datum",
		"date/heure",
		"data/ora", "data",
		"fecha y hora", "fecha/hora", "fecha",
	},
	FieldType: {
		"type",
		"typ",
		"tipo",
	},
	FieldOrderID: {
		"order id", "order-id",
		"bestellnummer",
		"numéro de la commande", "numéro de commande",
		"numero ordine",
		"número de pedido", "id del pedido",
	},
	FieldSKU: {
		"sku",
	},
	FieldDescription: {
		"description",
		"beschreibung",
		"descrizione",
		"descripción", "descripcion",
	},
	FieldQuantity: {
		"quantity",
		"menge",
		"quantité",
		"quantità",
		"cantidad",
	},
	FieldMarketplace: {
		"marketplace",
		"marketplace-website",
		"place de marché",
		"mercato",
		"web de amazon",
	},
	FieldFulfillment: {
		"fulfillment", "fulfilment",
		"versand",
		"traitement",
		"gestione",
		"gestión logística",
	},
	FieldOrderPostal: {
		"order postal", "postal",
		"postleitzahl",
		"code postal de la commande", "code postal",
		"cap dell'ordine", "cap",
		"código postal",
	},
	FieldProductSales: {
		"product sales",
		"umsätze",
		"ventes de produits",
		"vendite",
		"ventas de productos",
	},
	FieldProductSalesTax: {
		"product sales tax",
		"produktumsatzsteuer",
		"taxes sur la vente des produits",
		"imposta sulle vendite dei prodotti",
		"impuesto de ventas de productos",
	},
	FieldPromotionalRebates: {
		"promotional rebates",
		"rabatte aus werbeaktionen",
		"rabais promotionnels",
		"sconti promozionali",
		"devoluciones promocionales",
	},
	FieldSellingFees: {
		"selling fees",
		"verkaufsgebühren",
		"frais de vente",
		"commissioni di vendita",
		"tarifas de venta",
	},
	FieldFBAFees: {
		"fba fees",
		"gebühren zu versand durch amazon",
		"frais expédié par amazon",
		"costi del servizio logistica di amazon",
		"tarifas de logística de amazon",
	},
	FieldOtherTransactionFees: {
		"other transaction fees",
		"andere transaktionsgebühren",
		"autres frais de transaction",
		"altri costi relativi alle transazioni",
		"tarifas de otras transacciones",
	},
	FieldOther: {
		"other",
		"andere",
		"autre",
		"altro",
		"otro",
	},
	FieldTotal: {
		"total",
		"gesamt",
		"totale",
	},
}

// ColumnMap maps each resolved field to its column index. Unresolved
// fields are absent.
type ColumnMap map[Field]int

// Has reports whether the field was resolved.
func (m ColumnMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// ResolveHeader returns the first header matching one of the field's
// aliases. A header equal to an alias beats one that merely contains it,
// so "other" resolves to the "other" column rather than "other transaction
// fees". Matching is case-insensitive with no fuzziness.
func ResolveHeader(headers []string, field Field) (string, bool) {
	idx := resolveIndex(headers, field)
	if idx < 0 {
		return "", false
	}
	return headers[idx], true
}

func resolveIndex(headers []string, field Field) int {
	aliases := FieldAliases[field]
	if len(aliases) == 0 {
		return -1
	}

	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, alias := range aliases {
		for i, h := range lowered {
			if h == alias {
				return i
			}
		}
	}
	for _, alias := range aliases {
		for i, h := range lowered {
			if h != "" && strings.Contains(h, alias) {
				return i
			}
		}
	}
	return -1
}

// BuildColumnMap resolves every canonical field against a header row.
// Fields resolve independently of each other.
func BuildColumnMap(headers []string) ColumnMap {
	columns := make(ColumnMap, len(Fields))
	for _, f := range Fields {
		if idx := resolveIndex(headers, f); idx >= 0 {
			columns[f] = idx
		}
	}
	return columns
}

// IsHeaderRow reports whether a row looks like the report's header: it
// resolves date, type and sku, or it resolves the marketplace column
// alongside at least two other distinct columns.
func IsHeaderRow(row []string) bool {
	columns := BuildColumnMap(row)
	if columns.Has(FieldDate) && columns.Has(FieldType) && columns.Has(FieldSKU) {
		distinct := map[int]bool{columns[FieldDate]: true, columns[FieldType]: true, columns[FieldSKU]: true}
		if len(distinct) == 3 {
			return true
		}
	}
	if !columns.Has(FieldMarketplace) {
		return false
	}
	distinct := make(map[int]bool)
	for _, idx := range columns {
		distinct[idx] = true
	}
	return len(distinct) >= 3
}

// LocateHeaderRow scans the first scanLimit rows for the header row.
func LocateHeaderRow(rows [][]string, scanLimit int) (int, error) {
	if scanLimit <= 0 || scanLimit > len(rows) {
		scanLimit = len(rows)
	}
	for i := 0; i < scanLimit; i++ {
		if IsHeaderRow(rows[i]) {
			return i, nil
		}
	}
	return -1, ErrHeaderNotFound
}

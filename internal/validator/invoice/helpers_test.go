package invoice_test

import (
	"strings"

	"github.com/shopspring/decimal"

	"invwatch/internal/domain"
	"invwatch/internal/validator/invoice"
)

func intPtr(n int) *int { return &n }

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// validDocument returns a parsed invoice that passes every built-in check.
// One standard item (5 x 10.50 = 52.50) and one service item.
func validDocument() *domain.InvoiceDocument {
	return &domain.InvoiceDocument{
		SourceFile: "SC10001.pdf",
		PeriodKey:  "Apr-24",
		Header: domain.InvoiceHeader{
			InvoiceNumber:  "SC10001-24-25",
			InvoiceDateRaw: "2-Apr-24",
			IRN:            strings.Repeat("ab", 32),
			AckNo:          "112410012345678",
			EWayBillNo:     "321009876543",
			PlaceOfSupply:  "Maharashtra",
			Consignee: domain.Party{
				Name:      "Shree Ganesh Engineering",
				Address:   "Gat No. 44, Chakan",
				GSTIN:     "27AAFCS1111A1Z9",
				StateName: "Maharashtra",
				StateCode: "27",
				Email:     "stores@ganesh.example.com",
			},
			Buyer: domain.Party{
				Name:      "Shree Ganesh Engineering",
				GSTIN:     "27AAFCS1111A1Z9",
				StateName: "Maharashtra",
				StateCode: "27",
			},
		},
		Items: []domain.LineItem{
			{
				ItemNo: 1, Description: "Widget Assembly", Quantity: intPtr(5), Unit: "NOS",
				Rate: money("10.50"), Amount: money("52.50"), HSNCode: "123456", Kind: domain.ItemKindStandard,
			},
			{
				ItemNo: 2, Description: "Local Repairs", Amount: money("1500.00"),
				HSNCode: "998877", Kind: domain.ItemKindService,
			},
		},
	}
}

func findByKey(key string) *invoice.BuiltinValidator {
	for _, v := range invoice.AllBuiltinValidators() {
		if v.RuleKey() == key {
			return v
		}
	}
	return nil
}

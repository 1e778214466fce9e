package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invwatch/internal/domain"
)

const sampleIRN = "9a1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c"

func headerLines() []string {
	return []string{
		"TAX INVOICE",
		"IRN : " + sampleIRN,
		"Ack No. : 112410012345678",
		"Ack Date : 12-Apr-24",
		"Invoice No. Dated",
		"SC12345-24-25 15-Apr-24",
		"e-Way Bill No. 321009876543",
		"Dispatched through : By Road",
		"Destination : Pune",
		"Motor Vehicle No. MH12AB1234",
		"Consignee (Ship to)",
		"Acme Industries Pvt Ltd Dispatch Doc No.",
		"Plot 12, MIDC Bhosari",
		"Pune 411026",
		"Plot 12, MIDC Bhosari",
		"Ph: 020-27123456 Email: stores@acme.example.com",
		"GSTIN/UIN : 27AABCA1234F1Z5",
		"State Name : Maharashtra, Code : 27",
		"Buyer (Bill to)",
		"Acme Holdings Ltd",
		"Tower B, Andheri East",
		"Mumbai 400069",
		"GSTIN/UIN : 27AABCH9876K1Z2",
		"State Name : Maharashtra, Code : 27",
		"Place of Supply : Maharashtra",
	}
}

func TestExtractHeader_FullPage(t *testing.T) {
	h, err := ExtractHeader(headerLines(), DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, "SC12345-24-25", h.InvoiceNumber)
	assert.Equal(t, "15-Apr-24", h.InvoiceDateRaw)
	assert.Equal(t, time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), h.InvoiceDate)
	assert.Equal(t, "Apr-24", h.PeriodKey())

	assert.Equal(t, sampleIRN, h.IRN)
	assert.Equal(t, "112410012345678", h.AckNo)
	assert.Equal(t, "12-Apr-24", h.AckDate)
	assert.Equal(t, "321009876543", h.EWayBillNo)
	assert.Equal(t, "By Road", h.DispatchedThrough)
	assert.Equal(t, "Pune", h.Destination)
	assert.Equal(t, "MH12AB1234", h.MotorVehicleNo)
	assert.Equal(t, "Maharashtra", h.PlaceOfSupply)

	c := h.Consignee
	assert.Equal(t, "Acme Industries Pvt Ltd", c.Name)
	assert.Equal(t, []string{"Plot 12, MIDC Bhosari", "Pune 411026"}, c.AddressLines)
	assert.Equal(t, "Plot 12, MIDC Bhosari, Pune 411026", c.Address)
	assert.Equal(t, "27AABCA1234F1Z5", c.GSTIN)
	assert.Equal(t, "Maharashtra", c.StateName)
	assert.Equal(t, "27", c.StateCode)
	assert.Equal(t, "020-27123456", c.Contact)
	assert.Equal(t, "stores@acme.example.com", c.Email)

	b := h.Buyer
	assert.Equal(t, "Acme Holdings Ltd", b.Name)
	assert.Equal(t, "Tower B, Andheri East, Mumbai 400069", b.Address)
	assert.Equal(t, "27AABCH9876K1Z2", b.GSTIN)
	assert.Empty(t, b.Contact)
	assert.Empty(t, b.Email)
}

func TestExtractHeader_PeriodKeyMatchesDate(t *testing.T) {
	for _, raw := range []string{"1-Jan-24", "15-Apr-24", "09-Sep-23", "29-Feb-24", "31-Dec-99", "5-may-25"} {
		t.Run(raw, func(t *testing.T) {
			h, err := ExtractHeader([]string{"Invoice SC00001-24-25 " + raw}, DefaultRules())
			require.NoError(t, err)

			want, err := time.Parse("2-Jan-06", raw)
			require.NoError(t, err)
			assert.Equal(t, want.Format("Jan-06"), h.PeriodKey())
			assert.Equal(t, raw, h.InvoiceDateRaw)
		})
	}
}

func TestExtractHeader_LastDateOnInvoiceLineWins(t *testing.T) {
	h, err := ExtractHeader([]string{"SC12345-24-25 1-Mar-24 Dated 3-Mar-24"}, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, "3-Mar-24", h.InvoiceDateRaw)
}

func TestExtractHeader_FallbackDates(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "dated label on next line",
			lines: []string{"Invoice No.", "SC12345-24-25", "Dated", "3-May-24"},
			want:  "3-May-24",
		},
		{
			name:  "dated label same line",
			lines: []string{"SC12345-24-25", "Dated : 4-May-24"},
			want:  "4-May-24",
		},
		{
			name:  "first date skips ack date",
			lines: []string{"SC12345-24-25", "Ack Date : 1-Apr-24", "Order ref 7-Apr-24"},
			want:  "7-Apr-24",
		},
		{
			name:  "bill of lading with four digit year",
			lines: []string{"SC12345-24-25", "Bill of Lading/LR-RR No.", "LR 5521", "8-Apr-2024"},
			want:  "8-Apr-2024",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ExtractHeader(tt.lines, DefaultRules())
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.InvoiceDateRaw)
			assert.Equal(t, "SC12345-24-25", h.InvoiceNumber)
		})
	}
}

func TestExtractHeader_InvalidDate(t *testing.T) {
	_, err := ExtractHeader([]string{"SC12345-24-25 31-Feb-24"}, DefaultRules())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDate))

	var fe *FieldExtractionError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindInvalidDate, fe.Kind)
	assert.Equal(t, "31-Feb-24", fe.Raw)
}

func TestExtractHeader_NoDate(t *testing.T) {
	_, err := ExtractHeader([]string{"SC12345-24-25", "Ack Date : 1-Apr-24"}, DefaultRules())

	var fe *FieldExtractionError
	require.True(t, errors.As(err, &fe))
	assert.Empty(t, fe.Raw)
}

func TestExtractHeader_MissingFieldsAreEmpty(t *testing.T) {
	h, err := ExtractHeader([]string{"Invoice dated 2-Jun-24"}, DefaultRules())
	require.NoError(t, err)
	assert.Empty(t, h.InvoiceNumber)
	assert.Empty(t, h.Consignee.Name)
	assert.Empty(t, h.Buyer.Address)
	assert.Empty(t, h.PlaceOfSupply)
	assert.Equal(t, "Jun-24", h.PeriodKey())
}

func TestExtractParty_DedupesAddress(t *testing.T) {
	lines := []string{"Consignee (Ship to)", "Name", "A", "B", "A", "C", "GSTIN/UIN : 27AABCA1234F1Z5"}
	p := extractParty(lines, consigneeAnchor, DefaultRules())
	assert.Equal(t, []string{"A", "B", "C"}, p.AddressLines)
	assert.Equal(t, "A, B, C", p.Address)
}

func TestExtractParty_StopsAtOtherAnchorAndLookahead(t *testing.T) {
	lines := []string{"Consignee (Ship to)", "Name", "Line 1", "Buyer (Bill to)", "Other"}
	p := extractParty(lines, consigneeAnchor, DefaultRules())
	assert.Equal(t, []string{"Line 1"}, p.AddressLines)

	long := []string{"Consignee (Ship to)", "Name"}
	for i := 0; i < 15; i++ {
		long = append(long, "Street "+string(rune('A'+i)))
	}
	p = extractParty(long, consigneeAnchor, DefaultRules())
	assert.Len(t, p.AddressLines, 10)
}

func TestExtractParty_GSTINLabelOnOwnLine(t *testing.T) {
	lines := []string{
		"Consignee (Ship to)",
		"Nova Fabricators",
		"12 Main Road",
		"GSTIN/UIN",
		"29ABCDE1234F1Z5",
		"State Name : Karnataka, Code : 29",
	}
	p := extractParty(lines, consigneeAnchor, DefaultRules())
	assert.Equal(t, "12 Main Road", p.Address)
	assert.Equal(t, "29ABCDE1234F1Z5", p.GSTIN)
	assert.Equal(t, "Karnataka", p.StateName)
}

func TestExtractParty_GSTINLabelWithoutColon(t *testing.T) {
	lines := []string{"Buyer (Bill to)", "Nova Fabricators", "12 Main Road", "GSTIN 29ABCDE1234F1Z5"}
	p := extractParty(lines, buyerAnchor, DefaultRules())
	assert.Equal(t, []string{"12 Main Road"}, p.AddressLines)
	assert.Equal(t, "29ABCDE1234F1Z5", p.GSTIN)
}

func TestPullContact_Priority(t *testing.T) {
	phone, email, out := pullContact([]string{"Road 5, 9876543210", "Mob: 98200 11223", "mail: a.b@x.io"})
	assert.Equal(t, "98200 11223", phone)
	assert.Equal(t, "a.b@x.io", email)
	assert.Equal(t, []string{"Road 5, 9876543210", "", "mail: "}, out)

	phone, _, _ = pullContact([]string{"Near Station 022-2345678"})
	assert.Equal(t, "022-2345678", phone)
}

func TestCleanHelpers(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, "Maharashtra", r.cleanField(" :  Maharashtra  "))
	assert.Equal(t, "Pune", r.cleanField("Destination Pune"))
	assert.Equal(t, "Acme Traders", r.cleanName("Acme   Traders Delivery Note Date 5-Apr-24"))
	assert.Equal(t, "Plot 1, Pune", cleanAddress("Plot 1, , ,Pune,  "))
	assert.Equal(t, []string{"A", "B", "C"}, dedupeLines([]string{"A", "B", "A", "C"}))
}

func TestParseInvoiceDate(t *testing.T) {
	d, err := ParseInvoiceDate("5-APR-24")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseInvoiceDate("05-Apr-2024")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = ParseInvoiceDate("32-Jan-24")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

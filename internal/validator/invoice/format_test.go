package invoice_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invwatch/internal/domain"
	"invwatch/internal/validator/invoice"
)

func TestFormatValidators_Metadata(t *testing.T) {
	assert.Len(t, invoice.FormatValidators(), 7)
	for _, v := range invoice.FormatValidators() {
		assert.NotEmpty(t, v.RuleKey())
		assert.Equal(t, domain.ValidationRuleRegex, v.RuleType())
		assert.Equal(t, domain.ValidationSeverityWarning, v.Severity())
	}
}

func TestFormat_ConsigneeGSTIN(t *testing.T) {
	v := findByKey("fmt.consignee.gstin")
	require.NotNil(t, v)
	ctx := context.Background()

	t.Run("fail_invalid", func(t *testing.T) {
		doc := validDocument()
		doc.Header.Consignee.GSTIN = "27AAFCS1111A1X9"
		results := v.Validate(ctx, doc)
		require.Len(t, results, 1)
		assert.False(t, results[0].Passed)
	})

	t.Run("skip_empty", func(t *testing.T) {
		doc := validDocument()
		doc.Header.Consignee.GSTIN = ""
		results := v.Validate(ctx, doc)
		require.Len(t, results, 1)
		assert.True(t, results[0].Passed)
	})
}

func TestFormat_StateCode(t *testing.T) {
	v := findByKey("fmt.buyer.state_code")
	require.NotNil(t, v)

	for code, want := range map[string]bool{"27": true, "01": true, "38": true, "00": false, "39": false, "7": false, "AB": false} {
		doc := validDocument()
		doc.Header.Buyer.StateCode = code
		results := v.Validate(context.Background(), doc)
		require.Len(t, results, 1)
		assert.Equal(t, want, results[0].Passed, code)
	}
}

func TestFormat_ItemHSN(t *testing.T) {
	v := findByKey("fmt.items.hsn")
	doc := validDocument()
	doc.Items[1].HSNCode = "99AB"

	results := v.Validate(context.Background(), doc)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Equal(t, "items[1].hsn_code", results[1].FieldPath)
}

func TestIRNFormat(t *testing.T) {
	ctx := context.Background()
	v := findByKey("fmt.header.irn")
	require.NotNil(t, v)

	doc := validDocument()
	doc.Header.IRN = strings.Repeat("AB", 32)
	assert.True(t, v.Validate(ctx, doc)[0].Passed)

	doc.Header.IRN = strings.Repeat("ab", 31)
	assert.False(t, v.Validate(ctx, doc)[0].Passed)

	ack := findByKey("fmt.header.ack_no")
	doc.Header.AckNo = "1124-100"
	assert.False(t, ack.Validate(ctx, doc)[0].Passed)
}

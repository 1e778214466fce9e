package parser

import (
	"regexp"
	"strings"
	"time"

	"invwatch/internal/domain"
)

var (
	dateToken     = regexp.MustCompile(`\b\d{1,2}-[A-Za-z]{3}-\d{2}\b`)
	wideDateToken = regexp.MustCompile(`\b\d{1,2}-[A-Za-z]{3}-(?:\d{4}|\d{2})\b`)

	datedLabel       = regexp.MustCompile(`(?i)\bdated\b`)
	ackDateLabel     = regexp.MustCompile(`(?i)\back\.?\s*date\b`)
	billOfLading     = regexp.MustCompile(`(?i)\bbill\s+of\s+lading\b`)
	placeOfSupply    = regexp.MustCompile(`(?i)place\s+of\s+supply`)
	destinationLabel = regexp.MustCompile(`(?i)\bdestination\b`)
	dispatchedLabel  = regexp.MustCompile(`(?i)\bdispatched\s+through\b`)
	vehicleLabel     = regexp.MustCompile(`(?i)\bmotor\s+vehicle\s+no\.?`)

	irnPattern     = regexp.MustCompile(`IRN\s*:\s*(\S+)`)
	ackNoPattern   = regexp.MustCompile(`Ack\s*No\.?\s*:?\s*(\d+)`)
	ackDatePattern = regexp.MustCompile(`Ack\s*Date\s*:\s*(.+)`)
	ewayPattern    = regexp.MustCompile(`(?i)e-?Way\s+Bill\s+No\.?\s*:?\s*(\d+)`)

	consigneeAnchor = regexp.MustCompile(`(?i)consignee\s*\(\s*ship\s+to\s*\)`)
	buyerAnchor     = regexp.MustCompile(`(?i)buyer\s*\(\s*bill\s+to\s*\)`)
	gstinPattern    = regexp.MustCompile(`(?i)GSTIN/UIN\s*:\s*(\S+)`)
	gstinLabel      = regexp.MustCompile(`(?i)\bGSTIN\b`)
	gstinLabelTail  = regexp.MustCompile(`(?i)^(?:/UIN)?\s*(?:no\.?)?\s*:?`)
	gstinValue      = regexp.MustCompile(`^\s*:?\s*([0-9A-Za-z]{15})\b`)
	stateLabel      = regexp.MustCompile(`(?i)state\s+name`)
	statePattern    = regexp.MustCompile(`(?i)State\s+Name\s*:\s*(.+?),\s*Code\s*:\s*(\d+)`)

	emailPattern = regexp.MustCompile(`(?i)(?:e-?mail(?:[ \t]*id)?[ \t]*:?[ \t]*)?([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})`)
	phoneRules   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:ph(?:one)?|mob(?:ile)?|tel|contact)(?:[ \t]*no)?\.?[ \t]*[:\-]?[ \t]*(\+?\d[\d \-]{7,}\d)`),
		regexp.MustCompile(`\b(\d{10,12})\b`),
		regexp.MustCompile(`\b(\d{3,5}-\d{6,8})\b`),
	}
)

var dateLayouts = []string{"2-Jan-06", "2-Jan-2006"}

// ParseInvoiceDate parses a D-Mon-YY (or D-Mon-YYYY) token into a calendar date.
func ParseInvoiceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, &FieldExtractionError{Kind: KindInvalidDate, Raw: raw}
}

// ExtractHeader recovers invoice-level fields from the header page lines.
// Missing fields stay empty; only an unusable invoice date is an error.
func ExtractHeader(lines []string, rules *Rules) (domain.InvoiceHeader, error) {
	var h domain.InvoiceHeader

	raw := ""
	for _, line := range lines {
		num := rules.invoiceNumber.FindString(line)
		if num == "" {
			continue
		}
		h.InvoiceNumber = num
		// The number's own digits can look like the start of a date, so the
		// last date on the line wins.
		if dates := dateToken.FindAllString(line, -1); len(dates) > 0 {
			raw = dates[len(dates)-1]
		}
		break
	}
	if raw == "" {
		raw = fallbackDate(lines, rules)
	}

	date, err := ParseInvoiceDate(raw)
	if err != nil {
		return h, err
	}
	h.InvoiceDate = date
	h.InvoiceDateRaw = raw

	h.PlaceOfSupply = rules.cleanField(afterColon(lines, placeOfSupply))
	h.Destination = labelValue(lines, destinationLabel, rules)
	h.DispatchedThrough = labelValue(lines, dispatchedLabel, rules)
	h.MotorVehicleNo = labelValue(lines, vehicleLabel, rules)

	h.IRN = firstCapture(lines, irnPattern)
	h.AckNo = firstCapture(lines, ackNoPattern)
	h.AckDate = collapseSpaces(firstCapture(lines, ackDatePattern))
	h.EWayBillNo = firstCapture(lines, ewayPattern)

	h.Consignee = extractParty(lines, consigneeAnchor, rules)
	h.Buyer = extractParty(lines, buyerAnchor, rules)
	return h, nil
}

func fallbackDate(lines []string, rules *Rules) string {
	for i, line := range lines {
		loc := datedLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if d := dateToken.FindString(line[loc[1]:]); d != "" {
			return d
		}
		if i+1 < len(lines) {
			if d := dateToken.FindString(lines[i+1]); d != "" {
				return d
			}
		}
	}

	for _, line := range lines {
		if ackDateLabel.MatchString(line) {
			continue
		}
		if d := dateToken.FindString(line); d != "" {
			return d
		}
	}

	for i, line := range lines {
		if !billOfLading.MatchString(line) {
			continue
		}
		end := min(i+rules.ladingLookahead, len(lines)-1)
		for j := i; j <= end; j++ {
			if ackDateLabel.MatchString(lines[j]) {
				continue
			}
			if d := wideDateToken.FindString(lines[j]); d != "" {
				return d
			}
		}
	}
	return ""
}

// afterColon returns the text after the first colon on the first line
// carrying label. Without a colon the text after the label is used.
func afterColon(lines []string, label *regexp.Regexp) string {
	for _, line := range lines {
		loc := label.FindStringIndex(line)
		if loc == nil {
			continue
		}
		rest := line[loc[1]:]
		if i := strings.Index(rest, ":"); i >= 0 {
			rest = rest[i+1:]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}

// labelValue reads the value following label on the same line, falling back
// to the next line when that one is not itself a label row.
func labelValue(lines []string, label *regexp.Regexp, rules *Rules) string {
	for i, line := range lines {
		loc := label.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if v := rules.cleanField(line[loc[1]:]); v != "" {
			return v
		}
		if i+1 < len(lines) && !rules.containsDenied(lines[i+1]) {
			return rules.cleanField(lines[i+1])
		}
		return ""
	}
	return ""
}

func firstCapture(lines []string, re *regexp.Regexp) string {
	for _, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func isPartyAnchor(line string) bool {
	return consigneeAnchor.MatchString(line) || buyerAnchor.MatchString(line)
}

func extractParty(lines []string, anchor *regexp.Regexp, rules *Rules) domain.Party {
	var p domain.Party

	start := -1
	for i, line := range lines {
		if anchor.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 || start+1 >= len(lines) {
		return p
	}
	p.Name = rules.cleanName(lines[start+1])

	end := min(start+1+rules.addressLookahead, len(lines)-1)
	var window []string
	addressOpen := true
	var address []string
	for i := start + 2; i <= end; i++ {
		line := lines[i]
		if isPartyAnchor(line) {
			break
		}
		window = append(window, line)
		if gstinLabel.MatchString(line) || stateLabel.MatchString(line) {
			addressOpen = false
		}
		if addressOpen {
			address = append(address, collapseSpaces(line))
		}
	}
	for i, line := range window {
		if p.GSTIN == "" {
			p.GSTIN = partyGSTIN(window, i)
		}
		if p.StateName == "" {
			if m := statePattern.FindStringSubmatch(line); m != nil {
				p.StateName = rules.cleanField(m[1])
				p.StateCode = m[2]
			}
		}
	}

	address = dedupeLines(address)
	p.Contact, p.Email, address = pullContact(address)

	cleaned := make([]string, 0, len(address))
	for _, line := range address {
		if line = cleanAddress(rules.cleanField(line)); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	p.AddressLines = dedupeLines(cleaned)
	p.Address = cleanAddress(strings.Join(p.AddressLines, ", "))
	return p
}

// partyGSTIN reads the GSTIN on window[i], or on the next line when the label
// stands alone.
func partyGSTIN(window []string, i int) string {
	if m := gstinPattern.FindStringSubmatch(window[i]); m != nil {
		return strings.TrimSpace(m[1])
	}
	loc := gstinLabel.FindStringIndex(window[i])
	if loc == nil {
		return ""
	}
	rest := strings.TrimSpace(gstinLabelTail.ReplaceAllString(window[i][loc[1]:], ""))
	if rest != "" {
		if m := gstinValue.FindStringSubmatch(rest); m != nil {
			return strings.ToUpper(m[1])
		}
		return ""
	}
	if i+1 < len(window) {
		if m := gstinValue.FindStringSubmatch(window[i+1]); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// pullContact finds the phone number and email in the address text and
// removes them from the lines they were found on.
func pullContact(lines []string) (phone, email string, out []string) {
	out = append([]string(nil), lines...)
	joined := strings.Join(out, "\n")

	if m := emailPattern.FindStringSubmatch(joined); m != nil {
		email = m[1]
		out = removeFromLines(out, m[0])
		joined = strings.Join(out, "\n")
	}
	for _, re := range phoneRules {
		if m := re.FindStringSubmatch(joined); m != nil {
			phone = strings.TrimSpace(m[1])
			out = removeFromLines(out, m[0])
			break
		}
	}
	return phone, email, out
}

func removeFromLines(lines []string, fragment string) []string {
	for i, l := range lines {
		lines[i] = strings.Replace(l, fragment, "", 1)
	}
	return lines
}

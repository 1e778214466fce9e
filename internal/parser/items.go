package parser

import (
	"sort"
	"strconv"
	"strings"

	"invwatch/internal/domain"
)

type tableState int

const (
	seekingTable tableState = iota
	inTable
	tableDone
)

// ItemsResult is the output of ExtractItems.
type ItemsResult struct {
	Items     []domain.LineItem
	Anomalies []SegmentationAnomaly
	// Dropped lists table lines that belonged to no item.
	Dropped []DroppedLine
}

// DroppedLine is a table line left out of every item's description.
type DroppedLine struct {
	Page int
	Line string
}

type pendingItem struct {
	no   int
	page int
	desc []string
	sig  lineSignals
}

// itemCollector holds the per-document segmentation state. The processed set
// survives page boundaries; the table state does not.
type itemCollector struct {
	rules     *Rules
	processed map[int]struct{}
	items     []domain.LineItem
	anomalies []SegmentationAnomaly
	dropped   []DroppedLine
	lastNo    int
	haveLast  bool
	cur       *pendingItem
}

// ExtractItems segments the item table rows of every page into line items,
// sorted by item number. Rows repeated across a page break are emitted once.
func ExtractItems(pages [][]string, rules *Rules) ItemsResult {
	c := &itemCollector{rules: rules, processed: make(map[int]struct{})}
	for i, lines := range pages {
		c.scanPage(i+1, lines)
	}
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].ItemNo < c.items[j].ItemNo
	})
	return ItemsResult{Items: c.items, Anomalies: c.anomalies, Dropped: c.dropped}
}

func (c *itemCollector) scanPage(page int, lines []string) {
	state := seekingTable
	for _, raw := range lines {
		line := collapseSpaces(raw)
		switch state {
		case seekingTable:
			if c.rules.isTableHeader(line) {
				state = inTable
			}
		case inTable:
			if c.step(page, line) {
				state = tableDone
			}
		}
		if state == tableDone {
			break
		}
	}
	c.finalize()
}

// step consumes one table line and reports whether the table has ended.
func (c *itemCollector) step(page int, line string) bool {
	if line == "" || c.rules.isTableHeader(line) {
		return false
	}
	if c.rules.isTableEnd(line) {
		c.finalize()
		return true
	}
	if taxLine.MatchString(line) || isBareTotal(line) {
		// Anything after a tax or subtotal line belongs to no item until the
		// next numbered row.
		c.finalize()
		return false
	}

	if m := itemLine.FindStringSubmatch(line); m != nil {
		no, err := strconv.Atoi(m[1])
		sig := classify(strings.Fields(m[2]), c.rules)
		if err == nil && no > 0 {
			c.finalize()
			if _, dup := c.processed[no]; dup {
				return false
			}
			c.cur = &pendingItem{no: no, page: page, desc: []string{m[2]}, sig: sig}
			return false
		}
	}

	c.continueWith(page, line)
	return false
}

func (c *itemCollector) continueWith(page int, line string) {
	if c.cur == nil {
		c.dropped = append(c.dropped, DroppedLine{Page: page, Line: line})
		return
	}
	sig := classify(strings.Fields(line), c.rules)
	if c.cur.sig.kind == domain.ItemKindUnclassified && sig.kind != domain.ItemKindUnclassified {
		// Numeric columns wrapped onto the line below the description.
		c.cur.sig = mergeSignals(c.cur.sig, sig)
		c.cur.desc = append(c.cur.desc, line)
		return
	}
	if sig.strong() {
		// Table numbers without an item number cannot be attributed.
		c.finalize()
		c.dropped = append(c.dropped, DroppedLine{Page: page, Line: line})
		return
	}
	c.cur.desc = append(c.cur.desc, line)
}

func mergeSignals(prev, next lineSignals) lineSignals {
	if next.hsn == "" {
		next.hsn = prev.hsn
	}
	for tok := range prev.captured {
		next.captured[tok] = struct{}{}
	}
	return next
}

func (c *itemCollector) finalize() {
	p := c.cur
	if p == nil {
		return
	}
	c.cur = nil

	item := domain.LineItem{
		ItemNo:      p.no,
		Description: cleanDescription(strings.Join(p.desc, " "), p.sig, c.rules),
		Quantity:    p.sig.qty,
		Unit:        p.sig.unit,
		Rate:        p.sig.rate,
		Amount:      p.sig.amount,
		HSNCode:     p.sig.hsn,
		Kind:        p.sig.kind,
	}
	if c.haveLast && p.no <= c.lastNo {
		c.anomalies = append(c.anomalies, SegmentationAnomaly{ItemNo: p.no, PrevItemNo: c.lastNo, Page: p.page})
	}
	c.lastNo = p.no
	c.haveLast = true
	c.processed[p.no] = struct{}{}
	c.items = append(c.items, item)
}

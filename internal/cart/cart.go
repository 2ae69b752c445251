package cart

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog record exactly as the search collaborator returns it.
// Money fields arrive string-encoded and are parsed once, at add time.
type Product struct {
	ProductID    int64  `json:"ProductID"`
	HSNCode      string `json:"HSNCode,omitempty"`
	Manufacturer string `json:"MFR,omitempty"`
	ProductName  string `json:"ProductName"`
	PackOf       int32  `json:"PackOf,omitempty"`
	MRP          string `json:"MRP"`
	UnitPrice    string `json:"unitPrice"`
	Size         string `json:"Size,omitempty"`
	Drug         string `json:"Drug"`
	Batch        string `json:"Batch"`
	Exp          string `json:"Exp"`
	QtyInStock   int32  `json:"QtyInStock,omitempty"`
}

// Line is one editable row of the bill. Key is assigned at creation time and
// never recomputed, even when batch is edited afterwards, so in-flight edits
// cannot merge two rows or move one out from under the operator.
type Line struct {
	Key          string          `json:"key"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Drug         string          `json:"drug"`
	Manufacturer string          `json:"mfr,omitempty"`
	MRP          decimal.Decimal `json:"mrp"`
	Quantity     int             `json:"quantity"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Batch        string          `json:"batch"`
	ExpiryDate   string          `json:"expiry_date"`
}

// LineTotal is derived on every read, never stored.
func (l Line) LineTotal() decimal.Decimal {
	return l.SalePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Cart owns the ordered line collection for one billing session.
type Cart struct {
	lines []*Line
	index map[string]*Line
}

func NewCart() *Cart {
	return &Cart{
		lines: []*Line{},
		index: make(map[string]*Line),
	}
}

// LineKeyFor derives the stable identity for a product: normalized product
// name plus batch, so distinct batches bill as distinct lines. Products
// without a batch fall back to their catalog identifier.
func LineKeyFor(p Product) string {
	batch := strings.TrimSpace(p.Batch)
	if batch == "" {
		return "id:" + strconv.FormatInt(p.ProductID, 10)
	}
	return normalizeName(p.ProductName) + "|" + batch
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// AddProduct appends a new line for p, or bumps the quantity of the existing
// line with the same key. A repeat scan never touches sale price, batch or
// expiry on an existing line, those reflect operator edits.
func (c *Cart) AddProduct(p Product) Line {
	key := LineKeyFor(p)

	if line, ok := c.index[key]; ok {
		line.Quantity++
		return *line
	}

	line := &Line{
		Key:          key,
		ProductID:    p.ProductID,
		ProductName:  p.ProductName,
		Drug:         p.Drug,
		Manufacturer: p.Manufacturer,
		MRP:          parseAmount(p.MRP),
		Quantity:     1,
		SalePrice:    parseAmount(p.UnitPrice),
		Batch:        p.Batch,
		ExpiryDate:   NormalizeExpiry(p.Exp),
	}
	c.lines = append(c.lines, line)
	c.index[key] = line
	return *line
}

// UpdateQuantity coerces anything that is not a positive integer to 1. There
// is no upper bound here, stock checks belong to the billing backend.
func (c *Cart) UpdateQuantity(key string, quantity int) {
	line, ok := c.index[key]
	if !ok {
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	line.Quantity = quantity
}

// UpdateSalePrice parses value as a decimal, coercing invalid or negative
// input to 0. Discount-to-zero and markup are both legal at this layer.
func (c *Cart) UpdateSalePrice(key string, value string) {
	line, ok := c.index[key]
	if !ok {
		return
	}
	line.SalePrice = parseAmount(value)
}

func (c *Cart) UpdateBatch(key string, batch string) {
	if line, ok := c.index[key]; ok {
		line.Batch = batch
	}
}

func (c *Cart) UpdateExpiry(key string, expiry string) {
	if line, ok := c.index[key]; ok {
		line.ExpiryDate = NormalizeExpiry(expiry)
	}
}

// RemoveLine deletes the addressed line. A missing key is a no-op so that a
// rapid double-click on the remove button never surfaces an error.
func (c *Cart) RemoveLine(key string) {
	if _, ok := c.index[key]; !ok {
		return
	}
	delete(c.index, key)
	for i, line := range c.lines {
		if line.Key == key {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
}

// Lines returns the current rows in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, line := range c.lines {
		out[i] = *line
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Totals folds over the live line collection on every call. Totals are never
// cached, so they cannot drift from the lines they summarize.
func (c *Cart) Totals() Totals {
	t := Totals{TotalAmount: decimal.Zero}
	for _, line := range c.lines {
		t.TotalItems += line.Quantity
		t.TotalAmount = t.TotalAmount.Add(line.LineTotal())
	}
	return t
}

func (c *Cart) Clear() {
	c.lines = []*Line{}
	c.index = make(map[string]*Line)
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

// NormalizeExpiry reduces whatever timestamp form the catalog returned to a
// plain YYYY-MM-DD. Unparseable input passes through verbatim, the operator
// can still correct it in the expiry column.
func NormalizeExpiry(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

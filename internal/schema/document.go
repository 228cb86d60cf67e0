package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// TotalEpsilon is the drift threshold above which a line item's stored total
// is considered out of sync with quantity × unitPrice.
const TotalEpsilon = 0.01

// Amount is a money value that tolerates the model returning numbers as
// strings. Numeric strings are coerced; null or garbage decodes to 0.
// It marshals as a plain JSON number.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// LineItem is a single service or part line on a document.
type LineItem struct {
	Description string `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	Total       Amount `json:"total"`
}

// DocumentKind distinguishes invoices from quotations. The kind is decided
// once when a document is created and carried explicitly from then on; it is
// never re-inferred from rendered text.
type DocumentKind int

const (
	KindInvoice DocumentKind = iota
	KindQuotation
)

func (k DocumentKind) String() string {
	if k == KindQuotation {
		return "quotation"
	}
	return "invoice"
}

// NumberField returns the wire key carrying the document number.
func (k DocumentKind) NumberField() string {
	if k == KindQuotation {
		return "quotationNumber"
	}
	return "invoiceNumber"
}

// Title returns the human-facing document title.
func (k DocumentKind) Title() string {
	if k == KindQuotation {
		return "Quotation"
	}
	return "Invoice"
}

// Document is an invoice or quotation. On the wire the kind is encoded
// implicitly: invoices carry "invoiceNumber", quotations "quotationNumber",
// and the two keys are mutually exclusive.
type Document struct {
	Kind          DocumentKind
	Number        string
	VehicleNumber string
	CustomerName  string
	CarModel      string
	Items         []LineItem
}

type documentWire struct {
	InvoiceNumber   string     `json:"invoiceNumber,omitempty"`
	QuotationNumber string     `json:"quotationNumber,omitempty"`
	VehicleNumber   string     `json:"vehicleNumber"`
	CustomerName    string     `json:"customerName"`
	CarModel        string     `json:"carModel"`
	Items           []LineItem `json:"items"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	w := documentWire{
		VehicleNumber: d.VehicleNumber,
		CustomerName:  d.CustomerName,
		CarModel:      d.CarModel,
		Items:         d.Items,
	}
	if w.Items == nil {
		w.Items = []LineItem{}
	}
	if d.Kind == KindQuotation {
		w.QuotationNumber = d.Number
	} else {
		w.InvoiceNumber = d.Number
	}
	return json.Marshal(w)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.VehicleNumber = w.VehicleNumber
	d.CustomerName = w.CustomerName
	d.CarModel = w.CarModel
	d.Items = w.Items
	if w.QuotationNumber != "" {
		d.Kind = KindQuotation
		d.Number = w.QuotationNumber
	} else {
		d.Kind = KindInvoice
		d.Number = w.InvoiceNumber
	}
	return nil
}

// GrandTotal sums the item totals. No tax is added; the sum of line totals
// is the grand total for both invoices and quotations.
func (d Document) GrandTotal() float64 {
	var sum float64
	for _, it := range d.Items {
		sum += float64(it.Total)
	}
	return sum
}

// MissingFields lists required header fields that are absent or blank,
// in presentation order.
func (d Document) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.CustomerName) == "" {
		missing = append(missing, "Customer Name")
	}
	if strings.TrimSpace(d.VehicleNumber) == "" {
		missing = append(missing, "Vehicle Number")
	}
	if strings.TrimSpace(d.CarModel) == "" {
		missing = append(missing, "Car Model")
	}
	return missing
}

// SyncItemTotals recomputes each item's total from quantity × unitPrice when
// both are positive and the stored total drifts by more than epsilon. Items
// without both values (lump sums) keep their AI-supplied totals untouched.
func SyncItemTotals(items []LineItem, epsilon float64) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	for i, it := range out {
		q, p := float64(it.Quantity), float64(it.UnitPrice)
		if q > 0 && p > 0 {
			if want := q * p; math.Abs(float64(it.Total)-want) > epsilon {
				out[i].Total = Amount(want)
			}
		}
	}
	return out
}

// Package render turns documents into chat text and printable HTML views.
// Rendering is pure: it never mutates a document and never calls the model.
package render

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// ChatMessage renders the Markdown summary posted to a chat: title line,
// document-number line, customer/vehicle/model lines, one line per item,
// then the grand total (sum of item totals, two decimal places).
func ChatMessage(doc schema.Document, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*:\n\n", title)
	fmt.Fprintf(&b, "*%s Number:* %s\n\n", doc.Kind.Title(), doc.Number)
	fmt.Fprintf(&b, "*Customer:* %s\n", doc.CustomerName)
	fmt.Fprintf(&b, "*Vehicle:* %s\n", doc.VehicleNumber)
	fmt.Fprintf(&b, "*Model:* %s\n\n", doc.CarModel)
	b.WriteString("*Items*:\n")
	for _, it := range doc.Items {
		fmt.Fprintf(&b, "- %s: %s\n", it.Description, formatAmount(float64(it.Total)))
	}
	fmt.Fprintf(&b, "\n*Grand Total:* %.2f", doc.GrandTotal())
	return b.String()
}

// HandoffURL encodes the full document as base64 JSON into a print-view
// link. Returns "" when no public base URL is configured.
func HandoffURL(publicBase string, doc schema.Document) string {
	if publicBase == "" {
		return ""
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	path := "/view-invoice"
	if doc.Kind == schema.KindQuotation {
		path = "/view-quotation"
	}
	encoded := url.QueryEscape(base64.StdEncoding.EncodeToString(payload))
	return strings.TrimRight(publicBase, "/") + path + "?data=" + encoded
}

// formatAmount prints whole amounts without a decimal tail ("650", not
// "650.00") to match the terse chat style; fractions keep two places.
func formatAmount(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

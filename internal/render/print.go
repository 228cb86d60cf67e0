package render

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

// PrintItem is a pre-formatted table row for the print views.
type PrintItem struct {
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

// PrintData feeds the invoice and quotation print templates.
type PrintData struct {
	Title      string
	Number     string
	Customer   string
	Vehicle    string
	CarModel   string
	Items      []PrintItem
	GrandTotal string
}

// ErrorData feeds the error-card page shown for malformed hand-off payloads.
type ErrorData struct {
	Title   string
	Message string
}

// Templates parses the embedded HTML templates (print views, error card,
// and the web form page).
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// BuildPrintData formats a document for the print templates. Quantity and
// unit price cells stay blank for lump-sum items.
func BuildPrintData(doc schema.Document) PrintData {
	items := make([]PrintItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		row := PrintItem{
			Description: it.Description,
			Total:       fmt.Sprintf("%.2f", float64(it.Total)),
		}
		if it.Quantity > 0 {
			row.Quantity = formatAmount(float64(it.Quantity))
		}
		if it.UnitPrice > 0 {
			row.UnitPrice = fmt.Sprintf("%.2f", float64(it.UnitPrice))
		}
		items = append(items, row)
	}
	return PrintData{
		Title:      doc.Kind.Title(),
		Number:     doc.Number,
		Customer:   doc.CustomerName,
		Vehicle:    doc.VehicleNumber,
		CarModel:   doc.CarModel,
		Items:      items,
		GrandTotal: fmt.Sprintf("%.2f", doc.GrandTotal()),
	}
}

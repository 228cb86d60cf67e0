package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flywheels-garage/invoicebot/internal/render"
	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// viewDocument decodes the base64-JSON hand-off payload and renders the
// print view. Malformed or missing data yields a visible error card, never
// a crash.
func (s *Server) viewDocument(c *gin.Context) {
	isQuotation := strings.HasPrefix(c.Request.URL.Path, "/view-quotation")
	title := "Invoice"
	if isQuotation {
		title = "Quotation"
	}

	encoded := c.Query("data")
	if encoded == "" {
		s.errorCard(c, title+" Not Found", "No document data was provided in the link.")
		return
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		payload, err = base64.URLEncoding.DecodeString(encoded)
	}
	if err != nil {
		s.log.Warn("server.view.bad_base64", "error", err)
		s.errorCard(c, "Invalid Link", "The document link is malformed and could not be decoded.")
		return
	}

	var doc schema.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		s.log.Warn("server.view.bad_json", "error", err)
		s.errorCard(c, "Invalid Document", "The document data could not be read.")
		return
	}
	if isQuotation {
		doc.Kind = schema.KindQuotation
	}

	tmpl := "invoice.html"
	if isQuotation {
		tmpl = "quotation.html"
	}
	c.HTML(http.StatusOK, tmpl, render.BuildPrintData(doc))
}

func (s *Server) errorCard(c *gin.Context, title, message string) {
	c.HTML(http.StatusOK, "error.html", render.ErrorData{Title: title, Message: message})
}

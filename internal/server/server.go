// Package server assembles the HTTP surface: the web form and its JSON API,
// the printable document views, and the Telegram webhook.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flywheels-garage/invoicebot/internal/actions"
	"github.com/flywheels-garage/invoicebot/internal/bot"
	"github.com/flywheels-garage/invoicebot/internal/common"
	"github.com/flywheels-garage/invoicebot/internal/render"
	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// Server holds the router dependencies.
type Server struct {
	cfg     *common.Config
	actions *actions.Service
	webhook *bot.Handler
	log     *slog.Logger
}

func New(cfg *common.Config, svc *actions.Service, webhook *bot.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, actions: svc, webhook: webhook, log: logger}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(render.Templates())

	r.GET("/", s.index)
	r.POST("/api/parse", s.parse)
	r.POST("/api/modify", s.modify)
	r.GET("/view-invoice", s.viewDocument)
	r.GET("/view-quotation", s.viewDocument)
	r.POST("/api/telegram/webhook", s.webhook.Handle)

	return r
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

type parseRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

func (s *Server) parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, actions.ParseResult{Success: false, Error: "invalid request body"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, actions.ParseResult{Success: false, Error: "text is required"})
		return
	}
	kind := schema.KindInvoice
	if req.Kind == "quotation" {
		kind = schema.KindQuotation
	}
	c.JSON(http.StatusOK, s.actions.ParseDocument(c.Request.Context(), req.Text, kind))
}

type modifyRequest struct {
	DocumentDetails     string `json:"documentDetails"`
	ModificationRequest string `json:"modificationRequest"`
}

func (s *Server) modify(c *gin.Context) {
	var req modifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, actions.ModifyOutcome{Success: false, Message: "invalid request body"})
		return
	}
	if req.DocumentDetails == "" || req.ModificationRequest == "" {
		c.JSON(http.StatusBadRequest, actions.ModifyOutcome{Success: false, Message: "documentDetails and modificationRequest are required"})
		return
	}
	c.JSON(http.StatusOK, s.actions.ModifyDocument(c.Request.Context(), req.DocumentDetails, req.ModificationRequest))
}

// internal/handler/discovery_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"epl2-service/internal/model"
	"epl2-service/internal/service"
	"epl2-service/internal/utils"
)

// DiscoveryHandler handles printer discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.GET("/scan", h.ScanPrinters)
		discovery.GET("/scanners", h.GetScanners)
		discovery.POST("/probe", h.ProbePrinter)
	}
}

// ScanPrinters scans for printers
// @Summary Scan for printers
// @Description Browse mDNS for raw-port printers and list serial and USB printers
// @Tags Discovery
// @Produce json
// @Param type query string false "Scan type" Enums(all, mdns, serial, usb) default(all)
// @Success 200 {object} utils.APIResponse{data=object{printers_found=int,printers=[]model.DiscoveredPrinter}} "Printer scan completed"
// @Failure 400 {object} utils.APIResponse "Unsupported scan type"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanPrinters(c *gin.Context) {
	var req service.ScanRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	printers, err := h.discoveryService.ScanPrinters(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedScanType) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported scan type", err)
			return
		}
		h.logger.Error("Failed to scan printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan printers", err)
		return
	}

	if printers == nil {
		printers = []*model.DiscoveredPrinter{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", gin.H{
		"printers_found": len(printers),
		"printers":       printers,
	})
}

// GetScanners lists the scanners that can run on this host
// @Summary List scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{scanners=[]string}} "Scanners retrieved"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	scanners := h.discoveryService.Scanners()
	if scanners == nil {
		scanners = []string{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", gin.H{"scanners": scanners})
}

// ProbePrinter checks that a printer accepts a connection
// @Summary Probe printer
// @Description Open a connection to the target, send a status request and report any reply
// @Tags Discovery
// @Accept json
// @Produce json
// @Param target body model.PrinterTarget true "Printer target"
// @Success 200 {object} utils.APIResponse{data=service.ProbeResult} "Probe completed"
// @Failure 400 {object} utils.APIResponse "Invalid target"
// @Router /discovery/probe [post]
func (h *DiscoveryHandler) ProbePrinter(c *gin.Context) {
	var target model.PrinterTarget
	if err := c.ShouldBindJSON(&target); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := target.Validate(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid printer target", err)
		return
	}

	result, err := h.discoveryService.Probe(c.Request.Context(), target)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTarget) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid printer target", err)
			return
		}
		h.logger.Error("Failed to probe printer", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to probe printer", err)
		return
	}

	message := "Printer reachable"
	if !result.Reachable {
		message = "Printer unreachable"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	directoryhandler "medipos-system/internal/services/directory/handler"
)

type DirectoryService interface {
	ListLocations(ctx context.Context) (*directoryhandler.ListLocationsResponse, error)
	ListDoctors(ctx context.Context) (*directoryhandler.ListDoctorsResponse, error)
	SearchPatients(ctx context.Context, req *directoryhandler.SearchPatientsRequest) (*directoryhandler.SearchPatientsResponse, error)
}

type DirectoryHTTPHandler struct {
	directory DirectoryService
	logger    *zap.Logger
}

func NewDirectoryHTTPHandler(directory DirectoryService, logger *zap.Logger) *DirectoryHTTPHandler {
	return &DirectoryHTTPHandler{directory: directory, logger: logger}
}

// ListLocations surfaces an empty directory as a visible error state, the
// billing screen blocks search and submission until a location exists.
func (h *DirectoryHTTPHandler) ListLocations(c *gin.Context) {
	resp, err := h.directory.ListLocations(c.Request.Context())
	if err != nil {
		h.logger.Error("location lookup failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Failed to load locations",
		})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusOK, gin.H{
			"success":   false,
			"message":   resp.Message,
			"locations": resp.Locations,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"locations":     resp.Locations,
		"auto_selected": resp.AutoSelected,
	})
}

func (h *DirectoryHTTPHandler) ListDoctors(c *gin.Context) {
	resp, err := h.directory.ListDoctors(c.Request.Context())
	if err != nil {
		h.logger.Error("doctor lookup failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Failed to load doctors",
		})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": resp.Message,
			"doctors": resp.Doctors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"doctors":       resp.Doctors,
		"auto_selected": resp.AutoSelected,
	})
}

func (h *DirectoryHTTPHandler) SearchPatients(c *gin.Context) {
	resp, err := h.directory.SearchPatients(c.Request.Context(), &directoryhandler.SearchPatientsRequest{
		Query: c.Query("q"),
	})
	if err != nil {
		h.logger.Error("patient search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Patient search failed",
		})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": resp.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"patients": resp.Patients,
	})
}

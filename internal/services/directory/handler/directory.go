package handler

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"medipos-system/internal/database/models"
)

const (
	MIN_PATIENT_QUERY_LENGTH = 2
	PATIENT_SEARCH_LIMIT     = 10
)

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// -- Handler --

// DirectoryHandler serves the location/doctor/patient lookups the billing
// screen depends on.
type DirectoryHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDirectoryHandler(db *gorm.DB, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{db: db, logger: logger}
}

type ListLocationsResponse struct {
	Success   bool
	Message   *string
	Locations []models.Location

	// AutoSelected is set when exactly one location exists, so a
	// single-location deployment never makes the cashier pick.
	AutoSelected *models.Location
}

// ListLocations returns every active location. Zero rows is an error state,
// billing and search stay blocked until a location exists.
func (h *DirectoryHandler) ListLocations(ctx context.Context) (*ListLocationsResponse, error) {
	var locations []models.Location
	if err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("location_name ASC").
		Find(&locations).Error; err != nil {
		return &ListLocationsResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	if len(locations) == 0 {
		return &ListLocationsResponse{
			Success: false,
			Message: strPtr("No locations available"),
		}, nil
	}

	resp := &ListLocationsResponse{Success: true, Locations: locations}
	if len(locations) == 1 {
		resp.AutoSelected = &locations[0]
	}
	return resp, nil
}

type ListDoctorsResponse struct {
	Success bool
	Message *string
	Doctors []models.Doctor

	AutoSelected *models.Doctor
}

func (h *DirectoryHandler) ListDoctors(ctx context.Context) (*ListDoctorsResponse, error) {
	var doctors []models.Doctor
	if err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("doctor_name ASC").
		Find(&doctors).Error; err != nil {
		return &ListDoctorsResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	if len(doctors) == 0 {
		return &ListDoctorsResponse{
			Success: false,
			Message: strPtr("No doctors available"),
		}, nil
	}

	resp := &ListDoctorsResponse{Success: true, Doctors: doctors}
	if len(doctors) == 1 {
		resp.AutoSelected = &doctors[0]
	}
	return resp, nil
}

type SearchPatientsRequest struct {
	Query string
}

type SearchPatientsResponse struct {
	Success  bool
	Message  *string
	Patients []models.Patient
}

// SearchPatients looks patients up by name or mobile. Same minimum-length
// rule as the product search box.
func (h *DirectoryHandler) SearchPatients(ctx context.Context, req *SearchPatientsRequest) (*SearchPatientsResponse, error) {
	query := strings.TrimSpace(req.Query)
	if len([]rune(query)) < MIN_PATIENT_QUERY_LENGTH {
		return &SearchPatientsResponse{
			Success:  true,
			Patients: []models.Patient{},
		}, nil
	}

	term := "%" + query + "%"
	var patients []models.Patient
	if err := h.db.WithContext(ctx).
		Where("name ILIKE ? OR mobile ILIKE ?", term, term).
		Order("name ASC").
		Limit(PATIENT_SEARCH_LIMIT).
		Find(&patients).Error; err != nil {
		return &SearchPatientsResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	return &SearchPatientsResponse{Success: true, Patients: patients}, nil
}

package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

// OperatorSettings is the settings payload.
type OperatorSettings struct {
	DoctorName     string `json:"doctorName"`
	NameVisibility string `json:"nameVisibility"`
}

var validVisibilities = map[string]bool{
	"none":   true,
	"first":  true,
	"always": true,
}

// GetSettings returns the stored operator settings.
func (c *Controller) GetSettings(ctx echo.Context) error {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read settings", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, OperatorSettings{
		DoctorName:     settings.DoctorName,
		NameVisibility: settings.NameVisibility,
	})
}

// SaveSettings stores the operator name and speaker-name visibility.
func (c *Controller) SaveSettings(ctx echo.Context) error {
	var req OperatorSettings
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.NameVisibility == "" {
		req.NameVisibility = "first"
	}
	if !validVisibilities[req.NameVisibility] {
		err := errors.Newf("invalid name visibility %q", req.NameVisibility).
			Category(errors.CategoryValidation).
			Build()
		return c.HandleError(ctx, err, "Invalid name visibility", http.StatusBadRequest)
	}
	if err := c.Store.SaveSettings(req.DoctorName, req.NameVisibility); err != nil {
		return c.HandleError(ctx, err, "Failed to save settings", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, req)
}

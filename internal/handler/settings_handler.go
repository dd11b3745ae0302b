package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docintake/internal/service"
)

// ProfileKeyHeader carries the access key of a settings profile.
const ProfileKeyHeader = "X-Profile-Key"

// SettingsHandler handles stored configuration profiles.
type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get handles GET /api/v1/settings/:profile
// @Summary Load a settings profile
// @Description Stored configuration with API keys masked
// @Tags settings
// @Produce json
// @Param profile path string true "Profile name"
// @Param X-Profile-Key header string true "Profile access key"
// @Success 200 {object} Response{data=domain.SessionConfig} "Masked configuration"
// @Failure 401 {object} ErrorResponseBody "Access key missing"
// @Failure 403 {object} ErrorResponseBody "Access key rejected"
// @Failure 404 {object} ErrorResponseBody "Profile not found"
// @Router /api/v1/settings/{profile} [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	cfg, err := h.settingsService.Load(c.Request.Context(), c.Param("profile"), c.GetHeader(ProfileKeyHeader))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, cfg.Masked())
}

// Save handles PUT /api/v1/settings/:profile
// @Summary Save a settings profile
// @Description Store credentials for later sessions. Keys are sealed at rest; omitted keys keep their stored value.
// @Description Creating a profile returns its access key once. Updating a profile requires that key.
// @Tags settings
// @Accept json
// @Produce json
// @Param profile path string true "Profile name"
// @Param X-Profile-Key header string false "Profile access key, required when the profile exists"
// @Param request body ConfigRequest true "Credentials"
// @Success 200 {object} Response{data=service.SavedProfile} "Profile updated"
// @Success 201 {object} Response{data=service.SavedProfile} "Profile created, access_key is set"
// @Failure 400 {object} ErrorResponseBody "Invalid profile or request"
// @Failure 401 {object} ErrorResponseBody "Access key missing"
// @Failure 403 {object} ErrorResponseBody "Access key rejected"
// @Router /api/v1/settings/{profile} [put]
func (h *SettingsHandler) Save(c *gin.Context) {
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	saved, err := h.settingsService.Save(c.Request.Context(), c.Param("profile"), c.GetHeader(ProfileKeyHeader), req.toDomain())
	if err != nil {
		HandleError(c, err)
		return
	}
	if saved.AccessKey != "" {
		RespondCreated(c, saved)
		return
	}
	RespondOK(c, saved)
}

// Delete handles DELETE /api/v1/settings/:profile
// @Summary Delete a settings profile
// @Tags settings
// @Produce json
// @Param profile path string true "Profile name"
// @Param X-Profile-Key header string true "Profile access key"
// @Success 200 {object} MessageResponse "Profile deleted"
// @Failure 401 {object} ErrorResponseBody "Access key missing"
// @Failure 403 {object} ErrorResponseBody "Access key rejected"
// @Failure 404 {object} ErrorResponseBody "Profile not found"
// @Router /api/v1/settings/{profile} [delete]
func (h *SettingsHandler) Delete(c *gin.Context) {
	if err := h.settingsService.Delete(c.Request.Context(), c.Param("profile"), c.GetHeader(ProfileKeyHeader)); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "settings deleted"})
}

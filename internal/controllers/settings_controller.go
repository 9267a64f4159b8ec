package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/middleware"
	"github.com/zaqqye/tg_contact_form/internal/settings"
)

type SettingsController struct {
	Store *settings.Store
	Log   logger.Logger
}

// Get returns current values with secrets masked, plus the key catalogue.
func (sc *SettingsController) Get(c *gin.Context) {
	s, err := sc.Store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":   s.Masked(),
		"fields": s.Fields(),
		"keys":   settings.Describe(),
	})
}

// Update writes a partial set of keys. Masked secrets are left unchanged.
func (sc *SettingsController) Update(c *gin.Context) {
	var req map[string]FlexibleString
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	values := make(map[string]string, len(req))
	keys := make([]string, 0, len(req))
	for k, v := range req {
		values[k] = v.String()
		keys = append(keys, k)
	}
	s, err := sc.Store.Update(c.Request.Context(), values)
	if err != nil {
		respondError(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)
	sc.Log.Info("settings updated", map[string]interface{}{"keys": keys, "by": user.Email})
	c.JSON(http.StatusOK, gin.H{"message": "updated", "data": s.Masked()})
}

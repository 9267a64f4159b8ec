package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/middleware"
	"github.com/zaqqye/tg_contact_form/internal/models"
	"github.com/zaqqye/tg_contact_form/internal/utils"
)

const minPasswordLen = 8

var validate = validator.New()

// AdminController manages the accounts that can sign in to the admin API.
type AdminController struct {
	DB  *gorm.DB
	Log logger.Logger
}

func adminJSON(u models.User) gin.H {
	return gin.H{
		"user_id":    u.UserID,
		"full_name":  u.FullName,
		"email":      u.Email,
		"role":       u.Role,
		"active":     u.Active,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func (a *AdminController) ListAdmins(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, active
	all, limit, page, sortDir := pageParams(c)

	allowedSorts := map[string]string{
		"created_at": "created_at",
		"full_name":  "full_name",
		"email":      "email",
		"active":     "active",
	}
	sortBy := strings.ToLower(c.DefaultQuery("sort_by", "created_at"))
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "created_at"
	}

	qText := strings.TrimSpace(c.Query("q"))
	activeStr := strings.TrimSpace(strings.ToLower(c.Query("active")))

	filtered := func() *gorm.DB {
		q := a.DB.WithContext(c.Request.Context()).Model(&models.User{})
		if qText != "" {
			like := "%" + strings.ToLower(qText) + "%"
			q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		switch activeStr {
		case "true", "1":
			q = q.Where("active = ?", true)
		case "false", "0":
			q = q.Where("active = ?", false)
		}
		return q
	}
	switch activeStr {
	case "", "true", "1", "false", "0":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active value"})
		return
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	listQ := filtered().Order(fmt.Sprintf("%s %s", sortCol, sortDir))
	if !all {
		listQ = listQ.Offset((page - 1) * limit).Limit(limit)
	}
	var users []models.User
	if err := listQ.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, adminJSON(u))
	}
	meta := gin.H{"total": total, "all": all}
	if !all {
		meta["limit"] = limit
		meta["page"] = page
		meta["sort_by"] = sortCol
		meta["sort_dir"] = sortDir
	}
	if qText != "" {
		meta["q"] = qText
	}
	if activeStr != "" {
		meta["active"] = activeStr
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

type createAdminRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *AdminController) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Password) < minPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("password must be at least %d characters", minPasswordLen)})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := a.DB.Where("email = ?", email).First(&models.User{}).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	u := models.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Password: hashed,
		Role:     middleware.RoleAdmin,
		Active:   true,
	}
	if err := a.DB.Create(&u).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	a.Log.Info("admin account created", map[string]interface{}{"user_id": u.UserID, "email": u.Email})
	c.JSON(http.StatusCreated, adminJSON(u))
}

func (a *AdminController) find(c *gin.Context) (models.User, bool) {
	var u models.User
	err := a.DB.WithContext(c.Request.Context()).Where("user_id = ?", c.Param("user_id")).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return u, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return u, false
	}
	return u, true
}

func (a *AdminController) GetAdmin(c *gin.Context) {
	u, ok := a.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, adminJSON(u))
}

type updateAdminRequest struct {
	FullName *string         `json:"full_name"`
	Email    *string         `json:"email"`
	Password *FlexibleString `json:"password"`
	Active   *bool           `json:"active"`
}

// UpdateAdmin changes profile fields. Deactivating an account or changing its
// password revokes its refresh tokens. Admins cannot deactivate themselves.
func (a *AdminController) UpdateAdmin(c *gin.Context) {
	u, ok := a.find(c)
	if !ok {
		return
	}
	var req updateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	revoke := false
	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		}
		u.Email = email
	}
	if req.Active != nil {
		if me, _ := middleware.CurrentUser(c); !*req.Active && me.UserID == u.UserID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate your own account"})
			return
		}
		revoke = u.Active && !*req.Active
		u.Active = *req.Active
	}
	if req.Password != nil {
		raw := strings.TrimSpace(req.Password.String())
		if raw != "" {
			if len(raw) < minPasswordLen {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("password must be at least %d characters", minPasswordLen)})
				return
			}
			pw, err := utils.HashPassword(raw)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
				return
			}
			u.Password = pw
			revoke = true
		}
	}

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		if revoke {
			return revokeRefreshTokens(tx, u.ID)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (a *AdminController) DeleteAdmin(c *gin.Context) {
	u, ok := a.find(c)
	if !ok {
		return
	}
	if me, _ := middleware.CurrentUser(c); me.UserID == u.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id_ref = ?", u.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	a.Log.Info("admin account deleted", map[string]interface{}{"user_id": u.UserID, "email": u.Email})
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

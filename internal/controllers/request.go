package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/tg_contact_form/internal/apperr"
)

// FlexibleString accepts a JSON string, number or bool. Form binding sets it
// like a plain string.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	if fs == nil {
		return fmt.Errorf("FlexibleString: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*fs = FlexibleString(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*fs = FlexibleString(num.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*fs = FlexibleString(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("FlexibleString: expected string, number or bool, got %s", string(data))
}

func (fs FlexibleString) String() string {
	return string(fs)
}

// respondError writes a coded error, or a generic 500 for anything else.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	if code == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(apperr.HTTPStatus(code), gin.H{"error": publicMessage(err), "code": code})
}

// publicMessage is the caller-safe text of a coded error.
func publicMessage(err error) string {
	var se *apperr.StandardError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func parseID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(n), true
}

// pageParams reads limit, page, all and sort_dir the way every list endpoint does.
func pageParams(c *gin.Context) (all bool, limit, page int, sortDir string) {
	all = strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1"
	limit, page = 20, 1
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	sortDir = strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "DESC"
	}
	return
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/tg_contact_form/internal/submissions"
)

type SubmissionController struct {
	Repo    *submissions.Repository
	Service *submissions.Service
}

// ListRequests returns every request newest first. Pagination is optional:
// without limit/page the whole table is returned.
func (sc *SubmissionController) ListRequests(c *gin.Context) {
	all, limit, page, sortDir := pageParams(c)
	if c.Query("limit") == "" && c.Query("page") == "" {
		all = true
	}
	qText := strings.TrimSpace(c.Query("q"))

	items, total, err := sc.Repo.List(c.Request.Context(), submissions.ListOptions{
		All:     all,
		Limit:   limit,
		Page:    page,
		SortDir: sortDir,
		Query:   qText,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	meta := gin.H{"total": total, "all": all, "sort_dir": sortDir}
	if !all {
		meta["limit"] = limit
		meta["page"] = page
	}
	if qText != "" {
		meta["q"] = qText
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "meta": meta})
}

func (sc *SubmissionController) GetRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, err := sc.Repo.Get(c.Request.Context(), id)
	if errors.Is(err, submissions.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (sc *SubmissionController) DeleteRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := sc.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": id})
}

// ConfirmDelete is the GET form of delete used by plain links in the admin
// table. It only acts with confirm=yes.
func (sc *SubmissionController) ConfirmDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !strings.EqualFold(c.Query("confirm"), "yes") {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "confirmation required",
			"confirm": c.Request.URL.Path + "?confirm=yes",
		})
		return
	}
	if err := sc.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": id})
}

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
)

func (sc *SubmissionController) Analytics(c *gin.Context) {
	days := defaultAnalyticsDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAnalyticsDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}
	out, err := sc.Repo.Analytics(c.Request.Context(), days, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

package controllers

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zaqqye/tg_contact_form/internal/apperr"
	"github.com/zaqqye/tg_contact_form/internal/captcha"
	"github.com/zaqqye/tg_contact_form/internal/formtoken"
	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/settings"
	"github.com/zaqqye/tg_contact_form/internal/submissions"
)

const (
	SessionCookie   = "tcf_session"
	FormTokenHeader = "X-Form-Token"

	msgFormToken   = "Invalid or expired form token."
	msgStoreFailed = "Could not save your request. Please try again later."
	submitPath     = "/api/v1/form/submit"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates returns the HTML templates served by FormController.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

type FormController struct {
	Settings     SettingsLoader
	Captcha      *captcha.Service
	Tokens       *formtoken.Signer
	Submissions  *submissions.Service
	Log          logger.Logger
	SecureCookie bool
	SessionTTL   time.Duration
}

type formView struct {
	Action       string
	SessionToken string
	FormToken    string
	Fields       []settings.FieldDescriptor
	Captcha      *captcha.Challenge
	SubmitText   string
	CustomCSS    template.CSS
	BasicStyles  bool
}

// prepare loads settings, binds a session and issues the captcha and form
// token for one render.
func (fc *FormController) prepare(c *gin.Context) (formView, error) {
	ctx := c.Request.Context()
	cfg, err := fc.Settings.Load(ctx)
	if err != nil {
		return formView{}, apperr.Wrap(apperr.CodeStorageFailed, "could not load settings", err)
	}

	session, err := c.Cookie(SessionCookie)
	if err != nil || session == "" {
		session = uuid.NewString()
	}
	maxAge := int(fc.SessionTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, session, maxAge, "/", "", fc.SecureCookie, true)

	view := formView{
		Action:       submitPath,
		SessionToken: session,
		Fields:       cfg.VisibleFields(),
		SubmitText:   cfg.SubmitButtonText,
		BasicStyles:  cfg.EnqueueBasicStyles,
	}
	// rows written outside Store.Update are not validated
	if !strings.Contains(cfg.CustomCSS, "<") {
		view.CustomCSS = template.CSS(cfg.CustomCSS)
	}
	if cfg.CaptchaEnabled {
		ch, err := fc.Captcha.Issue(ctx, session)
		if err != nil {
			return formView{}, apperr.Wrap(apperr.CodeStorageFailed, "could not create captcha", err)
		}
		view.Captcha = &ch
	}
	if view.FormToken, err = fc.Tokens.Issue(session); err != nil {
		return formView{}, err
	}
	return view, nil
}

// RenderForm serves the public HTML form.
func (fc *FormController) RenderForm(c *gin.Context) {
	view, err := fc.prepare(c)
	if err != nil {
		fc.Log.WithError(err).Error("failed to render form", nil)
		c.String(http.StatusInternalServerError, "The form is temporarily unavailable.")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "form.html", view)
}

// Schema serves the same form as JSON for clients that render it themselves.
func (fc *FormController) Schema(c *gin.Context) {
	view, err := fc.prepare(c)
	if err != nil {
		fc.Log.WithError(err).Error("failed to build form schema", nil)
		respondError(c, err)
		return
	}
	var ch interface{}
	if view.Captcha != nil {
		ch = gin.H{"question": view.Captcha.Question}
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"fields":               view.Fields,
		"captcha":              ch,
		"session_token":        view.SessionToken,
		"form_token":           view.FormToken,
		"submit_url":           submitPath,
		"submit_button_text":   view.SubmitText,
		"custom_css":           string(view.CustomCSS),
		"enqueue_basic_styles": view.BasicStyles,
	})
}

type submitRequest struct {
	Name           string         `json:"name" form:"name"`
	Email          string         `json:"email" form:"email"`
	Phone          string         `json:"phone" form:"phone"`
	TelegramHandle string         `json:"telegram_handle" form:"telegram_handle"`
	Message        string         `json:"message" form:"message"`
	Captcha        FlexibleString `json:"captcha" form:"captcha"`
	FormToken      string         `json:"form_token" form:"form_token"`
	SessionToken   string         `json:"session_token" form:"session_token"`
}

func (r submitRequest) values() map[string]string {
	return map[string]string{
		settings.FieldName:     r.Name,
		settings.FieldEmail:    r.Email,
		settings.FieldPhone:    r.Phone,
		settings.FieldTelegram: r.TelegramHandle,
		settings.FieldMessage:  r.Message,
	}
}

func fail(c *gin.Context, status int, msg string, extra gin.H) {
	body := gin.H{"success": false, "error": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Submit checks the anti-forgery token and hands the request to the
// submission pipeline.
func (fc *FormController) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request.", nil)
		return
	}

	session := strings.TrimSpace(req.SessionToken)
	if session == "" {
		session, _ = c.Cookie(SessionCookie)
	}
	token := strings.TrimSpace(req.FormToken)
	if token == "" {
		token = strings.TrimSpace(c.GetHeader(FormTokenHeader))
	}
	if err := fc.Tokens.Verify(token, session); err != nil {
		fail(c, http.StatusForbidden, msgFormToken, nil)
		return
	}

	res, err := fc.Submissions.Submit(c.Request.Context(), submissions.Request{
		SessionToken:  session,
		IP:            c.ClientIP(),
		Values:        req.values(),
		CaptchaAnswer: req.Captcha.String(),
	})
	if err != nil {
		fc.Log.WithError(err).Error("submission failed", nil)
		fail(c, http.StatusInternalServerError, msgStoreFailed, nil)
		return
	}
	if !res.Accepted {
		extra := gin.H{}
		if res.Decision.Field != "" {
			extra["field"] = res.Decision.Field
		}
		fail(c, apperr.HTTPStatus(res.Decision.Code), res.Decision.Reason, extra)
		return
	}
	if err := res.Err(); err != nil {
		fail(c, apperr.HTTPStatus(apperr.CodeOf(err)), publicMessage(err), gin.H{"id": res.Submission.ID})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": submissions.MsgSuccess,
		"id":      res.Submission.ID,
	})
}

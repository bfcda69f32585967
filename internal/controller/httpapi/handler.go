package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/Freeeeeet/massage_booking/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// TokenFlow OAuth-авторизация владельца календаря
type TokenFlow interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
	Authorized() bool
}

type Options struct {
	CORSOrigin string
	RateLimit  float64 // запросов в секунду с одного IP, 0 - без ограничения
	Gatherer   prometheus.Gatherer
	Tokens     TokenFlow // nil - OAuth-маршруты не регистрируются
	AdminToken string    // пусто - /auth доступен только пока календарь не подключён
}

// oauthStateTTL сколько ждём возврата с экрана согласия Google
const oauthStateTTL = 10 * time.Minute

type Handler struct {
	booking    *service.BookingService
	tokens     TokenFlow
	states     *cache.Cache // выданные state для /oauth2callback
	adminToken string
	logger     *zap.Logger
}

// NewRouter собирает gin.Engine со всеми маршрутами API
func NewRouter(booking *service.BookingService, opts Options, logger *zap.Logger) *gin.Engine {
	h := &Handler{
		booking:    booking,
		tokens:     opts.Tokens,
		states:     cache.New(oauthStateTTL, oauthStateTTL),
		adminToken: opts.AdminToken,
		logger:     logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if opts.CORSOrigin == "" || opts.CORSOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		for _, origin := range strings.Split(opts.CORSOrigin, ",") {
			corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, strings.TrimSpace(origin))
		}
	}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", h.Health)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	if h.tokens != nil {
		r.GET("/auth", h.Auth)
		r.GET("/oauth2callback", h.OAuthCallback)
	}

	api := r.Group("/")
	if opts.RateLimit > 0 {
		api.Use(RateLimit(opts.RateLimit, int(opts.RateLimit*2)+1, logger))
	}
	api.GET("/services", h.Services)
	api.POST("/booking", h.Book)
	api.POST("/availability", h.CheckAvailability)
	api.GET("/availability/next", h.NextAvailable)
	api.GET("/availability/day", h.DaySlots)
	api.GET("/availability/chart", h.DayChart)

	return r
}

func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.tokens != nil {
		body["google_authorized"] = h.tokens.Authorized()
	}
	c.JSON(http.StatusOK, body)
}

type serviceView struct {
	ID         string               `json:"id"`
	Label      string               `json:"label"`
	Duration   int                  `json:"duration"`
	Kinds      []model.ResourceKind `json:"kinds"`
	Components []model.Component    `json:"components,omitempty"`
}

// Services каталог услуг и мастеров
func (h *Handler) Services(c *gin.Context) {
	cat := h.booking.Catalog()

	services := make([]serviceView, 0)
	for _, svc := range cat.Services() {
		view := serviceView{ID: svc.ID, Label: svc.Label, Duration: svc.Duration, Kinds: svc.Kinds}
		if svc.IsComposite() {
			view.Components = svc.Components
		}
		services = append(services, view)
	}

	masters := make([]string, 0)
	for _, p := range cat.Practitioners() {
		masters = append(masters, p.Name)
	}

	respondOK(c, "", gin.H{
		"services":       services,
		"masters":        masters,
		"max_party_size": cat.MaxPartySize(),
	})
}

type bookingResult struct {
	PartyID  string          `json:"partyId"`
	EventID  string          `json:"eventId"`
	EventIDs []string        `json:"eventIds"`
	Bookings []model.Booking `json:"bookings"`
}

// Book создаёт запись. Отказ по доступности сопровождается подсказкой ближайшего времени
func (h *Handler) Book(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		respondBadRequest(c, "name and phone are required")
		return
	}

	cat := h.booking.Catalog()
	guests, err := req.guests(cat)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	start, err := parseAppointmentTime(cat, req.AppointmentTime)
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	conf, err := h.booking.Book(c.Request.Context(), model.Party{
		Customer: model.Customer{Name: strings.TrimSpace(req.Name), Phone: strings.TrimSpace(req.Phone)},
		Guests:   guests,
		Start:    start,
	})
	if err != nil {
		h.respondError(c, err, h.suggest(c.Request.Context(), err, guests, start))
		return
	}

	ids := conf.EventIDs()
	respondOK(c, "預約成功！", bookingResult{
		PartyID:  conf.PartyID,
		EventID:  ids[0],
		EventIDs: ids,
		Bookings: conf.Bookings,
	})
}

// CheckAvailability проверка без записи
func (h *Handler) CheckAvailability(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cat := h.booking.Catalog()
	guests, err := req.guests(cat)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	start, err := parseAppointmentTime(cat, req.AppointmentTime)
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	res, err := h.booking.CheckAvailability(c.Request.Context(), guests, start)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	respondOK(c, "", res)
}

// NextAvailable ?service=...&master=...&date=YYYY-MM-DD
func (h *Handler) NextAvailable(c *gin.Context) {
	cat := h.booking.Catalog()
	guests, err := guestsFromQuery(cat, c.QueryArray("service"), c.QueryArray("master"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	day, err := parseDay(cat, c.Query("date"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	next, err := h.booking.NextAvailable(c.Request.Context(), guests, day)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	respondOK(c, "", gin.H{"start": next.In(cat.Location()).Format(time.RFC3339)})
}

// DaySlots все свободные времена начала за день (по умолчанию сегодня)
func (h *Handler) DaySlots(c *gin.Context) {
	cat := h.booking.Catalog()
	guests, err := guestsFromQuery(cat, c.QueryArray("service"), c.QueryArray("master"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	day, err := parseDay(cat, c.Query("date"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	if day.IsZero() {
		day = cat.StartOfDay(h.booking.Now())
	}

	slots, err := h.booking.DaySlots(c.Request.Context(), guests, day)
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.In(cat.Location()).Format("15:04"))
	}
	respondOK(c, "", gin.H{"date": day.Format("2006-01-02"), "slots": starts})
}

// DayChart PNG занятости ресурсов за день ?date=YYYY-MM-DD (по умолчанию сегодня)
func (h *Handler) DayChart(c *gin.Context) {
	cat := h.booking.Catalog()
	day, err := parseDay(cat, c.Query("date"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	if day.IsZero() {
		day = cat.StartOfDay(h.booking.Now())
	}

	chart, err := h.booking.DayChart(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.Data(http.StatusOK, "image/png", chart)
}

// suggest ближайшее время в тот же день для отказов, где можно предложить другое время
func (h *Handler) suggest(ctx context.Context, err error, guests []model.Guest, start time.Time) string {
	derr, ok := model.AsError(err)
	if !ok || !derr.Recoverable() {
		return ""
	}
	next, serr := h.booking.NextAvailable(ctx, guests, start)
	if serr != nil {
		return ""
	}
	return next.In(h.booking.Catalog().Location()).Format(time.RFC3339)
}

// Auth перенаправляет на страницу согласия Google. С настроенным ADMIN_TOKEN нужен ?token=,
// без него подключить календарь можно только один раз
func (h *Handler) Auth(c *gin.Context) {
	if h.adminToken != "" {
		if subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(h.adminToken)) != 1 {
			h.logger.Warn("OAuth start rejected: bad admin token", zap.String("ip", c.ClientIP()))
			c.String(http.StatusForbidden, "沒有權限")
			return
		}
	} else if h.tokens.Authorized() {
		c.String(http.StatusForbidden, "行事曆已授權")
		return
	}

	state := uuid.NewString()
	h.states.SetDefault(state, 1)
	c.Redirect(http.StatusFound, h.tokens.AuthURL(state))
}

// consumeState true, если state выдан нами и ещё не использован
func (h *Handler) consumeState(state string) bool {
	if state == "" {
		return false
	}
	left, err := h.states.DecrementInt(state, 1)
	if err != nil {
		return false
	}
	h.states.Delete(state)
	return left == 0
}

func (h *Handler) OAuthCallback(c *gin.Context) {
	if !h.consumeState(c.Query("state")) {
		h.logger.Warn("OAuth callback rejected: unknown state", zap.String("ip", c.ClientIP()))
		c.String(http.StatusForbidden, "授權請求無效或已過期")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "缺少授權碼")
		return
	}

	if err := h.tokens.Exchange(c.Request.Context(), code); err != nil {
		h.logger.Error("❌ Token exchange failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "交換 token 失敗")
		return
	}
	c.String(http.StatusOK, "授權成功！請返回應用程式")
}

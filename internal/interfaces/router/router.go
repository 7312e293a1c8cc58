package router

import (
	"context"
	"net/http"
	"time"

	authsvc "procurement-portal/internal/application/auth"
	bidsvc "procurement-portal/internal/application/bids"
	contractsvc "procurement-portal/internal/application/contracts"
	dashboardsvc "procurement-portal/internal/application/dashboard"
	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/application/emails"
	healthsvc "procurement-portal/internal/application/health"
	"procurement-portal/internal/application/lifecycle"
	notificationsvc "procurement-portal/internal/application/notifications"
	profilesvc "procurement-portal/internal/application/profiles"
	rfpsvc "procurement-portal/internal/application/rfps"
	"procurement-portal/internal/config"
	"procurement-portal/internal/constants"
	"procurement-portal/internal/infrastructure/database"
	authhandler "procurement-portal/internal/interfaces/handlers/auth"
	bidhandler "procurement-portal/internal/interfaces/handlers/bids"
	contracthandler "procurement-portal/internal/interfaces/handlers/contracts"
	dashboardhandler "procurement-portal/internal/interfaces/handlers/dashboard"
	healthhandler "procurement-portal/internal/interfaces/handlers/health"
	notificationhandler "procurement-portal/internal/interfaces/handlers/notifications"
	profilehandler "procurement-portal/internal/interfaces/handlers/profiles"
	rfphandler "procurement-portal/internal/interfaces/handlers/rfps"
	"procurement-portal/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// filesPerRequest sizes the body limit for multipart requests carrying several attachments.
const filesPerRequest = 5

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the collaborators the HTTP app is built from. Tests pass sqlite, miniredis and memory stores.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Rdb         *redis.Client
	Stores      *documents.Stores
	EmailSender emails.Sender
	Now         func() time.Time
}

// CreateApp opens the database, Redis and document stores from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
	} else {
		log.Warn().Msg("REDIS_URL not set: sessions, live notifications and request stats are disabled")
	}

	stores, err := documents.NewStores(context.Background(), cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var sender emails.Sender
	if cfg.SendinblueAPIKey != "" {
		sender = &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, PortalURL: cfg.PortalURL}
	}

	app := NewApp(Deps{Config: cfg, DB: db, Rdb: rdb, Stores: stores, EmailSender: sender})
	return app, db, rdb, nil
}

// NewApp wires services, middleware and routes.
func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	db, rdb := d.DB, d.Rdb

	bodyLimit := fiber.DefaultBodyLimit
	if cfg.MaxUploadMB > 0 {
		bodyLimit = cfg.MaxUploadMB * filesPerRequest * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Session(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	maxUpload := int64(cfg.MaxUploadMB) * 1024 * 1024

	notifications := &notificationsvc.Service{DB: db, Rdb: rdb, EmailSender: d.EmailSender}
	manager := &lifecycle.Manager{DB: db, Notifications: notifications, BidStore: d.Stores.Bid, Now: d.Now}
	profiles := &profilesvc.Service{DB: db, Rdb: rdb, EmailSender: d.EmailSender}
	rfps := &rfpsvc.Service{DB: db, Store: d.Stores.RFP, ReferencePrefix: cfg.ReferencePrefix, Now: d.Now}
	bids := &bidsvc.Service{DB: db, Store: d.Stores.Bid}
	contracts := &contractsvc.Service{DB: db, Notifications: notifications}
	dashboard := &dashboardsvc.Service{DB: db, Now: d.Now}

	hh := &healthhandler.Handlers{
		Checker:        &healthsvc.Checker{Rdb: rdb, DB: &gormDBPinger{db: db}, Store: d.Stores.RFP},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	limit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	auth := middleware.RequireAuth()
	can := middleware.AuthorizePermission

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Profiles:   profiles,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	ag := app.Group("/api/v1/auth")
	ag.Post("/register", limit, ah.Register)
	ag.Post("/login", limit, ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)

	api := app.Group("/api/v1", auth)

	ph := &profilehandler.Handlers{Service: profiles}
	api.Get("/profile", ph.Get)
	api.Put("/profile", ph.Update)
	api.Get("/admin/users", can(constants.ManageUsers), ph.ListUsers)
	api.Patch("/admin/users/:id/role", can(constants.ManageUsers), ph.UpdateRole)

	rh := &rfphandler.Handlers{Service: rfps, Lifecycle: manager, MaxUploadBytes: maxUpload}
	api.Get("/categories", rh.ListCategories)
	api.Post("/categories", can(constants.ManageCategories), rh.CreateCategory)
	api.Get("/rfps", can(constants.ViewRFPs), rh.List)
	api.Post("/rfps", can(constants.ManageRFPs), rh.Create)
	api.Get("/rfps/:id", can(constants.ViewRFPs), rh.Get)
	api.Put("/rfps/:id", can(constants.ManageRFPs), rh.Update)
	api.Patch("/rfps/:id/status", can(constants.ManageRFPs), rh.SetStatus)
	api.Get("/rfps/:id/integrity", can(constants.CheckIntegrity), rh.Integrity)
	api.Post("/rfps/:id/documents", can(constants.ManageRFPs), rh.AddDocuments)
	api.Delete("/rfps/:id/documents/:docId", can(constants.ManageRFPs), rh.RemoveDocument)
	api.Get("/rfps/:id/documents/:docId", can(constants.ViewRFPs), rh.DownloadDocument)

	bh := &bidhandler.Handlers{Service: bids, Lifecycle: manager, MaxUploadBytes: maxUpload}
	api.Post("/rfps/:id/bids", can(constants.SubmitBids), limit, bh.Submit)
	api.Get("/bids", bh.List)
	api.Get("/bids/:id", bh.Get)
	api.Patch("/bids/:id/status", can(constants.ReviewBids), bh.SetStatus)
	api.Patch("/bids/:id/notes", can(constants.ReviewBids), bh.SetNotes)
	api.Post("/bids/:id/withdraw", can(constants.SubmitBids), bh.Withdraw)
	api.Post("/bids/:id/award", can(constants.AwardContracts), bh.Award)
	api.Get("/bids/:id/documents/:docId", bh.DownloadDocument)

	ch := &contracthandler.Handlers{Service: contracts}
	api.Get("/contracts", can(constants.ViewContracts), ch.List)
	api.Get("/contracts/:id", can(constants.ViewContracts), ch.Get)
	api.Patch("/contracts/:id/status", can(constants.ManageContracts), ch.SetStatus)

	nh := &notificationhandler.Handlers{Service: notifications}
	api.Get("/notifications", nh.List)
	api.Get("/notifications/unread-count", nh.UnreadCount)
	api.Get("/notifications/stream", nh.Stream)
	api.Patch("/notifications/read-all", nh.MarkAllRead)
	api.Patch("/notifications/:id/read", nh.MarkRead)

	dh := &dashboardhandler.Handlers{Service: dashboard}
	api.Get("/dashboard", dh.Get)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}

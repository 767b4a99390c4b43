package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
	"eventdesk/backend/internal/middleware"
	"eventdesk/backend/internal/pkg/repository/postgresql"
	"eventdesk/backend/internal/repository/postgres/employee"
	"eventdesk/backend/internal/repository/postgres/prize"
	"eventdesk/backend/internal/repository/postgres/registration"
	"eventdesk/backend/internal/repository/postgres/staff"
	"eventdesk/backend/internal/repository/redis/stats"
	"eventdesk/backend/internal/service/checkin"
	"eventdesk/backend/internal/service/hashing"

	auth_controller "eventdesk/backend/internal/controller/http/v1/auth"
	employee_controller "eventdesk/backend/internal/controller/http/v1/employee"
	file_controller "eventdesk/backend/internal/controller/http/v1/file"
	prize_controller "eventdesk/backend/internal/controller/http/v1/prize"
	registration_controller "eventdesk/backend/internal/controller/http/v1/registration"
	staff_controller "eventdesk/backend/internal/controller/http/v1/staff"
)

type Config struct {
	MediaDir    string
	CorsOrigins []string
	Location    *time.Location
	CounterTTL  time.Duration
}

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	redisDB    *redis.Client
	auth       *auth.Auth
	signer     *hashing.Signer
	cfg        Config
	log        *zap.Logger
}

// NewRouter builds the router. redisDB may be nil, live counters are then
// served from the database.
func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redis.Client,
	auth *auth.Auth,
	signer *hashing.Signer,
	cfg Config,
	log *zap.Logger,
) *Router {
	return &Router{
		App:        app,
		postgresDB: postgresDB,
		redisDB:    redisDB,
		auth:       auth,
		signer:     signer,
		cfg:        cfg,
		log:        log,
	}
}

func (r Router) Init() {
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(r.log), middleware.Logger(r.log), middleware.CORSMiddleware(r.cfg.CorsOrigins))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		if err := r.postgresDB.PingContext(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, map[string]interface{}{"status": status == http.StatusOK})
	})

	// - postgresql
	staffPostgres := staff.NewRepository(r.postgresDB)
	employeePostgres := employee.NewRepository(r.postgresDB)
	registrationPostgres := registration.NewRepository(r.postgresDB, r.cfg.Location)
	prizePostgres := prize.NewRepository(r.postgresDB)

	// - redis
	var (
		recorders []checkin.Recorder
		counters  registration_controller.Stats
	)
	if r.redisDB != nil {
		statsRedis := stats.NewStore(r.redisDB, r.cfg.Location, r.cfg.CounterTTL)
		recorders = append(recorders, statsRedis)
		counters = statsRedis
	}

	reconciler := checkin.NewReconciler(registrationPostgres, checkin.SystemClock, r.cfg.Location, r.log, recorders...)

	// controller
	authController := auth_controller.NewController(staffPostgres, r.auth)
	staffController := staff_controller.NewController(staffPostgres)
	employeeController := employee_controller.NewController(employeePostgres, r.cfg.MediaDir, r.log)
	registrationController := registration_controller.NewController(reconciler, registrationPostgres, counters, checkin.SystemClock, r.cfg.Location, r.log)
	prizeController := prize_controller.NewController(prizePostgres, r.signer, r.cfg.MediaDir, checkin.SystemClock, r.log)
	fileController := file_controller.NewController(r.signer, r.cfg.MediaDir)

	// #auth
	r.Post("/api/v1/sign-in", authController.SignIn)
	r.Post("/api/v1/refresh-token", authController.RefreshToken)

	r.Get("/media/*filepath", fileController.File)

	// #check-in
	r.Post("/:locale/register/api", registrationController.CheckIn, middleware.Authenticate(r.auth), middleware.Locale())

	// #prize
	r.Get("/:locale/prize/search", prizeController.Search, middleware.Authenticate(r.auth), middleware.Locale())
	r.Post("/:locale/prize/redeem", prizeController.Redeem, middleware.Authenticate(r.auth), middleware.Locale())

	// #registration
	r.Get("/api/v1/registration/list", registrationController.GetList, middleware.Authenticate(r.auth))
	r.Get("/api/v1/registration/statistics", registrationController.GetStatistics, middleware.Authenticate(r.auth))
	r.Get("/api/v1/registration/export", registrationController.Export, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Delete("/api/v1/registration/:employee_id", registrationController.Delete, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #employee
	r.Post("/api/v1/employee/import", employeeController.Import, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/employee/list", employeeController.GetList, middleware.Authenticate(r.auth))
	r.Get("/api/v1/employee/qrcode", employeeController.GetQrCode, middleware.Authenticate(r.auth))
	r.Get("/api/v1/employee/badges", employeeController.GetBadges, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #staff
	r.Get("/api/v1/staff/list", staffController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Post("/api/v1/staff/create", staffController.Create, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Delete("/api/v1/staff/:id", staffController.Delete, middleware.Authenticate(r.auth, auth.RoleAdmin))
}

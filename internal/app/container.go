package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/config"
	httpx "github.com/you/schoolsvc/internal/http"
	"github.com/you/schoolsvc/internal/http/handlers"
	"github.com/you/schoolsvc/internal/http/middleware"
	"github.com/you/schoolsvc/internal/infrastructure/audit"
	"github.com/you/schoolsvc/internal/infrastructure/auth"
	"github.com/you/schoolsvc/internal/infrastructure/database"
	"github.com/you/schoolsvc/internal/infrastructure/notifications"
	"github.com/you/schoolsvc/internal/infrastructure/repositories"
	"github.com/you/schoolsvc/internal/metrics"
	"github.com/you/schoolsvc/internal/services"
)

// sqlitePrefix selects the sqlite driver for local runs and tests
const sqlitePrefix = "sqlite:"

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Log    *logrus.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *database.RedisClient
	Casbin      *auth.CasbinService
	Metrics     *metrics.Metrics

	// Repositories
	UserRepo       domain.UserRepository
	Denylist       domain.TokenDenylist
	PaymentRepo    domain.PaymentRepository
	AttendanceRepo domain.AttendanceRepository
	GroupRepo      domain.GroupRepository
	StudentRepo    domain.StudentRepository
	Classrooms     *repositories.Store[domain.Classroom]
	Teachers       *repositories.Store[domain.Teacher]
	Students       *repositories.Store[domain.Student]
	Groups         *repositories.Store[domain.Group]
	Schedules      *repositories.Store[domain.Schedule]

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	Audit           domain.AuditLogger
	AuthSvc         domain.AuthService
	PolicySvc       domain.PolicyService
	AccessPolicy    domain.AccessPolicy
	AccessControl   domain.AccessControlService
	Ledger          domain.LedgerService
	Reports         *services.ReportService
	Reminders       *services.ReminderService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, log *logrus.Logger) (*Container, error) {
	container := &Container{Config: cfg, Log: log, Metrics: metrics.New()}

	// Initialize infrastructure
	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	container.initRedis()

	// Initialize repositories
	container.initRepositories()

	// Initialize services
	if err := container.initServices(); err != nil {
		container.Close()
		return nil, err
	}

	return container, nil
}

func (c *Container) initDatabase() error {
	var (
		db  *gorm.DB
		err error
	)
	if dsn, ok := strings.CutPrefix(c.Config.DSN, sqlitePrefix); ok {
		db, err = database.OpenSQLite(dsn, c.Config.DBLogLevel, c.Log)
	} else {
		db, err = database.Open(c.Config.DSN, c.Config.DBLogLevel, c.Log)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	c.DB = db
	return nil
}

func (c *Container) initRedis() {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.Denylist = repositories.NewTokenDenylist(c.RedisClient.Client)
	c.PaymentRepo = repositories.NewPaymentRepository(c.DB)
	c.AttendanceRepo = repositories.NewAttendanceRepository(c.DB)
	c.GroupRepo = repositories.NewGroupRepository(c.DB)
	c.StudentRepo = repositories.NewStudentRepository(c.DB)
	c.Classrooms = repositories.NewStore[domain.Classroom](c.DB)
	c.Teachers = repositories.NewStore[domain.Teacher](c.DB)
	c.Students = repositories.NewStore[domain.Student](c.DB)
	c.Groups = repositories.NewStore[domain.Group](c.DB)
	c.Schedules = repositories.NewStore[domain.Schedule](c.DB)
}

func (c *Container) initServices() error {
	// Initialize basic services
	c.PasswordSvc = auth.NewPasswordService(c.Config.BcryptCost)
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.AccessTTL)
	c.NotificationSvc = notifications.NewNotifier(
		notifications.NewTwilioService(c.Config.TwilioSID, c.Config.TwilioToken, c.Config.TwilioFrom, c.Log),
		notifications.NewSendGridService(c.Config.SendGridKey, c.Config.SendGridFromName, c.Config.SendGridFrom, c.Log),
	)
	c.Audit = audit.NewLogrusAuditLogger(c.Log)

	// Role gate with policies persisted next to the school tables
	cas, err := auth.NewCasbinService(c.DB, c.Config.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("failed to initialize casbin: %w", err)
	}
	c.Casbin = cas
	added, err := services.EnsurePolicies(cas.E, httpx.APIPrefix, httpx.RouteRules())
	if err != nil {
		return err
	}
	if added > 0 {
		c.Log.WithField("added", added).Info("casbin: seeded route policies")
	}
	c.PolicySvc = services.NewPolicyService(cas.E)
	c.AccessPolicy = services.NewAccessPolicy(c.Metrics)

	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.Denylist,
		database.NewRedisLock(c.RedisClient),
		c.PasswordSvc,
		c.TokenSvc,
		c.Audit,
		services.AuthOptions{
			TokenTTL:         c.Config.AccessTTL,
			BootstrapLockTTL: c.Config.BootstrapLockTTL,
			Metrics:          c.Metrics,
		},
	)
	c.AccessControl = services.NewAccessControlService(c.UserRepo, c.Audit)
	c.Ledger = services.NewLedgerService(c.PaymentRepo, c.AttendanceRepo, c.GroupRepo, c.StudentRepo, c.Audit, services.LedgerOptions{
		LessonsPerCycle: c.Config.LessonsPerCycle,
		GracePeriod:     c.Config.GracePeriod,
		Metrics:         c.Metrics,
		Log:             c.Log,
	})
	c.Reports = services.NewReportService(c.Students, c.Teachers, c.Groups, c.AttendanceRepo, c.PaymentRepo)
	c.Reminders = services.NewReminderService(c.PaymentRepo, c.StudentRepo, c.NotificationSvc, c.Metrics, c.Log)

	return nil
}

// Router builds the HTTP router over the container's services
func (c *Container) Router() *gin.Engine {
	return httpx.BuildRouter(httpx.Deps{
		Handlers: httpx.Handlers{
			Auth:       handlers.NewAuthHandlers(c.AuthSvc),
			Access:     handlers.NewAccessHandlers(c.AccessControl),
			Policies:   handlers.NewPolicyHandlers(c.PolicySvc),
			Classrooms: handlers.NewResourceHandlers[domain.Classroom](c.Classrooms, nil),
			Teachers:   handlers.NewResourceHandlers[domain.Teacher](c.Teachers, nil),
			Students:   handlers.NewResourceHandlers[domain.Student](c.Students, nil),
			Groups:     handlers.NewResourceHandlers[domain.Group](c.Groups, map[string]string{"teacherId": "teacher_id"}),
			Schedules: handlers.NewResourceHandlers[domain.Schedule](c.Schedules, map[string]string{
				"groupId":     "group_id",
				"classroomId": "classroom_id",
			}),
			GroupReads: handlers.NewGroupHandlers(c.GroupRepo),
			Attendance: handlers.NewAttendanceHandlers(c.Ledger, c.AttendanceRepo),
			Payments:   handlers.NewPaymentHandlers(c.Ledger, c.AccessPolicy),
			Reports:    handlers.NewReportHandlers(c.Reports, c.AccessPolicy),
		},
		Auth:      middleware.NewAuthMW(c.TokenSvc, c.Denylist, c.UserRepo),
		Enforcer:  c.Casbin.E,
		Policy:    c.AccessPolicy,
		Ownership: middleware.NewOwnershipMW(c.AccessPolicy, c.Config.OwnershipRules),
		Metrics:   c.Metrics,
		Log:       c.Log,
		Ready:     c.Ping,
	})
}

// Ping checks the database and redis connections
func (c *Container) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.RedisClient.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

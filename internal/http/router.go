package httpx

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/handlers"
	"github.com/you/schoolsvc/internal/http/middleware"
	"github.com/you/schoolsvc/internal/http/respond"
	"github.com/you/schoolsvc/internal/metrics"
	"github.com/you/schoolsvc/internal/services"
)

// APIPrefix is where every route of the table is mounted
const APIPrefix = "/api"

// Handlers groups the HTTP handlers the route table binds
type Handlers struct {
	Auth       *handlers.AuthHandlers
	Access     *handlers.AccessHandlers
	Policies   *handlers.PolicyHandlers
	Classrooms *handlers.ResourceHandlers[domain.Classroom]
	Teachers   *handlers.ResourceHandlers[domain.Teacher]
	Students   *handlers.ResourceHandlers[domain.Student]
	Groups     *handlers.ResourceHandlers[domain.Group]
	Schedules  *handlers.ResourceHandlers[domain.Schedule]
	GroupReads *handlers.GroupHandlers
	Attendance *handlers.AttendanceHandlers
	Payments   *handlers.PaymentHandlers
	Reports    *handlers.ReportHandlers
}

// Deps is everything BuildRouter needs
type Deps struct {
	Handlers  Handlers
	Auth      *middleware.AuthMW
	Enforcer  domain.CasbinEnforcer
	Policy    domain.AccessPolicy
	Ownership *middleware.OwnershipMW
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
	// Ready reports whether backing stores answer; nil means always ready
	Ready func(ctx context.Context) error
}

// Route is one entry of the route table. Roles feed the casbin role gate;
// Grant lets an explicit permission open the route to other roles.
type Route struct {
	Method   string
	Path     string
	Public   bool
	Roles    []domain.Role
	Grant    *middleware.Grant
	Handlers []gin.HandlerFunc
}

var (
	admin        = []domain.Role{domain.RoleAdmin}
	staff        = []domain.Role{domain.RoleAdmin, domain.RoleTeacher}
	everyone     = []domain.Role{domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent}
	adminStudent = []domain.Role{domain.RoleAdmin, domain.RoleStudent}
)

func grant(resource, action string) *middleware.Grant {
	return &middleware.Grant{Resource: resource, Action: action}
}

func chain(h ...gin.HandlerFunc) []gin.HandlerFunc { return h }

func routes(h Handlers, policy domain.AccessPolicy) []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/auth/register", Public: true, Handlers: chain(h.Auth.Register)},
		{Method: http.MethodPost, Path: "/auth/login", Public: true, Handlers: chain(h.Auth.Login)},
		{Method: http.MethodGet, Path: "/auth/check-admin", Public: true, Handlers: chain(h.Auth.CheckAdmin)},
		{Method: http.MethodPost, Path: "/auth/create-admin", Public: true, Handlers: chain(h.Auth.CreateAdmin)},
		{Method: http.MethodGet, Path: "/auth/profile", Roles: everyone, Handlers: chain(h.Auth.Profile)},
		{Method: http.MethodPost, Path: "/auth/logout", Roles: everyone, Handlers: chain(h.Auth.Logout)},
		{Method: http.MethodPost, Path: "/auth/register-admin", Roles: admin, Handlers: chain(h.Auth.RegisterAdmin)},

		{Method: http.MethodGet, Path: "/access/users", Roles: admin, Handlers: chain(h.Access.ListUsers)},
		{Method: http.MethodGet, Path: "/access/users/:id", Roles: admin, Handlers: chain(h.Access.GetUser)},
		{Method: http.MethodPut, Path: "/access/users/:id/role", Roles: admin, Handlers: chain(h.Access.UpdateRole)},
		{Method: http.MethodPut, Path: "/access/users/:id/permissions", Roles: admin, Handlers: chain(h.Access.UpdatePermissions)},
		{Method: http.MethodPut, Path: "/access/users/:id/reference", Roles: admin, Handlers: chain(h.Access.UpdateReference)},
		{Method: http.MethodGet, Path: "/access/policies", Roles: admin, Handlers: chain(h.Policies.List)},
		{Method: http.MethodGet, Path: "/access/policies/check", Roles: admin, Handlers: chain(h.Policies.Check)},
		{Method: http.MethodPost, Path: "/access/policies", Roles: admin, Handlers: chain(h.Policies.Add)},
		{Method: http.MethodDelete, Path: "/access/policies", Roles: admin, Handlers: chain(h.Policies.Remove)},

		{Method: http.MethodGet, Path: "/classrooms", Roles: admin, Grant: grant("classrooms", "read"), Handlers: chain(h.Classrooms.List)},
		{Method: http.MethodGet, Path: "/classrooms/:id", Roles: admin, Grant: grant("classrooms", "read"), Handlers: chain(h.Classrooms.Get)},
		{Method: http.MethodPost, Path: "/classrooms", Roles: admin, Handlers: chain(h.Classrooms.Create)},
		{Method: http.MethodPut, Path: "/classrooms/:id", Roles: admin, Handlers: chain(h.Classrooms.Update)},
		{Method: http.MethodDelete, Path: "/classrooms/:id", Roles: admin, Handlers: chain(h.Classrooms.Delete)},
		{Method: http.MethodGet, Path: "/classrooms/:id/schedule", Roles: staff, Handlers: chain(h.Schedules.ListBy("classroom_id"))},

		{Method: http.MethodGet, Path: "/teachers", Roles: admin, Grant: grant("teachers", "read"), Handlers: chain(h.Teachers.List)},
		{Method: http.MethodGet, Path: "/teachers/:id", Roles: admin, Grant: grant("teachers", "read"), Handlers: chain(h.Teachers.Get)},
		{Method: http.MethodPost, Path: "/teachers", Roles: admin, Handlers: chain(h.Teachers.Create)},
		{Method: http.MethodPut, Path: "/teachers/:id", Roles: admin, Handlers: chain(h.Teachers.Update)},
		{Method: http.MethodDelete, Path: "/teachers/:id", Roles: admin, Handlers: chain(h.Teachers.Delete)},
		{Method: http.MethodGet, Path: "/teachers/:id/groups", Roles: staff, Handlers: chain(h.GroupReads.TeacherGroups)},

		{Method: http.MethodGet, Path: "/groups", Roles: staff, Handlers: chain(h.Groups.List)},
		{Method: http.MethodGet, Path: "/groups/:id", Roles: staff, Handlers: chain(h.Groups.Get)},
		{Method: http.MethodPost, Path: "/groups", Roles: admin, Handlers: chain(h.Groups.Create)},
		{Method: http.MethodPut, Path: "/groups/:id", Roles: admin, Handlers: chain(h.Groups.Update)},
		{Method: http.MethodDelete, Path: "/groups/:id", Roles: admin, Handlers: chain(h.Groups.Delete)},
		{Method: http.MethodGet, Path: "/groups/:id/schedule", Roles: everyone, Handlers: chain(h.Schedules.ListBy("group_id"))},

		{Method: http.MethodGet, Path: "/students", Roles: staff, Handlers: chain(h.Students.List)},
		{Method: http.MethodGet, Path: "/students/:id", Roles: staff, Handlers: chain(h.Students.Get)},
		{Method: http.MethodPost, Path: "/students", Roles: admin, Handlers: chain(h.Students.Create)},
		{Method: http.MethodPut, Path: "/students/:id", Roles: admin, Handlers: chain(h.Students.Update)},
		{Method: http.MethodDelete, Path: "/students/:id", Roles: admin, Handlers: chain(h.Students.Delete)},
		{Method: http.MethodGet, Path: "/students/:id/payment-status", Roles: adminStudent, Handlers: chain(h.Payments.Status)},
		{Method: http.MethodGet, Path: "/students/:id/payment-notices", Roles: adminStudent, Handlers: chain(h.Payments.Notices)},

		{Method: http.MethodGet, Path: "/schedules", Roles: everyone, Handlers: chain(h.Schedules.List)},
		{Method: http.MethodGet, Path: "/schedules/:id", Roles: everyone, Handlers: chain(h.Schedules.Get)},
		{Method: http.MethodPost, Path: "/schedules", Roles: admin, Handlers: chain(h.Schedules.Create)},
		{Method: http.MethodPut, Path: "/schedules/:id", Roles: admin, Handlers: chain(h.Schedules.Update)},
		{Method: http.MethodDelete, Path: "/schedules/:id", Roles: admin, Handlers: chain(h.Schedules.Delete)},

		{Method: http.MethodGet, Path: "/attendances", Roles: staff, Handlers: chain(h.Attendance.List)},
		{Method: http.MethodGet, Path: "/attendances/dates", Roles: everyone, Handlers: chain(h.Attendance.Dates)},
		{Method: http.MethodPost, Path: "/attendances", Roles: staff, Handlers: chain(h.Attendance.Record)},
		{Method: http.MethodPut, Path: "/attendances/:id", Roles: staff, Handlers: chain(h.Attendance.Update)},
		{Method: http.MethodDelete, Path: "/attendances/:id", Roles: admin, Handlers: chain(h.Attendance.Delete)},

		{Method: http.MethodGet, Path: "/payments", Roles: admin, Grant: grant("payments", "read"), Handlers: chain(h.Payments.List)},
		{Method: http.MethodGet, Path: "/payments/:id", Roles: admin, Grant: grant("payments", "read"), Handlers: chain(h.Payments.Get)},
		{Method: http.MethodPost, Path: "/payments", Roles: admin, Handlers: chain(h.Payments.Create)},
		{Method: http.MethodPut, Path: "/payments/:id", Roles: admin, Handlers: chain(h.Payments.Update)},
		{Method: http.MethodPost, Path: "/payments/:id/confirm", Roles: admin, Handlers: chain(h.Payments.Confirm)},

		{Method: http.MethodGet, Path: "/reports/attendance", Roles: staff, Handlers: chain(middleware.RequirePermission(policy, "reports", "read"), h.Reports.Attendance)},
		{Method: http.MethodGet, Path: "/reports/payments", Roles: admin, Grant: grant("payments", "read"), Handlers: chain(h.Reports.Payments)},
		{Method: http.MethodGet, Path: "/dashboard-summary", Roles: staff, Handlers: chain(h.Reports.Dashboard)},
	}
}

// RouteRules lists the role requirements of every protected route, for
// seeding the casbin role gate.
func RouteRules() []services.RouteRule {
	var rules []services.RouteRule
	for _, rt := range routes(Handlers{}, nil) {
		if rt.Public {
			continue
		}
		rules = append(rules, services.RouteRule{Method: rt.Method, Path: APIPrefix + rt.Path, Roles: rt.Roles})
	}
	return rules
}

func grants(table []Route) map[string]middleware.Grant {
	out := map[string]middleware.Grant{}
	for _, rt := range table {
		if rt.Grant != nil {
			out[middleware.GrantKey(rt.Method, APIPrefix+rt.Path)] = *rt.Grant
		}
	}
	return out
}

// BuildRouter mounts /health, /metrics and the route table under /api.
// Protected routes run session verification, the role gate and the
// ownership filter before their handlers.
func BuildRouter(d Deps) *gin.Engine {
	respond.UseJSONFieldNames()
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.Use(middleware.RequestLogger(d.Log))

	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				d.Log.WithError(err).Warn("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	table := routes(d.Handlers, d.Policy)
	gate := middleware.NewCasbinMW(d.Enforcer, d.Policy, grants(table), d.Metrics)
	protected := []gin.HandlerFunc{d.Auth.WithJWT(), gate.Enforce(), d.Ownership.Enforce()}

	api := r.Group(APIPrefix)
	for _, rt := range table {
		hs := rt.Handlers
		if !rt.Public {
			hs = append(append([]gin.HandlerFunc{}, protected...), rt.Handlers...)
		}
		api.Handle(rt.Method, rt.Path, hs...)
	}
	return r
}

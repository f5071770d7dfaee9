package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/infrastructure/logger"
	"github.com/erp/paysync/internal/interfaces/http/handler"
	"github.com/erp/paysync/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	basePath   string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath mounts every registrar under a prefix such as "/api/v1"
func WithBasePath(path string) RouterOption {
	return func(r *Router) {
		r.basePath = path
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	group := r.engine.Group("/" + trimSlashes(r.basePath))
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(group)
	}
}

func trimSlashes(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:       name,
		prefix:     prefix,
		routes:     make([]routeDefinition, 0),
		subgroups:  make([]*DomainGroup, 0),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: "GET", path: path, handlers: handlers})
	return dg
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: "POST", path: path, handlers: handlers})
	return dg
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)

	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		switch route.method {
		case "GET":
			group.GET(route.path, route.handlers...)
		case "POST":
			group.POST(route.path, route.handlers...)
		}
	}

	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers bundles everything the HTTP surface serves
type Handlers struct {
	System       *handler.SystemHandler
	Token        *handler.TokenHandler
	Counterparty *handler.CounterpartyHandler
	Document     *handler.DocumentHandler
	Sync         *handler.SyncHandler
	Auth         middleware.TokenValidator
}

// Config controls the engine middleware
type Config struct {
	ServiceName    string
	TracingEnabled bool
	MaxUploadSize  int64
	BasePath       string
}

// NewEngine builds the gin engine with the middleware chain and all routes
func NewEngine(cfg Config, h Handlers, log *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
	)
	middleware.SetupValidator()

	r := NewRouter(engine, WithBasePath(cfg.BasePath))
	for _, g := range Groups(cfg, h, log) {
		r.Register(g)
	}
	r.Setup()
	return engine
}

// Groups returns the route groups of the service
func Groups(cfg Config, h Handlers, log *zap.Logger) []*DomainGroup {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)
	system.GET("/token", h.Token.IssueToken)
	system.POST("/queryDocuments", h.Document.QueryDocuments)

	suppliers := NewDomainGroup("suppliers", "/suppliers")
	suppliers.GET("", h.Counterparty.List)
	suppliers.POST("/add", h.Counterparty.Add)
	suppliers.POST("/remove", h.Counterparty.Remove)
	if cfg.MaxUploadSize > 0 {
		suppliers.POST("/import", middleware.BodyLimit(cfg.MaxUploadSize), h.Counterparty.Import)
	} else {
		suppliers.POST("/import", h.Counterparty.Import)
	}

	sync := NewDomainGroup("sync", "/sync")
	sync.Use(middleware.TokenAuth(h.Auth, log))
	sync.POST("/run", h.Sync.Run)
	sync.GET("/jobs", h.Sync.Jobs)

	return []*DomainGroup{system, suppliers, sync}
}

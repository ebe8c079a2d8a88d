package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"mealplanner/internal/auth"
	"mealplanner/internal/cache"
	"mealplanner/internal/core"
	"mealplanner/internal/log"
	"mealplanner/internal/middleware/ratelimit"
	"mealplanner/internal/middleware/security"
	"mealplanner/internal/middleware/trace"
	"mealplanner/internal/services"
	appweb "mealplanner/web"
)

// Store is the persistence the handlers read and write.
type Store interface {
	Ping(ctx context.Context) error

	GetUserByID(ctx context.Context, id int64) (core.User, error)
	UpdatePreferences(ctx context.Context, userID int64, p core.Preferences) error

	CreateIngredient(ctx context.Context, in core.Ingredient) (core.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (core.Ingredient, error)
	ListIngredients(ctx context.Context, userID int64) ([]core.Ingredient, error)
	UpdateIngredient(ctx context.Context, in core.Ingredient) error
	DeleteIngredient(ctx context.Context, id int64) error

	CreateRecipe(ctx context.Context, in core.Recipe) (core.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (core.Recipe, error)
	ListRecipes(ctx context.Context, userID int64) ([]core.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error

	AddRecipeIngredient(ctx context.Context, in core.RecipeIngredient) (core.RecipeIngredient, error)
	GetRecipeIngredient(ctx context.Context, id int64) (core.RecipeIngredient, error)
	ListRecipeIngredients(ctx context.Context, recipeID int64) ([]core.RecipeIngredient, error)
	UpdateRecipeIngredient(ctx context.Context, in core.RecipeIngredient) error
	DeleteRecipeIngredient(ctx context.Context, id int64) error

	AddStep(ctx context.Context, in core.Step) (core.Step, error)
	GetStep(ctx context.Context, id int64) (core.Step, error)
	ListSteps(ctx context.Context, recipeID int64, kind core.StepKind) ([]core.Step, error)
	UpdateStep(ctx context.Context, in core.Step) error
	DeleteStep(ctx context.Context, id int64) error

	AddMeal(ctx context.Context, in core.Meal) (core.Meal, error)
	GetMeal(ctx context.Context, id int64) (core.Meal, error)
	ListMealsBetween(ctx context.Context, userID int64, from, to core.Date) ([]core.Meal, error)
	DeleteMeal(ctx context.Context, id int64) error
}

// CacheStats exposes the shopping list cache counters on /metrics.
type CacheStats interface {
	Stats() cache.Stats
}

// Config wires the server's collaborators.
type Config struct {
	Addr               string
	Store              Store
	Auth               *auth.Service
	Sessions           *auth.Sessions
	Shopping           *services.ShoppingListService
	ShoppingCache      CacheStats
	Logger             *log.Logger
	RateLimitPerMinute int
}

// appMetrics tracks application-specific counters
type appMetrics struct {
	listsServed      int64
	exportsRequested int64
	writes           int64
	uptime           time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	store     Store
	auth      *auth.Service
	sessions  *auth.Sessions
	shopping  *services.ShoppingListService
	listCache CacheStats
	logger    *log.Logger
	now       func() time.Time

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	headers          *security.HeadersMiddleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(cfg Config) *Server {
	base := cfg.Logger
	if base == nil {
		base = log.New(log.DefaultConfig())
	}
	logger := base.WithComponent(log.ComponentHTTP)

	limits := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		Server:           http.Server{Addr: cfg.Addr},
		store:            cfg.Store,
		auth:             cfg.Auth,
		sessions:         cfg.Sessions,
		shopping:         cfg.Shopping,
		listCache:        cfg.ShoppingCache,
		logger:           logger,
		now:              time.Now,
		securityDetector: security.NewDetector(logger),
		rateLimiter:      ratelimit.NewLimiter(limits),
		headers:          security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		appMetrics:       appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err, log.FieldComponent, log.ComponentTemplate)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth.RequireUser(h))
	}

	private("GET /{$}", s.handleIndex)

	private("GET /ingredients", s.handleIngredients)
	private("POST /ingredients", s.handleCreateIngredient)
	private("GET /ingredients/{id}/edit", s.handleEditIngredientForm)
	private("POST /ingredients/{id}/edit", s.handleUpdateIngredient)
	private("POST /ingredients/{id}/delete", s.handleDeleteIngredient)

	private("GET /recipes", s.handleRecipes)
	private("GET /recipes/new", s.handleNewRecipeForm)
	private("POST /recipes/new", s.handleCreateRecipe)
	private("GET /recipes/{id}", s.handleRecipe)
	private("POST /recipes/{id}/delete", s.handleDeleteRecipe)
	private("POST /recipes/{id}/ingredients", s.handleAddRecipeIngredient)
	private("GET /recipes/{id}/ingredients/{riid}/edit", s.handleEditRecipeIngredientForm)
	private("POST /recipes/{id}/ingredients/{riid}/edit", s.handleUpdateRecipeIngredient)
	private("POST /recipes/{id}/ingredients/{riid}/delete", s.handleDeleteRecipeIngredient)
	private("POST /recipes/{id}/steps", s.handleAddStep)
	private("GET /recipes/{id}/steps/{sid}/edit", s.handleEditStepForm)
	private("POST /recipes/{id}/steps/{sid}/edit", s.handleUpdateStep)
	private("POST /recipes/{id}/steps/{sid}/delete", s.handleDeleteStep)

	private("GET /calendar", s.handleCalendar)
	private("GET /day", s.handleDay)
	private("GET /meals/new", s.handleNewMealForm)
	private("POST /meals/new", s.handleCreateMeal)
	private("POST /meals/{id}/delete", s.handleDeleteMeal)

	private("GET /shopping-list", s.handleShoppingList)
	private("POST /shopping-list/export", s.handleExportShoppingList)

	private("GET /settings", s.handleSettingsForm)
	private("POST /settings", s.handleUpdateSettings)

	private("GET /units/{id}", s.handleUnits)

	var h http.Handler = mux
	h = s.sessions.Authenticate(h)
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.securityDetector.Middleware(h)
	h = s.headers.Middleware(h)
	h = log.ComponentMiddleware(log.ComponentHTTP)(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(base)(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many requests. Please try again in a minute.").
		BodyHTML(`<div class="error">Too many requests. Please try again in a minute.</div>`).
		Write(w)
}

// today is the current calendar day in the server's local time.
func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// changed records a write by userID and drops that user's cached lists.
func (s *Server) changed(userID int64) {
	atomic.AddInt64(&s.appMetrics.writes, 1)
	if s.shopping != nil {
		s.shopping.Invalidate(userID)
	}
}

// Shutdown gracefully shuts down the server and its background routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

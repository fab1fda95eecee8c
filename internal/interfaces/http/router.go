// Package http wires the broker API surface: flow authorization, structural
// management, and the websocket session endpoints.
package http

import (
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	actorusecases "github.com/cordon-zt/cordon/internal/application/actor/usecases"
	featureusecases "github.com/cordon-zt/cordon/internal/application/feature/usecases"
	flowusecases "github.com/cordon-zt/cordon/internal/application/flow/usecases"
	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/infrastructure/auth"
	"github.com/cordon-zt/cordon/internal/infrastructure/config"
	"github.com/cordon-zt/cordon/internal/infrastructure/permission"
	"github.com/cordon-zt/cordon/internal/infrastructure/presence"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/infrastructure/repository"
	"github.com/cordon-zt/cordon/internal/infrastructure/sessions"
	"github.com/cordon-zt/cordon/internal/interfaces/http/handlers"
	"github.com/cordon-zt/cordon/internal/interfaces/http/middleware"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/id"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// registerValidations installs the "shortid" binding rule so request structs
// can validate prefixed identifiers declaratively.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("shortid", func(fl validator.FieldLevel) bool {
			return id.Prefix(fl.Field().String()) != ""
		})
	}
}

// Deps carries the process-wide collaborators the router does not own.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Bus      pubsub.Bus
	Registry presence.Registry
	Hub      *sessions.Hub
	Logger   logger.Interface
}

// Router owns the gin engine and the handler graph behind it.
type Router struct {
	engine *gin.Engine

	authMiddleware *middleware.AuthMiddleware
	flowHandler    *handlers.FlowHandler
	policyHandler  *handlers.PolicyHandler
	actorHandler   *handlers.ActorHandler
	groupHandler   *handlers.GroupHandler
	featureHandler *handlers.FeatureHandler
	sessionHandler *handlers.SessionHandler

	logger logger.Interface
}

// NewRouter builds the repository, use case, and handler graph.
func NewRouter(deps Deps) (*Router, error) {
	log := deps.Logger

	registerValidations()

	actorRepo := repository.NewActorRepository(deps.DB, log)
	groupRepo := repository.NewActorGroupRepository(deps.DB, log)
	membershipRepo := repository.NewMembershipRepository(deps.DB, log)
	clientRepo := repository.NewClientRepository(deps.DB, log)
	resourceRepo := repository.NewResourceRepository(deps.DB, log)
	policyRepo := repository.NewPolicyRepository(deps.DB, log)
	flowRepo := repository.NewFlowRepository(deps.DB, log)
	gatewayRepo := repository.NewGatewayRepository(deps.DB, log)
	siteRepo := repository.NewSiteRepository(deps.DB, log)
	relayRepo := repository.NewRelayRepository(deps.DB, log)
	featureRepo := repository.NewFeatureRepository(deps.DB, log)
	tokenRepo := repository.NewTokenRepository(deps.DB, log)

	tokenService := auth.NewTokenService(deps.Config.Auth.TokenSecret, tokenRepo, log)
	hasher := auth.NewCredentialHasher(0)

	checker, err := permission.NewEnforcer(deps.DB, deps.Config.Auth.CasbinModelPath, actorRepo, log)
	if err != nil {
		return nil, err
	}

	txMgr := db.NewTransactionManager(deps.DB)
	online := presence.NewGatewayDirectory(deps.Registry)

	createFlowUC := flowusecases.NewCreateFlowUseCase(
		checker, clientRepo, resourceRepo, policyRepo, membershipRepo,
		gatewayRepo, siteRepo, relayRepo, featureRepo, flowRepo,
		online, deps.Bus, log,
	)
	reauthorizeFlowUC := flowusecases.NewReauthorizeFlowUseCase(
		clientRepo, resourceRepo, policyRepo, membershipRepo,
		gatewayRepo, flowRepo, online, deps.Bus, log,
	)
	expireFlowsUC := flowusecases.NewExpireFlowsUseCase(flowRepo, policyRepo, txMgr, deps.Bus, log)
	disablePolicyUC := flowusecases.NewDisablePolicyUseCase(
		checker, policyRepo, expireFlowsUC, reauthorizeFlowUC, txMgr, log,
	)

	disableActorUC := actorusecases.NewDisableActorUseCase(checker, actorRepo, expireFlowsUC, txMgr, log)
	deleteActorUC := actorusecases.NewDeleteActorUseCase(checker, actorRepo, expireFlowsUC, txMgr, log)
	addMemberUC := actorusecases.NewAddGroupMemberUseCase(checker, actorRepo, groupRepo, membershipRepo, deps.Bus, log)
	removeMemberUC := actorusecases.NewRemoveGroupMemberUseCase(
		checker, actorRepo, groupRepo, membershipRepo, expireFlowsUC, txMgr, deps.Bus, log,
	)

	featureEnabledUC := featureusecases.NewFeatureEnabledUseCase(featureRepo, log)
	setFeatureUC := featureusecases.NewSetFeatureUseCase(featureRepo, log)

	return &Router{
		engine:         gin.New(),
		authMiddleware: middleware.NewAuthMiddleware(tokenService, log),
		flowHandler:    handlers.NewFlowHandler(createFlowUC, log),
		policyHandler:  handlers.NewPolicyHandler(disablePolicyUC, log),
		actorHandler:   handlers.NewActorHandler(disableActorUC, deleteActorUC, log),
		groupHandler:   handlers.NewGroupHandler(addMemberUC, removeMemberUC, log),
		featureHandler: handlers.NewFeatureHandler(checker, featureEnabledUC, setFeatureUC, log),
		sessionHandler: handlers.NewSessionHandler(
			deps.Hub, deps.Bus, checker, clientRepo, gatewayRepo, relayRepo, hasher, log,
		),
		logger: log,
	}, nil
}

// SetupRoutes registers middleware and routes on the engine.
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.engine.Group("/v1")

	// Any actor-backed credential may reach the management surface; the
	// casbin role decides what it can actually do there.
	api := v1.Group("", r.authMiddleware.RequireAuth(""))
	{
		api.POST("/flows", r.flowHandler.CreateFlow)
		api.POST("/policies/:id/disable", r.policyHandler.DisablePolicy)
		api.POST("/actors/:id/disable", r.actorHandler.DisableActor)
		api.DELETE("/actors/:id", r.actorHandler.DeleteActor)
		api.PUT("/groups/:id/members/:actor_id", r.groupHandler.AddMember)
		api.DELETE("/groups/:id/members/:actor_id", r.groupHandler.RemoveMember)
		api.GET("/features/:key", r.featureHandler.GetFeature)
		api.PUT("/features/:key", r.featureHandler.SetFeature)
	}

	// Session endpoints are bound to the credential type that owns them.
	session := v1.Group("/session")
	{
		session.GET("/client", r.authMiddleware.RequireAuth(token.TypeClient), r.sessionHandler.ClientWS)
		session.GET("/gateway", r.authMiddleware.RequireAuth(token.TypeGatewayGroup), r.sessionHandler.GatewayWS)
		session.GET("/relay", r.authMiddleware.RequireAuth(token.TypeRelayGroup), r.sessionHandler.RelayWS)
	}
}

// Engine returns the configured gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

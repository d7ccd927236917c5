package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/adapter/notification"
	"onprem-cd/internal/adapter/sidecar"
	"onprem-cd/internal/api/handler"
	"onprem-cd/internal/api/middleware"
	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/core/heartbeat"
	"onprem-cd/internal/core/publisher"
	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/jwt"
	"onprem-cd/internal/pkg/ratelimit"
	"onprem-cd/internal/repository"
	"onprem-cd/internal/service"
)

// Dependencies 路由依赖的外部组件, 由 main 按配置创建
type Dependencies struct {
	DB       *gorm.DB
	Sidecar  sidecar.Client
	Store    blobstore.Store
	Notifier notification.Notifier
	// Limiter 为 nil 时 agent 接口不限流
	Limiter ratelimit.Limiter
}

// Setup 设置路由
func Setup(cfg *config.Config, deps *Dependencies, logger *zap.Logger) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	db := deps.DB

	// 初始化Repository
	projectRepo := repository.NewProjectRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	dependencyRepo := repository.NewDependencyRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	agentRepo := repository.NewAgentRepository(db)

	// chart 组装与发布
	repoClient := blobstore.NewRepoClient(deps.Store)
	assembler := chart.NewAssembler(chart.AgentTemplateFromConfig(&cfg.Agent))
	chartPublisher := publisher.New(versionRepo, deps.Sidecar, assembler, repoClient, deps.Notifier, logger)
	signer := jwt.NewSigner(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer)
	targets := service.NewTargetBuilder(subscriberRepo, signer)
	engine := heartbeat.NewEngine(cfg.Heartbeat.WindowDays, cfg.Heartbeat.GetLocation())

	// 初始化Service
	projectService := service.NewProjectService(projectRepo)
	versionService := service.NewVersionService(versionRepo, projectRepo, subscriberRepo, chartPublisher, assembler, targets, logger)
	workloadService := service.NewWorkloadService(serviceRepo, versionRepo)
	dependencyService := service.NewDependencyService(dependencyRepo, versionRepo)
	subscriberService := service.NewSubscriberService(subscriberRepo, projectRepo, versionRepo, agentRepo,
		chartPublisher, targets, signer, cfg.Server.PublicURL, logger)
	agentService := service.NewAgentService(agentRepo, subscriberRepo, versionRepo, repoClient, signer, engine, logger)
	helmRepoService := service.NewHelmRepoService(subscriberRepo, repoClient)

	// 初始化Handler
	projectHandler := handler.NewProjectHandler(projectService)
	versionHandler := handler.NewVersionHandler(versionService)
	serviceHandler := handler.NewServiceHandler(workloadService)
	dependencyHandler := handler.NewDependencyHandler(dependencyService)
	subscriberHandler := handler.NewSubscriberHandler(subscriberService, agentService)
	agentHandler := handler.NewAgentHandler(agentService)
	helmHandler := handler.NewHelmHandler(helmRepoService)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// agent 接口, 使用订阅方 token 认证
		agent := v1.Group("/agent")
		agent.Use(middleware.AgentAuthMiddleware(agentService))
		if deps.Limiter != nil {
			agent.Use(middleware.RateLimitMiddleware(deps.Limiter))
		}
		{
			agent.POST("/heartbeat", agentHandler.Heartbeat)
			agent.POST("/apply", agentHandler.Apply)
		}

		// 管理接口
		authed := v1.Group("")
		authed.Use(middleware.APITokenMiddleware(cfg.Auth.APIToken))
		{
			// 项目管理
			groupProject := authed.Group("/project")
			groupProjects := authed.Group("/projects")
			{
				groupProject.POST("", projectHandler.Create)       // 创建项目
				groupProjects.GET("", projectHandler.List)         // 列表查询（无参数返回全部，有分页参数返回分页数据）
				groupProject.GET("", projectHandler.GetByID)       // 获取详情
				groupProject.PUT("", projectHandler.Update)        // 更新项目
				groupProject.DELETE("/:id", projectHandler.Delete) // 删除项目
			}

			// 版本管理
			groupVersion := authed.Group("/version")
			groupVersions := authed.Group("/versions")
			{
				groupVersion.POST("", versionHandler.Create)
				groupVersions.GET("", versionHandler.List)
				groupVersion.GET("", versionHandler.GetByID)
				groupVersion.PUT("", versionHandler.Update)
				groupVersion.DELETE("/:id", versionHandler.Delete)
				groupVersion.GET("/compare", versionHandler.Compare)
				groupVersion.POST("/publish", versionHandler.Publish)
				groupVersion.POST("/unpublish", versionHandler.Unpublish)
				groupVersion.GET("/preview", versionHandler.Preview)
				groupVersion.GET("/values", versionHandler.ValuesPreview)
			}

			// 服务管理
			groupService := authed.Group("/service")
			groupServices := authed.Group("/services")
			{
				groupService.POST("", serviceHandler.Create)
				groupServices.GET("", serviceHandler.List)
				groupService.GET("", serviceHandler.GetByID)
				groupService.PUT("", serviceHandler.Update)
				groupService.DELETE("/:id", serviceHandler.Delete)
			}

			// 依赖管理
			groupDependency := authed.Group("/dependency")
			groupDependencies := authed.Group("/dependencies")
			{
				groupDependency.GET("/catalog", dependencyHandler.Catalog)
				groupDependency.POST("", dependencyHandler.Create)
				groupDependencies.GET("", dependencyHandler.List)
				groupDependency.GET("", dependencyHandler.GetByID)
				groupDependency.PUT("", dependencyHandler.Update)
				groupDependency.DELETE("/:id", dependencyHandler.Delete)
			}

			// 订阅方管理
			groupSubscriber := authed.Group("/subscriber")
			groupSubscribers := authed.Group("/subscribers")
			{
				groupSubscriber.POST("", subscriberHandler.Create)
				groupSubscribers.GET("", subscriberHandler.List)
				groupSubscriber.GET("", subscriberHandler.GetByID)
				groupSubscriber.PUT("", subscriberHandler.Update)
				groupSubscriber.DELETE("/:id", subscriberHandler.Delete)
				groupSubscriber.POST("/token", subscriberHandler.IssueToken)
				groupSubscriber.POST("/helm_user", subscriberHandler.CreateHelmUser)
				groupSubscriber.POST("/helm_user/delete", subscriberHandler.DeleteHelmUser)
				groupSubscriber.POST("/deploy", subscriberHandler.Deploy)
				groupSubscriber.GET("/status", subscriberHandler.Status)
			}
		}
	}

	// helm 仓库, basic auth
	helm := r.Group("/helm/:repo")
	helm.Use(middleware.HelmBasicAuthMiddleware(helmRepoService))
	{
		helm.GET("/:filename", helmHandler.Fetch)
		helm.HEAD("/:filename", helmHandler.Fetch)
		helm.POST("/*path", helmHandler.ReadOnly)
		helm.PUT("/*path", helmHandler.ReadOnly)
		helm.DELETE("/*path", helmHandler.ReadOnly)
	}

	return r
}

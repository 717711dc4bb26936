package app

import (
	"edu_tutor_backend/docs"
	"edu_tutor_backend/internal/config"
	"edu_tutor_backend/internal/middleware"
	"edu_tutor_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 成就标准目录
		authGroup.GET("/standards", c.standard.ListStandards)
		authGroup.GET("/standards/subjects", c.standard.ListSubjects)
		authGroup.GET("/standards/:id", c.standard.GetStandard)

		// 学习会话
		study := authGroup.Group("/study/sessions")
		{
			study.POST("", c.study.OpenSession)
			study.GET("/:id", c.study.GetSession)
			study.POST("/:id/ask", c.study.Ask)
			study.DELETE("/:id", c.study.CloseSession)
		}

		// 语音
		authGroup.POST("/speech/synthesize", c.speech.Synthesize)
		authGroup.GET("/speech/voices", c.speech.ListVoices)

		// 测验会话
		quiz := authGroup.Group("/quiz/sessions")
		{
			quiz.POST("", c.quiz.Generate)
			quiz.GET("/:id", c.quiz.GetSession)
			quiz.POST("/:id/select", c.quiz.SelectOption)
			quiz.PUT("/:id/draft", c.quiz.EditFreeText)
			quiz.POST("/:id/check", c.quiz.CheckAnswer)
			quiz.POST("/:id/evaluate", c.quiz.Evaluate)
			quiz.POST("/:id/grade", c.quiz.SelectGrade)
			quiz.POST("/:id/advance", c.quiz.Advance)
			quiz.POST("/:id/back", c.quiz.GoBack)
			quiz.POST("/:id/translation", c.quiz.ToggleTranslation)
		}

		// 历史成绩与仪表盘
		authGroup.GET("/results", c.result.ListResults)
		authGroup.GET("/results/:id", c.result.GetResult)
		authGroup.DELETE("/results/:id", c.result.DeleteResult)
		authGroup.GET("/dashboard", c.dashboard.GetDashboard)

		// 设置
		authGroup.GET("/settings", c.settings.GetSettings)
		authGroup.PUT("/settings/theme", c.settings.UpdateTheme)
		authGroup.POST("/settings/ai-key/validate", c.settings.ValidateAIKey)
	}
}

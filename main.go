// @title EduTutor 后端 API
// @version 1.0
// @description 基于成就标准的AI学习辅导服务后端。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"edu_tutor_backend/internal/app"
	"edu_tutor_backend/internal/config"
	"edu_tutor_backend/pkg/configwatcher"
	"edu_tutor_backend/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

func main() {
	watchConfig := flag.Bool("watch-config", false, "监听配置文件变更并热加载")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *watchConfig {
		go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
			// 进程内热更新仅覆盖可安全替换的部分
			application.Config.CORS = newCfg.CORS
			application.Config.RateLimit = newCfg.RateLimit
			logger.Log.Info("config reloaded", zap.Strings("allowed_origins", newCfg.CORS.AllowedOrigins))
		})
	}

	application.Run()
}

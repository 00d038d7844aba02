package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-app/src/config"
	"todo-app/src/database"
	"todo-app/src/handlers"
	infrarepo "todo-app/src/infrastructure/repository"
	"todo-app/src/interface/handler"
	"todo-app/src/logger"
	"todo-app/src/repository"
	"todo-app/src/routes"
	"todo-app/src/service"
	"todo-app/src/storage"
	"todo-app/src/usecase"
	"todo-app/src/validator"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// 設定を読み込み
	cfg := config.LoadConfig()

	// ロガーを初期化
	if err := logger.InitLogger(cfg.Log.Level); err != nil {
		panic(fmt.Sprintf("ロガーの初期化に失敗: %v", err))
	}
	defer logger.CloseLogger()

	logger.Log.Info("アプリケーションを開始しています")

	// カスタムバリデーションをGinのbindingエンジンに登録
	if err := validator.RegisterBindingValidations(); err != nil {
		logger.Log.WithError(err).Fatal("バリデーションの登録に失敗")
	}

	// データベースに接続
	db, err := database.NewDB(&cfg.Database, logger.Log)
	if err != nil {
		logger.Log.WithError(err).Fatal("データベース接続に失敗")
	}
	defer db.Close()

	// リポジトリ層
	taskRepo := infrarepo.NewTaskRepository(db, logger.Log)
	categoryRepo := infrarepo.NewCategoryRepository(db, logger.Log)
	userRepo := repository.NewUserRepository(db.DB)

	// サービス・ユースケース層
	jwtService := service.NewJWTService(cfg)
	authService := service.NewAuthService(userRepo, categoryRepo, jwtService, cfg, logger.Log)
	taskUsecase := usecase.NewTaskUsecase(taskRepo, categoryRepo, cfg.Task.DueSoonWindow)
	categoryUsecase := usecase.NewCategoryUsecase(categoryRepo)

	// ハンドラー層
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskUsecase, logger.Log)
	categoryHandler := handler.NewCategoryHandler(categoryUsecase, logger.Log)

	// S3アップローダーを初期化（設定が有効な場合）
	var uploader *storage.LogUploader
	scheduler := cron.New()
	if cfg.Log.UploadEnabled {
		s3Config := &storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
		}

		uploader, err = storage.NewLogUploader(s3Config, logger.Log)
		if err != nil {
			logger.Log.WithError(err).Error("S3アップローダーの初期化に失敗")
			uploader = nil
		} else {
			// 定期的なログアップロードをスケジュール
			spec := fmt.Sprintf("@every %s", cfg.Log.UploadInterval)
			if _, err := scheduler.AddFunc(spec, func() {
				logger.Log.Info("定期的なログアップロードを開始")
				if err := uploader.UploadOldLogs(cfg.Log.Directory, cfg.Log.UploadMaxAge); err != nil {
					logger.Log.WithError(err).Error("定期的なログアップロードに失敗")
				}
			}); err != nil {
				logger.Log.WithError(err).Error("ログアップロードのスケジュール登録に失敗")
			} else {
				scheduler.Start()
				logger.Log.WithFields(logrus.Fields{
					"interval": cfg.Log.UploadInterval,
					"maxAge":   cfg.Log.UploadMaxAge,
				}).Info("定期的なログアップロードを開始しました")
			}
		}
	}

	// Ginルーターを初期化
	r := gin.Default()

	// NoRouteハンドラー（404）
	r.NoRoute(func(c *gin.Context) {
		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"uri":       c.Request.RequestURI,
			"client_ip": c.ClientIP(),
		}).Warn("404: ルートが見つかりません")
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	// ヘルスチェック用のエンドポイント
	r.GET("/health", func(c *gin.Context) {
		logger.WithField("endpoint", "/health").Debug("ヘルスチェックエンドポイントにアクセス")
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "NG",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// APIルートを登録
	routes.SetupRoutes(r, authService, authHandler, taskHandler, categoryHandler)

	// グレースフルシャットダウンの設定
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Log.Info("シャットダウンシグナルを受信しました")

		scheduler.Stop()

		// 最後のログアップロードを実行
		if uploader != nil {
			logger.Log.Info("最後のログアップロードを実行中...")
			if err := uploader.UploadOldLogs(cfg.Log.Directory, 0); err != nil {
				logger.Log.WithError(err).Error("最後のログアップロードに失敗")
			}
		}

		db.Close()
		logger.CloseLogger()
		os.Exit(0)
	}()

	// サーバーを起動
	serverAddr := ":" + cfg.Server.Port
	logger.Log.WithField("port", cfg.Server.Port).Info("サーバーを開始します")

	if err := r.Run(serverAddr); err != nil {
		logger.Log.WithError(err).Fatal("サーバーの起動に失敗")
	}
}

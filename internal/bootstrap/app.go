package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"linkcraft/internal/config"
	"linkcraft/internal/model"
	mysqlClient "linkcraft/internal/platform/mysql"
	rabbitmqClient "linkcraft/internal/platform/rabbitmq"
	redisClient "linkcraft/internal/platform/redis"
	"linkcraft/internal/repository"
	"linkcraft/internal/worker"
)

type App struct {
	Config           *config.Config
	MySQL            *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	GenerationWorker *worker.GenerationPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.UserPost{},
		&model.UserPostEmbedding{},
		&model.ViralPost{},
		&model.ViralPostEmbedding{},
		&model.GenerationRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	generationRepo := repository.NewGenerationRepository(mysqlDB)
	generationWorker := worker.NewGenerationPersistWorker(mqConn, generationRepo, cfg.RabbitMQ.GenerationPersistQueue)
	if err := generationWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start generation worker failed: %w", err)
	}

	return &App{
		Config:           cfg,
		MySQL:            mysqlDB,
		Redis:            redisCli,
		MQConn:           mqConn,
		GenerationWorker: generationWorker,
		StartedAt:        time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.GenerationWorker != nil {
		a.GenerationWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

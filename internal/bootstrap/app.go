package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	appsvc "msgboard/internal/app"
	"msgboard/internal/config"
	"msgboard/internal/notify"
	kafkaClient "msgboard/internal/platform/kafka"
	mongoClient "msgboard/internal/platform/mongo"
	rabbitmqClient "msgboard/internal/platform/rabbitmq"
	redisClient "msgboard/internal/platform/redis"
	"msgboard/internal/platform/sqldb"
	"msgboard/internal/pkg/logging"
	"msgboard/internal/repository"
	"msgboard/internal/worker"
)

type App struct {
	Config *config.Config
	Log    *logrus.Logger

	Mongo  *mongo.Database
	SQL    *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	Kafka  *notify.KafkaBroker

	Users    appsvc.UserRepository
	Messages appsvc.MessageRepository

	Hub       *notify.Hub
	Publisher notify.Publisher
	Relay     *worker.NotificationRelayWorker

	StartedAt time.Time
}

// Dependency is an external system reported by the health check.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, logging.New(cfg.Log.Level))
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Log:       log,
		StartedAt: time.Now(),
	}

	if err := a.openStorage(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.openNotify(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"storage": cfg.Storage.Driver,
		"notify":  cfg.Notify.Driver,
	}).Info("dependencies ready")
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case "mongo":
		db, err := mongoClient.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		a.Mongo = db

		users := repository.NewMongoUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		messages := repository.NewMongoMessageRepository(db)
		if err := messages.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.Users, a.Messages = users, messages
		return nil

	case sqldb.DriverMySQL, sqldb.DriverSQLite:
		opts := sqldb.Options{Driver: cfg.Storage.Driver, DSN: cfg.SQLite.Path}
		if cfg.Storage.Driver == sqldb.DriverMySQL {
			opts = sqldb.Options{Driver: sqldb.DriverMySQL, DSN: cfg.MySQLDSN(), Debug: cfg.MySQL.Debug}
		}
		db, err := sqldb.New(ctx, opts)
		if err != nil {
			return err
		}
		a.SQL = db

		if err := db.WithContext(ctx).AutoMigrate(repository.SQLModels()...); err != nil {
			return fmt.Errorf("auto migrate tables failed: %w", err)
		}
		a.Users = repository.NewSQLUserRepository(db)
		a.Messages = repository.NewSQLMessageRepository(db)
		return nil

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) openNotify(ctx context.Context) error {
	cfg := a.Config
	a.Hub = notify.NewHub(cfg.Notify.ListenerBuffer, a.Log)

	var (
		publisher notify.Publisher
		relay     notify.Relayer
	)
	switch cfg.Notify.Driver {
	case "memory":
		publisher = a.Hub

	case "redis":
		client, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		a.Redis = client
		broker := notify.NewRedisBroker(client, cfg.Redis.Channel, a.Log)
		publisher, relay = broker, broker

	case "rabbitmq":
		conn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		a.MQConn = conn
		broker := notify.NewRabbitMQBroker(conn, cfg.RabbitMQ.Exchange, a.Log)
		publisher, relay = broker, broker

	case "kafka":
		brokers := kafkaClient.Brokers(cfg.Kafka.Brokers)
		if err := kafkaClient.Ping(ctx, brokers); err != nil {
			return err
		}
		groupID := cfg.Kafka.GroupPrefix + "-" + uuid.NewString()
		a.Kafka = notify.NewKafkaBroker(kafkaClient.NewWriter(brokers, cfg.Kafka.Topic), brokers, cfg.Kafka.Topic, groupID, a.Log)
		publisher, relay = a.Kafka, a.Kafka

	default:
		return fmt.Errorf("unknown notify driver %q", cfg.Notify.Driver)
	}

	a.Publisher = notify.Instrument(publisher, cfg.Notify.Driver)
	if relay != nil {
		a.Relay = worker.NewNotificationRelayWorker(relay, a.Hub, a.Log)
		a.Relay.Start(context.WithoutCancel(ctx))
	}
	return nil
}

func (a *App) Dependencies() []Dependency {
	var deps []Dependency
	if a.Mongo != nil {
		deps = append(deps, Dependency{Name: "mongo", Check: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, a.Mongo.Client())
		}})
	}
	if a.SQL != nil {
		deps = append(deps, Dependency{Name: a.Config.Storage.Driver, Check: func(ctx context.Context) error {
			return sqldb.Ping(ctx, a.SQL)
		}})
	}
	if a.Redis != nil {
		deps = append(deps, Dependency{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx, a.Redis)
		}})
	}
	if a.MQConn != nil {
		deps = append(deps, Dependency{Name: "rabbitmq", Check: func(context.Context) error {
			return rabbitmqClient.Ping(a.MQConn)
		}})
	}
	if a.Kafka != nil {
		brokers := kafkaClient.Brokers(a.Config.Kafka.Brokers)
		deps = append(deps, Dependency{Name: "kafka", Check: func(ctx context.Context) error {
			return kafkaClient.Ping(ctx, brokers)
		}})
	}
	return deps
}

// Close stops the relay before closing the connections it reads from, then
// ends every listener subscription.
func (a *App) Close() error {
	var errs []error
	if a.Relay != nil {
		a.Relay.Close()
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Kafka != nil {
		errs = append(errs, a.Kafka.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		errs = append(errs, a.MQConn.Close())
	}
	if a.SQL != nil {
		errs = append(errs, sqldb.Close(a.SQL))
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.Mongo.Client().Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// Package factory constructs and owns every application dependency:
// config, clients, managers, repositories and services. main builds one
// Factory and hands its services to the router.
package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"delivery-service/internal/audit"
	"delivery-service/internal/bucketing"
	"delivery-service/internal/client"
	"delivery-service/internal/config"
	"delivery-service/internal/hashing"
	"delivery-service/internal/model"
	"delivery-service/internal/notify"
	"delivery-service/internal/repository/memory"
	redisrepo "delivery-service/internal/repository/redis"
	"delivery-service/internal/repository/scylla"
	"delivery-service/internal/search"
	"delivery-service/internal/service"
	"delivery-service/internal/tls"
	"delivery-service/internal/token"
	"delivery-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	// Clients
	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	// Managers
	hasher           *hashing.Hasher
	bucketingManager *bucketing.BucketingManager
	tokenManager     *token.Manager
	keyedLocks       *service.KeyedLocks

	// Repositories and collaborators
	statusRepo    model.StatusRepository
	otpRepo       model.OTPRepository
	parcelRepo    model.ParcelRepository
	boxRepo       model.BoxRepository
	userRepo      model.UserRepository
	otpCache      model.OTPCache
	auditRecorder model.AuditRecorder
	notifier      model.ServiceProviderNotifier
	eventIndexer  model.EventIndexer

	// Services
	otpService       *service.OTPService
	trackingService  *service.TrackingService
	logisticsService *service.LogisticsService
	authService      *service.AuthService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		factory.tlsManager = tls.NewManager(&tls.Config{
			EnableTLS:   cfg.Server.EnableTLS,
			AutoCert:    cfg.Server.AutoCert,
			Domain:      cfg.Server.Domain,
			CertFile:    cfg.Server.CertFile,
			KeyFile:     cfg.Server.KeyFile,
			AutoCertDir: cfg.Server.AutoCertDir,
			Email:       cfg.Server.Email,
			Environment: cfg.Environment,
		})
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeManagers()

	if err := factory.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	factory.initializeServices()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("storage_backend", cfg.Storage.Backend),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
	)

	return factory, nil
}

// initializeClients initializes external service clients with health checks.
// The memory backend skips every client.
func (f *Factory) initializeClients() error {
	if f.config.Storage.Backend == "memory" {
		util.Info("Memory storage backend selected, skipping external clients")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// ScyllaDB is the system of record and always required
	scyllaClient, err := scylla.NewScyllaClient(f.config, util.Get())
	if err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = scyllaClient
		if err := f.scyllaClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("scylla health check: %w", err))
		} else {
			util.Info("ScyllaDB client initialized and healthy")
		}
	}

	if f.config.Redis.Enabled {
		redisClient, err := client.NewRedisClient(f.config, util.Get())
		if err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
		} else {
			f.redisClient = redisClient
			if err := f.redisClient.HealthCheck(ctx); err != nil {
				initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
			} else {
				util.Info("Redis client initialized and healthy")
			}
		}
	}

	if f.config.Kafka.Enabled {
		producer, err := client.NewKafkaProducer(f.config, util.Get())
		if err != nil {
			util.Warn("Kafka producer initialization failed, proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
			util.Info("Kafka producer initialized")
		}
	}

	if f.config.Elasticsearch.Enabled {
		esClient, err := client.NewElasticsearchClient(f.config, util.Get())
		if err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
		} else {
			f.esClient = esClient
			if err := f.esClient.HealthCheck(); err != nil {
				initErrors = append(initErrors, fmt.Errorf("elasticsearch health check: %w", err))
			} else {
				util.Info("Elasticsearch client initialized and healthy")
			}
		}
	}

	if f.config.Clickhouse.Enabled {
		chClient, err := client.NewClickHouseClient(f.config, util.Get())
		if err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
		} else {
			f.clickhouseClient = chClient
			if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
				initErrors = append(initErrors, fmt.Errorf("clickhouse health check: %w", err))
			} else {
				util.Info("ClickHouse client initialized and healthy")
			}
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

func (f *Factory) initializeManagers() {
	f.hasher = hashing.NewHasher(f.config)
	f.bucketingManager = bucketing.NewBucketingManager(f.config)
	f.tokenManager = token.NewManager(f.config)
	f.keyedLocks = service.NewKeyedLocks(f.bucketingManager)

	if f.config.IsProduction() {
		f.hasher.StartPepperRotation()
	}

	util.Info("Managers initialized successfully",
		util.Int("lock_shards", f.bucketingManager.LockShards()))
}

// initializeRepositories picks backing stores per backend and flags.
// Anything disabled degrades to an in-process implementation.
func (f *Factory) initializeRepositories() error {
	if f.config.Storage.Backend == "memory" || f.scyllaClient == nil {
		f.statusRepo = memory.NewStatusRepository()
		f.otpRepo = memory.NewOTPRepository()
		f.parcelRepo = memory.NewParcelRepository()
		f.boxRepo = memory.NewBoxRepository()
		f.userRepo = memory.NewUserRepository()
	} else {
		f.statusRepo = scylla.NewStatusRepository(f.scyllaClient, util.Get())
		f.otpRepo = scylla.NewOTPRepository(f.scyllaClient, util.Get())
		f.parcelRepo = scylla.NewParcelRepository(f.scyllaClient, util.Get())
		f.boxRepo = scylla.NewBoxRepository(f.scyllaClient, util.Get())
		f.userRepo = scylla.NewUserRepository(f.scyllaClient, f.bucketingManager, util.Get())
	}

	if f.redisClient != nil {
		f.otpCache = redisrepo.NewOTPCache(f.redisClient)
	} else {
		f.otpCache = memory.NewOTPCache()
	}

	if f.clickhouseClient != nil {
		recorder := audit.NewClickHouseRecorder(f.clickhouseClient)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.EnsureSchema(ctx); err != nil {
			if f.config.IsProduction() {
				return err
			}
			util.Warn("ClickHouse audit schema setup failed, using memory recorder", util.ErrorField(err))
			f.auditRecorder = memory.NewAuditRecorder()
		} else {
			f.auditRecorder = recorder
		}
	} else {
		f.auditRecorder = memory.NewAuditRecorder()
	}

	if f.kafkaProducer != nil {
		f.notifier = notify.NewKafkaNotifier(f.kafkaProducer, f.config.Kafka.NotifyTopic)
	} else {
		f.notifier = notify.NewLogNotifier()
	}

	if f.esClient != nil {
		f.eventIndexer = search.NewEventIndexer(f.esClient, f.config.Elasticsearch.EventsIndex)
	}

	return nil
}

func (f *Factory) initializeServices() {
	f.otpService = service.NewOTPService(f.otpRepo, f.otpCache, f.auditRecorder, f.notifier,
		f.keyedLocks, f.config.OTP)
	f.trackingService = service.NewTrackingService(f.statusRepo, f.eventIndexer, f.keyedLocks)
	f.logisticsService = service.NewLogisticsService(f.parcelRepo, f.boxRepo)
	f.authService = service.NewAuthService(f.userRepo, f.hasher, f.tokenManager, f.keyedLocks)
}

// ==============================
// Accessors
// ==============================

func (f *Factory) Config() *config.Config          { return f.config }
func (f *Factory) TLSManager() *tls.Manager        { return f.tlsManager }
func (f *Factory) OTPService() *service.OTPService { return f.otpService }
func (f *Factory) TrackingService() *service.TrackingService {
	return f.trackingService
}
func (f *Factory) LogisticsService() *service.LogisticsService {
	return f.logisticsService
}
func (f *Factory) AuthService() *service.AuthService { return f.authService }

// ==============================
// Health Checks
// ==============================

// HealthCheck fans out to every initialized client. The returned map has
// one entry per dependency; an empty string means healthy.
func (f *Factory) HealthCheck(ctx context.Context) map[string]string {
	var mu sync.Mutex
	statuses := make(map[string]string)

	report := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			statuses[name] = err.Error()
		} else {
			statuses[name] = ""
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if f.scyllaClient != nil {
		g.Go(func() error {
			report("scylla", f.scyllaClient.HealthCheck())
			return nil
		})
	}
	if f.redisClient != nil {
		g.Go(func() error {
			report("redis", f.redisClient.HealthCheck(gctx))
			return nil
		})
	}
	if f.kafkaProducer != nil {
		g.Go(func() error {
			report("kafka", f.kafkaProducer.HealthCheck(gctx))
			return nil
		})
	}
	if f.esClient != nil {
		g.Go(func() error {
			report("elasticsearch", f.esClient.HealthCheck())
			return nil
		})
	}
	if f.clickhouseClient != nil {
		g.Go(func() error {
			report("clickhouse", f.clickhouseClient.HealthCheck(gctx))
			return nil
		})
	}

	_ = g.Wait()
	return statuses
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			} else {
				util.Info("ClickHouse client closed")
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
			util.Info("Elasticsearch client closed")
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.scyllaClient != nil {
			f.scyllaClient.Close()
			util.Info("ScyllaDB client closed")
		}

		util.Sync()
	})
	return nil
}

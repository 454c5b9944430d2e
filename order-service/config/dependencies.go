package config

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/order-service/handlers"
	"github.com/draftea/order-system/order-service/infrastructure"
	sharedinfra "github.com/draftea/order-system/shared/infrastructure"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	SagaRepository        *infrastructure.PostgresSagaRepository
	OrderRecordRepository *infrastructure.PostgresOrderRecordRepository

	// Scheduler
	TimeoutScheduler *infrastructure.SQSTimeoutScheduler

	// Use Cases
	SubmitOrder        *application.SubmitOrder
	StartOrderSaga     *application.StartOrderSaga
	AdvanceOrderSaga   *application.AdvanceOrderSaga
	RecordOrderOutcome *application.RecordOrderOutcome
	GetOrderStatus     *application.GetOrderStatus

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers

	// Infrastructure
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
			// Continue without telemetry rather than failing
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	deps.DB = db

	// Initialize AWS infrastructure
	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	// Timeouts are delayed self-messages on the service's own queue
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	deps.TimeoutScheduler = infrastructure.NewSQSTimeoutScheduler(sqs.NewFromConfig(awsCfg), config.AWS.SQSQueueURL)

	// Initialize repositories
	deps.SagaRepository = infrastructure.NewPostgresSagaRepository(db)
	deps.OrderRecordRepository = infrastructure.NewPostgresOrderRecordRepository(db)

	// Initialize use cases
	deps.SubmitOrder = application.NewSubmitOrder(eventPublisher)
	deps.StartOrderSaga = application.NewStartOrderSaga(deps.SagaRepository, deps.TimeoutScheduler, eventPublisher, config.SagaTimeout())
	deps.AdvanceOrderSaga = application.NewAdvanceOrderSaga(deps.SagaRepository, deps.TimeoutScheduler, eventPublisher, config.SagaTimeout())
	deps.RecordOrderOutcome = application.NewRecordOrderOutcome(deps.OrderRecordRepository)
	deps.GetOrderStatus = application.NewGetOrderStatus(deps.OrderRecordRepository, deps.SagaRepository)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.SubmitOrder, deps.GetOrderStatus)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(
		deps.StartOrderSaga,
		deps.AdvanceOrderSaga,
		deps.RecordOrderOutcome,
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}

//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/roomdesk/service-reservation/internal/application"
	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	reservationEvents "github.com/roomdesk/service-reservation/internal/events"
	"github.com/roomdesk/service-reservation/internal/repository"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/database"
	"github.com/roomdesk/service-reservation/pkg/events"
	"github.com/roomdesk/service-reservation/pkg/kafka"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// reservationStack holds the wired services backed by Postgres and Kafka.
type reservationStack struct {
	Reservations    *application.ReservationService
	Rooms           *application.RoomService
	Users           *application.UserService
	Consumer        *reservationEvents.FacilityEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_reservation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pgConfig := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_reservation",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(pgConfig.DSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	// Same schema the server applies outside development.
	require.NoError(t, database.RunMigrations(pgConfig.DatabaseURL(), "migrations", zap.NewNop()))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicReservationEvents, events.TopicFacilityEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupReservationStack wires the real repositories, transactor and services.
func setupReservationStack(t *testing.T, db *gorm.DB, brokers []string) *reservationStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	tx := repository.NewGormTransactor(db)
	roomRepo := repository.NewGormRoomRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	reservationRepo := repository.NewGormReservationRepository(db)
	producer := kafka.NewProducer(brokers, logger)

	roomSvc := application.NewRoomService(tx, roomRepo, reservationRepo, logger)
	userSvc := application.NewUserService(userRepo, reservationRepo, auth.NewBcryptHasher(bcrypt.MinCost), logger)
	reservationSvc := application.NewReservationService(
		tx, reservationRepo, roomRepo, userRepo,
		reservationDomain.NewHourlyPricingStrategy(), producer, logger,
	)

	groupID := fmt.Sprintf("test-reservation-%s", uuid.New().String()[:8])
	consumer := reservationEvents.NewFacilityEventConsumer(brokers, groupID, roomSvc, logger)

	return &reservationStack{
		Reservations:    reservationSvc,
		Rooms:           roomSvc,
		Users:           userSvc,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedRoom creates an AVAILABLE room through the service.
func seedRoom(t *testing.T, stack *reservationStack, name string, priceCents int64) application.RoomDTO {
	t.Helper()
	room, err := stack.Rooms.CreateRoom(context.Background(), application.CreateRoomRequest{
		Name:       name,
		RoomNumber: fmt.Sprintf("R-%s", uuid.New().String()[:6]),
		Location:   "Floor 2",
		Capacity:   8,
		PriceCents: priceCents,
	})
	require.NoError(t, err, "failed to seed room")
	return *room
}

// seedUser registers a customer through the service.
func seedUser(t *testing.T, stack *reservationStack) application.UserDTO {
	t.Helper()
	user, err := stack.Users.CreateUser(context.Background(), application.CreateUserRequest{
		Name:     "Ada",
		LastName: "Lovelace",
		Username: fmt.Sprintf("ada-%s", uuid.New().String()[:8]),
		Password: "correct-horse",
	}, false)
	require.NoError(t, err, "failed to seed user")
	return *user
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForRoomStatus polls the rooms table until the status matches.
func waitForRoomStatus(t *testing.T, db *gorm.DB, roomID uuid.UUID, expectedStatus string, timeout time.Duration) repository.RoomModel {
	t.Helper()
	var result repository.RoomModel
	require.Eventually(t, func() bool {
		var model repository.RoomModel
		if err := db.Where("id = ?", roomID).First(&model).Error; err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "room did not transition to %s", expectedStatus)
	return result
}

// consumeEvent reads from a Kafka topic until it finds an event matching the
// type and subject.
func consumeEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && ce.Subject == subject {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	time.Sleep(1 * time.Second)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jlim0255-workship/AWS-EventBookingApp/config"
	"github.com/jlim0255-workship/AWS-EventBookingApp/dynamodb"
	"github.com/jlim0255-workship/AWS-EventBookingApp/postgres"
	"github.com/jlim0255-workship/AWS-EventBookingApp/sqs"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

// stores holds the process-wide store handles. Each handle is created on
// first use and lives until close.
type stores struct {
	cfg    *config.Config
	logger types.Logger

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error

	attendanceOnce sync.Once
	attendance     *dynamodb.Client
	attendanceErr  error

	eventsOnce sync.Once
	events     *postgres.Client
	eventsErr  error

	notifierOnce sync.Once
	notifier     *sqs.Publisher
	notifierErr  error
}

func newStores(cfg *config.Config, logger types.Logger) *stores {
	return &stores{cfg: cfg, logger: logger}
}

func (s *stores) awsConfig(ctx context.Context) (aws.Config, error) {
	s.awsOnce.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if s.cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(s.cfg.AWSRegion))
		}

		s.awsCfg, s.awsErr = awsconfig.LoadDefaultConfig(ctx, opts...)
		if s.awsErr != nil {
			s.awsErr = fmt.Errorf("failed to load AWS config: %w", s.awsErr)
		}
	})

	return s.awsCfg, s.awsErr
}

// Attendance returns the DynamoDB attendance store, validating its table on
// first use.
func (s *stores) Attendance(ctx context.Context) (*dynamodb.Client, error) {
	s.attendanceOnce.Do(func() {
		awsCfg, err := s.awsConfig(ctx)
		if err != nil {
			s.attendanceErr = err
			return
		}

		var opts []dynamodb.Option
		if s.cfg.DynamoDBEndpoint != "" {
			opts = append(opts, dynamodb.WithEndpoint(s.cfg.DynamoDBEndpoint))
		}

		client := dynamodb.New(&awsCfg, s.cfg.DynamoDBTable, opts...)

		if err := client.Connect(); err != nil {
			s.attendanceErr = err
			return
		}

		if err := client.Init(ctx, s.cfg.SkipSchemaValidation); err != nil {
			s.attendanceErr = fmt.Errorf("failed to initialize DynamoDB table: %w", err)
			return
		}

		s.logger.WithField("table", s.cfg.DynamoDBTable).Info("Attendance store ready")
		s.attendance = client
	})

	return s.attendance, s.attendanceErr
}

// Events returns the Postgres events store, creating its table on first use.
func (s *stores) Events(ctx context.Context) (*postgres.Client, error) {
	s.eventsOnce.Do(func() {
		client := postgres.New(
			postgres.WithHost(s.cfg.PostgresHost),
			postgres.WithPort(s.cfg.PostgresPort),
			postgres.WithUser(s.cfg.PostgresUser),
			postgres.WithPassword(s.cfg.PostgresPassword),
			postgres.WithDatabase(s.cfg.PostgresDatabase),
			postgres.WithSSLMode(postgres.SSLMode(s.cfg.PostgresSSLMode)),
			postgres.WithEventsTable(s.cfg.PostgresEventsTable),
		)

		if err := client.Connect(ctx); err != nil {
			s.eventsErr = err
			return
		}

		if err := client.Init(ctx, s.cfg.SkipSchemaValidation); err != nil {
			_ = client.Close(ctx)
			s.eventsErr = fmt.Errorf("failed to initialize events table: %w", err)
			return
		}

		s.logger.WithField("table", s.cfg.PostgresEventsTable).Info("Events store ready")
		s.events = client
	})

	return s.events, s.eventsErr
}

// Notifier returns the SQS publisher, or nil when notifications are
// disabled.
func (s *stores) Notifier(ctx context.Context) (*sqs.Publisher, error) {
	s.notifierOnce.Do(func() {
		if !s.cfg.NotificationsEnabled() {
			s.logger.Info("RSVP notifications disabled (SQS_QUEUE_NAME not set)")
			return
		}

		awsCfg, err := s.awsConfig(ctx)
		if err != nil {
			s.notifierErr = err
			return
		}

		var opts []sqs.Option
		if s.cfg.SQSEndpoint != "" {
			opts = append(opts, sqs.WithEndpoint(s.cfg.SQSEndpoint))
		}

		publisher, err := sqs.New(&awsCfg, s.cfg.SQSQueueName, s.logger, opts...).Init(ctx)
		if err != nil {
			s.notifierErr = err
			return
		}

		s.logger.WithField("queue_name", s.cfg.SQSQueueName).Info("RSVP notifications enabled")
		s.notifier = publisher
	})

	return s.notifier, s.notifierErr
}

// Close releases every handle that was created.
func (s *stores) Close(ctx context.Context) error {
	var errs []error

	if s.events != nil {
		if err := s.events.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close events store: %w", err))
		}
	}

	return errors.Join(errs...)
}

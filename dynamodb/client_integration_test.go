//go:build integration

package dynamodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/config"
	dynamodb "github.com/jlim0255-workship/AWS-EventBookingApp/dynamodb"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types/storetests"
)

var client *dynamodb.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	region := os.Getenv("AWS_REGION")
	tableName := os.Getenv("DYNAMODB_TABLE_NAME")

	if region == "" || tableName == "" {
		fmt.Fprintln(os.Stderr, "AWS_REGION and DYNAMODB_TABLE_NAME environment variables must be set for integration tests")
		os.Exit(1)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts := []dynamodb.Option{}
	if endpoint := os.Getenv("DYNAMODB_ENDPOINT"); endpoint != "" {
		opts = append(opts, dynamodb.WithEndpoint(endpoint))
	}

	c := dynamodb.New(&awsCfg, tableName, opts...)

	// Verify that the client implements the types.AttendanceStore interface
	var _ types.AttendanceStore = c

	err = c.Connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = c.Init(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Ensure the table is clean before running tests
	err = c.DropAllData(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to delete all items: %w", err))
		os.Exit(1)
	}

	client = c

	code := m.Run()

	os.Exit(code)
}

func TestSubmitRSVP(t *testing.T) {
	storetests.TestSubmitRSVP(t, client)
}

func TestGetCountsDefaultsToZero(t *testing.T) {
	storetests.TestGetCountsDefaultsToZero(t, client)
}

func TestListAttendees(t *testing.T) {
	storetests.TestListAttendees(t, client)
}

func TestConcurrentSubmissions(t *testing.T) {
	storetests.TestConcurrentSubmissions(t, client)
}

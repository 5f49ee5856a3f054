// Package notify delivers variance alerts to on-call staff.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"go-fuelstation-pos/internal/service"
)

// snsAPI is the part of *sns.Client the publisher needs
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes alerts to one SNS topic.
type SNSPublisher struct {
	svc      snsAPI
	topicArn string
	log      *zap.Logger
}

// NewSNSPublisher loads the default AWS config for region.
func NewSNSPublisher(ctx context.Context, region, topicArn string, log *zap.Logger) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &SNSPublisher{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
		log:      log.Named("sns"),
	}, nil
}

func (p *SNSPublisher) PublishAlert(ctx context.Context, alert service.Alert) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Subject:  aws.String(truncate(alert.Subject, 100)),
		Message:  aws.String(alert.Message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(alert.Severity),
			},
			"station_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(alert.StationID.String()),
			},
		},
	}

	result, err := p.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	p.log.Info("alert sent",
		zap.String("message_id", aws.ToString(result.MessageId)),
		zap.String("shift_id", alert.ShiftID.String()),
		zap.String("severity", alert.Severity))
	return nil
}

// SNS rejects subjects longer than 100 characters
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// LogPublisher writes alerts to the log; used when cloud services are off.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("alert")}
}

func (p *LogPublisher) PublishAlert(_ context.Context, alert service.Alert) error {
	p.log.Warn(alert.Subject,
		zap.String("station_id", alert.StationID.String()),
		zap.String("shift_id", alert.ShiftID.String()),
		zap.String("severity", alert.Severity),
		zap.String("message", alert.Message))
	return nil
}

// Package notifications hands applicant notifications to a message
// transport. Delivery to the applicant happens downstream of the topic.
package notifications

import (
	"context"
	"errors"
	"strings"

	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	RecipientAttribute = "recipient"
	DefaultSubject     = "Application update"
)

var ErrMissingTopic = errors.New("sns topic arn is required")

// SNSService is the subset of the SNS API the client needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes each notification to one topic, tagging it with the
// recipient so subscribers can route it.
type SNSClient struct {
	sns      SNSService
	topicARN string
	subject  string
	logger   logger.Logger
}

func NewSNSClient(svc SNSService, topicARN, subject string, log logger.Logger) (*SNSClient, error) {
	if strings.TrimSpace(topicARN) == "" {
		return nil, ErrMissingTopic
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SNSClient{sns: svc, topicARN: topicARN, subject: subject, logger: log}, nil
}

func (c *SNSClient) NotifyUser(ctx context.Context, name, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicARN),
		Message:  aws.String(message),
		Subject:  aws.String(c.subject),
		MessageAttributes: map[string]types.MessageAttributeValue{
			RecipientAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(name),
			},
		},
	}

	out, err := c.sns.Publish(ctx, input)
	if err != nil {
		c.logger.Warn("sns publish failed", map[string]interface{}{
			"recipient": name,
			"topicArn":  c.topicARN,
			"error":     err,
		})
		return apperrors.NewNotificationSendFailedError(name, err)
	}

	c.logger.Debug("notification published", map[string]interface{}{
		"recipient": name,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}

// LogClient writes notifications to the log only. It is used when no
// topic is configured.
type LogClient struct {
	logger logger.Logger
}

func NewLogClient(log logger.Logger) *LogClient {
	return &LogClient{logger: log}
}

func (c *LogClient) NotifyUser(_ context.Context, name, message string) error {
	c.logger.Info("notification", map[string]interface{}{
		"recipient": name,
		"message":   message,
	})
	return nil
}

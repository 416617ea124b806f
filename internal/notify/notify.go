// Package notify publishes end-of-run deploy reports. Only runs with
// failed keys notify; a clean deploy stays quiet.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/mdn/stumptown-deployer/internal/logging"
)

type Notifier interface {
	NotifyDeployResults(ctx context.Context, deploymentName string, summary logging.Summary) error
}

// SNSAPI is the slice of the SNS client the notifier needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSNotifier struct {
	Client SNSAPI
	Topic  string
}

func NewSNSNotifier(cfg aws.Config, topic string) *SNSNotifier {
	return &SNSNotifier{
		Client: sns.NewFromConfig(cfg),
		Topic:  topic,
	}
}

func (n *SNSNotifier) NotifyDeployResults(ctx context.Context, deploymentName string, summary logging.Summary) error {
	if summary.Failed == 0 {
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Deploy %s finished with %d failed uploads.\n\n", deploymentName, summary.Failed)
	fmt.Fprintf(&body, "Uploaded: %d new, %d changed\n", summary.Uploaded, summary.Updated)
	fmt.Fprintf(&body, "Redirects: %d\nSkipped: %d\n\nFailed keys:\n", summary.Redirects, summary.Skipped)
	for _, key := range summary.FailedKeys {
		fmt.Fprintf(&body, "  %s\n", key)
	}
	body.WriteString("\nRerunning the deploy retries only the failed keys.\n")

	_, err := n.Client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.Topic),
		Subject:  aws.String(fmt.Sprintf("Deploy failures: %s", deploymentName)),
		Message:  aws.String(body.String()),
	})
	return err
}

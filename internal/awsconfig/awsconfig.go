// Package awsconfig resolves the single aws.Config shared by every AWS-backed
// port: the OCR port's awsocr backend and the LLM port's bedrock backend.
// Both defer to the default credential chain (environment, shared config,
// IAM role) rather than accepting long-lived keys directly, mirroring how
// the original Python service fell back to boto3's default resolution when
// explicit keys were absent.
package awsconfig

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
)

// Resolve loads an aws.Config for region, using the default credential
// provider chain.
func Resolve(ctx context.Context, region string) (awssdk.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, sharederrors.FailedToWithDetails("resolve AWS config", "awsconfig", region, err)
	}
	return cfg, nil
}

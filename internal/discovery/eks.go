package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryankumar/multikube/internal/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// EKSAPI is the subset of the EKS client used for discovery
type EKSAPI interface {
	eks.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

// STSAPI is the subset of the STS client used to resolve the account id
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EKSProvider discovers EKS clusters with the AWS SDK
type EKSProvider struct {
	loadConfig func(ctx context.Context, profile, region string) (aws.Config, error)
	newEKS     func(cfg aws.Config) EKSAPI
	newSTS     func(cfg aws.Config) STSAPI
	logger     *slog.Logger
}

// NewEKSProvider creates a provider using the shared AWS config and credentials files
func NewEKSProvider(logger *slog.Logger) *EKSProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &EKSProvider{
		loadConfig: func(ctx context.Context, profile, region string) (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx,
				awsconfig.WithSharedConfigProfile(profile),
				awsconfig.WithRegion(region),
			)
		},
		newEKS: func(cfg aws.Config) EKSAPI { return eks.NewFromConfig(cfg) },
		newSTS: func(cfg aws.Config) STSAPI { return sts.NewFromConfig(cfg) },
		logger: logger,
	}
}

// ListClusters implements Provider
func (p *EKSProvider) ListClusters(ctx context.Context, profile, region string) ([]Descriptor, error) {
	cfg, err := p.loadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	identity, err := p.newSTS(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account (is the SSO session valid?): %w", err)
	}
	account := aws.ToString(identity.Account)

	client := p.newEKS(cfg)
	names := make([]string, 0)
	paginator := eks.NewListClustersPaginator(client, &eks.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list EKS clusters: %w", err)
		}
		names = append(names, page.Clusters...)
	}

	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		d := Descriptor{
			Name:    name,
			Account: account,
			Profile: profile,
			Region:  region,
		}

		out, err := client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
		if err != nil {
			// Kept without an endpoint; kubeconfig generation reports it per cluster.
			p.logger.Warn("failed to describe cluster",
				"cluster", name,
				"profile", profile,
				"region", region,
				"error", err)
		} else if c := out.Cluster; c != nil {
			d.Endpoint = aws.ToString(c.Endpoint)
			d.ARN = aws.ToString(c.Arn)
			if c.CertificateAuthority != nil {
				d.CAData = aws.ToString(c.CertificateAuthority.Data)
			}
			if d.Account == "" {
				d.Account = util.AccountFromARN(d.ARN)
			}
		}

		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

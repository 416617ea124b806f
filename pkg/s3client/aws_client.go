package s3client

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mdn/stumptown-deployer/internal/checksum"
)

// s3API is the subset of the S3 client that the read paths use. The
// seam lets List and ObjectHash run against a fake in tests.
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type AWSClient struct {
	api      s3API
	uploader *manager.Uploader
}

func NewAWSClient(cfg aws.Config) *AWSClient {
	client := s3.NewFromConfig(cfg)
	return &AWSClient{
		api:      client,
		uploader: manager.NewUploader(client),
	}
}

func (c *AWSClient) List(ctx context.Context, bucket, prefix string) (map[string]ObjectInfo, error) {
	objects := make(map[string]ObjectInfo)

	listPrefix := prefix
	if listPrefix != "" {
		listPrefix += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(listPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &ListError{Bucket: bucket, Prefix: prefix, Err: err}
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			objects[*obj.Key] = ObjectInfo{
				Key:  *obj.Key,
				Size: aws.ToInt64(obj.Size),
			}
		}
	}

	return objects, nil
}

func (c *AWSClient) ObjectHash(ctx context.Context, bucket, key string) (string, error) {
	resp, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// The listing said the key exists; a 404 here means the remote
		// mutated under us. Treat the hash as unknown so the file is
		// re-uploaded rather than failing the run.
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("head object %s: %w", key, err)
	}

	return resp.Metadata[checksum.MetadataField], nil
}

func (c *AWSClient) Put(ctx context.Context, req *PutRequest) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
		Body:   req.Body,
		ACL:    types.ObjectCannedACLPublicRead,
	}

	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}
	if req.CacheControl != "" {
		input.CacheControl = aws.String(req.CacheControl)
	}
	if req.ContentHash != "" {
		input.Metadata = map[string]string{checksum.MetadataField: req.ContentHash}
	}
	if req.RedirectLocation != "" {
		input.WebsiteRedirectLocation = aws.String(req.RedirectLocation)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", req.Key, err)
	}

	return nil
}

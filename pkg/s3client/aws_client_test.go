package s3client

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdn/stumptown-deployer/internal/checksum"
)

type fakeS3 struct {
	listFunc func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	headFunc func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return f.listFunc(ctx, params, optFns...)
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return f.headFunc(ctx, params, optFns...)
}

// The listing must drain every page before any object is reported, or a
// file sitting on page two would look new and re-upload forever.
func TestListPaginates(t *testing.T) {
	calls := 0
	fake := &fakeS3{
		listFunc: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			calls++
			assert.Equal(t, "team/", aws.ToString(params.Prefix))

			if params.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					Contents: []types.Object{
						{Key: aws.String("team/index.html"), Size: aws.Int64(100)},
						{Key: aws.String("team/logo.png"), Size: aws.Int64(200)},
					},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page-2"),
				}, nil
			}

			assert.Equal(t, "page-2", aws.ToString(params.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("team/en-us/index.html"), Size: aws.Int64(300)},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		},
	}
	client := &AWSClient{api: fake}

	objects, err := client.List(context.Background(), "yari", "team")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, map[string]ObjectInfo{
		"team/index.html":       {Key: "team/index.html", Size: 100},
		"team/logo.png":         {Key: "team/logo.png", Size: 200},
		"team/en-us/index.html": {Key: "team/en-us/index.html", Size: 300},
	}, objects)
}

func TestListEmptyPrefixListsWholeBucket(t *testing.T) {
	fake := &fakeS3{
		listFunc: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "", aws.ToString(params.Prefix))
			return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
		},
	}
	client := &AWSClient{api: fake}

	objects, err := client.List(context.Background(), "yari", "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestListErrorWrapsCause(t *testing.T) {
	cause := errors.New("access denied")
	fake := &fakeS3{
		listFunc: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, cause
		},
	}
	client := &AWSClient{api: fake}

	_, err := client.List(context.Background(), "yari", "team")
	require.Error(t, err)

	var listErr *ListError
	require.True(t, errors.As(err, &listErr))
	assert.Equal(t, "yari", listErr.Bucket)
	assert.Equal(t, "team", listErr.Prefix)
	assert.ErrorIs(t, err, cause)
}

func TestObjectHash(t *testing.T) {
	fake := &fakeS3{
		headFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			assert.Equal(t, "team/index.html", aws.ToString(params.Key))
			return &s3.HeadObjectOutput{
				Metadata: map[string]string{checksum.MetadataField: "abc123"},
			}, nil
		},
	}
	client := &AWSClient{api: fake}

	hash, err := client.ObjectHash(context.Background(), "yari", "team/index.html")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)
}

// A key that vanished between listing and head means the remote is
// stale; an empty hash forces a re-upload instead of failing the run.
func TestObjectHashNotFound(t *testing.T) {
	fake := &fakeS3{
		headFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, &types.NotFound{}
		},
	}
	client := &AWSClient{api: fake}

	hash, err := client.ObjectHash(context.Background(), "yari", "team/gone.html")
	require.NoError(t, err)
	assert.Equal(t, "", hash)
}

func TestObjectHashOtherError(t *testing.T) {
	fake := &fakeS3{
		headFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	client := &AWSClient{api: fake}

	_, err := client.ObjectHash(context.Background(), "yari", "team/index.html")
	assert.Error(t, err)
}

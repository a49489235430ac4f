package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store implements ObjectStore against any S3-compatible backend. All SDK
// error shapes are translated here; nothing above this type sees them.
type S3Store struct {
	s3Client *s3.Client
	config   *S3Config
	partSize int64
}

func NewS3Store(s3Client *s3.Client, config *S3Config) *S3Store {
	return &S3Store{
		s3Client: s3Client,
		config:   config,
		partSize: DefaultPartSize,
	}
}

func NewS3StoreWithConfig(cfg *S3Config) (*S3Store, error) {
	// HTTP client tuned for many concurrent small object calls
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          200,
			MaxIdleConnsPerHost:   100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 30 * time.Second,
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	awsClient := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.UseAccelerate {
			o.UseAccelerate = true
		}
	})

	return NewS3Store(awsClient, cfg), nil
}

// ===================================================================================================

func (s *S3Store) HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	resp, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, mapS3Error("head", bucket, key, err)
	}

	return &ObjectInfo{
		ETag:          normalizeETag(aws.ToString(resp.ETag)),
		ContentType:   aws.ToString(resp.ContentType),
		ContentLength: aws.ToInt64(resp.ContentLength),
		LastModified:  aws.ToTime(resp.LastModified),
	}, nil
}

func (s *S3Store) GetObject(ctx context.Context, bucket, key string, cond *Conditional) (*Object, error) {
	input := &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if !cond.IsZero() {
		if cond.IfMatch != "" {
			input.IfMatch = aws.String(wireETag(cond.IfMatch))
		}
		if cond.IfNoneMatch != "" {
			input.IfNoneMatch = aws.String(wireETag(cond.IfNoneMatch))
		}
	}

	resp, err := s.s3Client.GetObject(ctx, input)
	if err != nil {
		return nil, mapS3Error("get", bucket, key, err)
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			ETag:          normalizeETag(aws.ToString(resp.ETag)),
			ContentType:   aws.ToString(resp.ContentType),
			ContentLength: aws.ToInt64(resp.ContentLength),
			LastModified:  aws.ToTime(resp.LastModified),
		},
		Body: resp.Body,
	}, nil
}

// ===================================================================================================

func (s *S3Store) PutObject(ctx context.Context, bucket, key string, params *PutObjectParams) (*PutObjectResult, error) {
	if params.ContentLength >= 0 && params.ContentLength <= s.partSize {
		return s.putSingle(ctx, bucket, key, params)
	}
	return s.putMultipart(ctx, bucket, key, params)
}

func (s *S3Store) putSingle(ctx context.Context, bucket, key string, params *PutObjectParams) (*PutObjectResult, error) {
	input := &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          params.Body,
		ContentType:   &params.ContentType,
		ContentLength: aws.Int64(params.ContentLength),
	}
	if cond := params.Conditional; !cond.IsZero() {
		if cond.IfMatch != "" {
			input.IfMatch = aws.String(wireETag(cond.IfMatch))
		}
		if cond.IfNoneMatch != "" {
			input.IfNoneMatch = aws.String(wireETag(cond.IfNoneMatch))
		}
	}

	resp, err := s.s3Client.PutObject(ctx, input)
	if err != nil {
		return nil, mapS3Error("put", bucket, key, err)
	}

	// s3.PutObjectOutput does not carry LastModified
	return &PutObjectResult{
		ETag:         normalizeETag(aws.ToString(resp.ETag)),
		LastModified: time.Now().UTC(),
	}, nil
}

// putMultipart streams a body of large or unknown size in fixed-size parts, so
// buffering stays proportional to one part rather than to the whole body.
func (s *S3Store) putMultipart(ctx context.Context, bucket, key string, params *PutObjectParams) (*PutObjectResult, error) {
	created, err := s.s3Client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &params.ContentType,
	})
	if err != nil {
		return nil, mapS3Error("create multipart", bucket, key, err)
	}
	uploadID := created.UploadId

	abort := func() {
		// best effort; an orphaned upload is reaped by bucket lifecycle rules
		abortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = s.s3Client.AbortMultipartUpload(abortCtx, &s3.AbortMultipartUploadInput{
			Bucket:   &bucket,
			Key:      &key,
			UploadId: uploadID,
		})
	}

	var completed []types.CompletedPart
	buf := make([]byte, s.partSize)
	for partNumber := int32(1); ; partNumber++ {
		n, readErr := io.ReadFull(params.Body, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			abort()
			return nil, &BackendError{Op: "read part", Bucket: bucket, Key: key, Err: readErr}
		}
		if n == 0 && partNumber > 1 {
			break
		}

		part, err := s.s3Client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        &bucket,
			Key:           &key,
			UploadId:      uploadID,
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if err != nil {
			abort()
			return nil, mapS3Error("upload part", bucket, key, err)
		}
		completed = append(completed, types.CompletedPart{
			ETag:       part.ETag,
			PartNumber: aws.Int32(partNumber),
		})

		if readErr == io.ErrUnexpectedEOF || readErr == io.EOF {
			break
		}
	}

	resp, err := s.s3Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   &bucket,
		Key:      &key,
		UploadId: uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		abort()
		return nil, mapS3Error("complete multipart", bucket, key, err)
	}

	return &PutObjectResult{
		ETag:         normalizeETag(aws.ToString(resp.ETag)),
		LastModified: time.Now().UTC(),
	}, nil
}

// ===================================================================================================

func (s *S3Store) DeleteObject(ctx context.Context, bucket, key string, cond *Conditional) error {
	input := &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	fenced := false
	if !cond.IsZero() && cond.IfMatch != "" {
		input.IfMatch = aws.String(wireETag(cond.IfMatch))
		fenced = true
	}
	_, err := s.s3Client.DeleteObject(ctx, input)
	if err != nil {
		mapped := mapS3Error("delete", bucket, key, err)
		if errors.Is(mapped, ErrNotFound) {
			if fenced {
				// the fenced revision is gone; same outcome as a stale ETag
				return ErrPreconditionFailed
			}
			return nil
		}
		return mapped
	}
	return nil
}

// ===================================================================================================

func (s *S3Store) CreateBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{
		Bucket: &bucket,
	}
	// us-east-1 is the implicit default and must not be sent as a constraint
	if s.config.Region != "" && s.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err := s.s3Client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return mapS3Error("create bucket", bucket, "", err)
	}
	return nil
}

func (s *S3Store) DeleteBucket(ctx context.Context, bucket string) error {
	// a bucket must be empty before deletion
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: &bucket,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return mapS3Error("list bucket", bucket, "", err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: &bucket,
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return mapS3Error("empty bucket", bucket, "", err)
		}
	}

	_, err := s.s3Client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: &bucket,
	})
	if err != nil {
		return mapS3Error("delete bucket", bucket, "", err)
	}
	return nil
}

// check S3Store satisfies the collaborator interface
var _ ObjectStore = (*S3Store)(nil)

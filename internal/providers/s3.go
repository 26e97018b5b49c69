package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

// emptyQualifier is the key segment standing for an empty qualifier
const emptyQualifier = "_"

// S3API is the subset of the S3 client used by the provider
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the client built by NewS3Client
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool

	// AccessKeyID and SecretAccessKey select static credentials; the
	// default credential chain is used when AccessKeyID is empty
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client for AWS or an S3-compatible endpoint
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

type s3Provider struct {
	name   string
	client S3API
	bucket string
	prefix string
}

// NewS3Provider serves the objects below bucket/prefix laid out as
// <type>/<name>/<version>/<qualifier>/<file>, with "_" for an empty
// qualifier.
func NewS3Provider(name string, client S3API, bucket, prefix string) Provider {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &s3Provider{name: name, client: client, bucket: bucket, prefix: prefix}
}

func (p *s3Provider) Name() string {
	return p.name
}

func (*s3Provider) Type() string {
	return "s3"
}

// ListPackages pages through the bucket and yields descriptors as pages
// arrive. A package key repeated under one identity is a protocol error.
func (p *s3Provider) ListPackages(ctx context.Context) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(p.bucket),
			Prefix: aws.String(p.prefix),
		})

		seen := make(content.IdentitySet)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				err = fmt.Errorf("failed to list bucket %s: %w", p.bucket, err)
				if classified := p.classify(err); !errors.Is(classified, ErrContentNotFound) {
					err = classified
				} else {
					// A missing bucket is a missing source
					err = Unavailable(p.name, err)
				}
				yield(content.PackageDescriptor{}, err)
				return
			}

			for _, obj := range page.Contents {
				desc, ok := p.descriptor(obj)
				if !ok {
					continue
				}
				if seen.Has(desc.PackageIdentity) {
					yield(content.PackageDescriptor{}, Protocol(p.name, fmt.Errorf("duplicate package %s at %s", desc.Key(), desc.Location)))
					return
				}
				seen.Add(desc.PackageIdentity)
				if !yield(desc, nil) {
					return
				}
			}
		}
	}
}

func (p *s3Provider) descriptor(obj types.Object) (content.PackageDescriptor, bool) {
	key := aws.ToString(obj.Key)
	if strings.HasSuffix(key, "/") {
		return content.PackageDescriptor{}, false
	}

	parts := strings.Split(strings.TrimPrefix(key, p.prefix), "/")
	if len(parts) != 5 {
		slog.Debug("Skipping object outside package layout", "provider", p.name, "key", key)
		return content.PackageDescriptor{}, false
	}

	qualifier := parts[3]
	if qualifier == emptyQualifier {
		qualifier = ""
	}
	desc := content.PackageDescriptor{
		PackageIdentity: content.PackageIdentity{
			Type:      parts[0],
			Name:      parts[1],
			Version:   parts[2],
			Qualifier: qualifier,
		},
		Location:     key,
		DeclaredSize: content.UnknownSize,
	}
	if obj.Size != nil {
		desc.DeclaredSize = *obj.Size
	}
	if err := desc.Validate(); err != nil {
		slog.Debug("Skipping invalid package object", "provider", p.name, "key", key, "error", err)
		return content.PackageDescriptor{}, false
	}
	return desc, true
}

func (p *s3Provider) OpenContent(ctx context.Context, desc content.PackageDescriptor) (io.ReadCloser, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(desc.Location),
	})
	if err != nil {
		return nil, p.classify(fmt.Errorf("package %s: %w", desc.Key(), err))
	}
	return out.Body, nil
}

func (p *s3Provider) classify(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return NotFound(p.name, err)
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusNotFound:
			return NotFound(p.name, err)
		case status >= 500, status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
			return Unavailable(p.name, err)
		default:
			return Protocol(p.name, err)
		}
	}
	return Unavailable(p.name, err)
}

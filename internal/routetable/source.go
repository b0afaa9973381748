package routetable

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/navrouter/internal/errors"
)

// maxManifestSize caps how much of a manifest object is read.
const maxManifestSize = 4 << 20

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Load reads a manifest from a file path or an s3://bucket/key URL. client
// is only used for S3 locations and may be nil otherwise.
func Load(ctx context.Context, location string, client ObjectGetter) (*Manifest, error) {
	if strings.HasPrefix(location, "s3://") {
		return LoadS3(ctx, client, location)
	}
	return LoadFile(location)
}

// LoadFile reads a manifest from disk.
func LoadFile(path string) (*Manifest, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeManifestRead).
			WithDetail(path).
			Wrap(err)
	}
	return Decode(data, format)
}

// LoadS3 reads a manifest object from S3.
func LoadS3(ctx context.Context, client ObjectGetter, uri string) (*Manifest, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	format, err := FormatFromName(key)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New(errors.CodeManifestRead).
			WithDetailf("no S3 client for %s", uri)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New(errors.CodeManifestRead).
			WithDetail(uri).
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxManifestSize))
	if err != nil {
		return nil, errors.New(errors.CodeManifestRead).
			WithDetail(uri).
			Wrap(err)
	}
	return Decode(data, format)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" || len(u.Path) < 2 {
		return "", "", errors.New(errors.CodeManifestRead).
			WithDetailf("%q is not an s3://bucket/key URL", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// NewS3Client creates an S3 client that takes static credentials from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// environment variables.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	return s3.New(s3.Options{
		Region:       region,
		UsePathStyle: opts.PathStyle,
		BaseEndpoint: baseEndpoint(opts.Endpoint),
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	})
}

func baseEndpoint(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New(errors.CodeManifestRead).
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set to read s3:// manifests")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}

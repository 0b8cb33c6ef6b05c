package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/aristath/vitals/internal/domain"
)

// DefaultRateLimit is the archive request rate when none is configured
const DefaultRateLimit = 5.0

// S3Config locates the candle archive
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint, e.g. R2 or MinIO
	AccessKeyID     string // falls back to the default credential chain
	SecretAccessKey string
	RateLimit       float64 // requests per second
}

// Downloader is the subset of manager.Downloader the source needs
type Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// S3Source downloads per-symbol YAML candle files from an S3 bucket.
// Objects live at <prefix>/<SYMBOL>.yaml. Calls are rate limited and run
// through a circuit breaker so a failing archive is not hammered.
type S3Source struct {
	bucket     string
	prefix     string
	downloader Downloader
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger
}

// NewS3Source builds an AWS client from cfg and wraps it in an S3Source
func NewS3Source(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("history bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SourceWithDownloader(cfg, manager.NewDownloader(client), log), nil
}

// NewS3SourceWithDownloader wires an S3Source around an existing downloader
func NewS3SourceWithDownloader(cfg S3Config, downloader Downloader, log zerolog.Logger) *S3Source {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = DefaultRateLimit
	}

	return &S3Source{
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		downloader: downloader,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		breaker:    newBreaker("history-s3"),
		log:        log.With().Str("client", "history_s3").Logger(),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// a missing symbol is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoHistory)
		},
	})
}

// Name identifies the source in logs and metrics
func (s *S3Source) Name() string {
	return "s3"
}

// Key returns the object key holding a symbol's history
func (s *S3Source) Key(symbol string) string {
	return path.Join(s.prefix, NormalizeSymbol(symbol)+".yaml")
}

// Candles downloads and parses a symbol's history, oldest first
func (s *S3Source) Candles(ctx context.Context, symbol string) ([]domain.Candle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for archive rate limit: %w", err)
	}

	key := s.Key(symbol)
	result, err := s.breaker.Execute(func() (interface{}, error) {
		buf := manager.NewWriteAtBuffer([]byte{})
		_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var missing *types.NoSuchKey
			if errors.As(err, &missing) {
				return nil, fmt.Errorf("%w: %s", ErrNoHistory, key)
			}
			return nil, fmt.Errorf("failed to download %s: %w", key, err)
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			s.log.Warn().Str("symbol", symbol).Msg("Archive circuit open, skipping download")
		}
		return nil, err
	}

	var candles []domain.Candle
	if err := yaml.Unmarshal(result.([]byte), &candles); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", key, err)
	}
	sortCandles(candles)

	s.log.Debug().Str("symbol", symbol).Int("candles", len(candles)).Msg("Downloaded history")
	return candles, nil
}

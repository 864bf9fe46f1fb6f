package services

import (
	"bytes"
	"context"
	"fmt"
	"log"

	appconfig "crm-backend/internal/config"
	"crm-backend/internal/timeutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveService copies generated reports to R2-compatible object storage
// so they survive beyond the request. Disabled installs are a no-op.
type ArchiveService struct {
	cfg    appconfig.ArchiveConfig
	client *s3.Client
}

func NewArchiveService(ctx context.Context, cfg appconfig.ArchiveConfig) *ArchiveService {
	s := &ArchiveService{cfg: cfg}
	if !cfg.Enabled {
		return s
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		log.Printf("[Archive] disabled, aws config failed: %v", err)
		return s
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return s
}

// Enabled reports whether uploads will actually happen
func (s *ArchiveService) Enabled() bool {
	return s.client != nil
}

// StoreReport uploads a report under reports/<companyId>/<date>/<name>.
// Errors are logged, not returned: archiving must never fail a download.
func (s *ArchiveService) StoreReport(ctx context.Context, companyID int, name, contentType string, data []byte) {
	if s.client == nil {
		return
	}

	key := fmt.Sprintf("reports/%d/%s/%s", companyID, timeutil.Now().Format("2006-01-02"), name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("[Archive] upload of %s failed: %v", key, err)
		return
	}
	log.Printf("[Archive] stored %s (%d bytes)", key, len(data))
}

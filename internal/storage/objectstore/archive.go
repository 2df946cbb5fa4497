package objectstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// Config описывает подключение к S3-совместимому хранилищу.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	BaseURL   string
}

// Archive складывает снимки сводок заказов в S3-совместимый бакет.
// Снимок приходит от виджета как data-URI с base64 внутри.
type Archive struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  *log.Entry
}

// NewArchive создаёт архив сводок.
func NewArchive(ctx context.Context, cfg Config, logger *log.Entry) (*Archive, error) {
	if logger == nil {
		logger = log.New().WithField("component", "objectstore")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		awsconfig.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					if service == s3.ServiceID {
						return aws.Endpoint{URL: cfg.Endpoint, SigningRegion: "auto"}, nil
					}
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				},
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}

	return &Archive{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: cfg.BaseURL,
		logger:  logger,
	}, nil
}

// ArchiveSummaryImage сохраняет снимок сводки заказа и возвращает его
// публичный URL.
func (a *Archive) ArchiveSummaryImage(ctx context.Context, orderID, dataURI string) (string, error) {
	payload, contentType, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("summaries/%s.png", orderID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(payload),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put summary image: %w", err)
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(a.baseURL, "/"), key)
	a.logger.WithFields(log.Fields{
		"order_id": orderID,
		"key":      key,
	}).Info("order summary image archived")
	return url, nil
}

// decodeDataURI разбирает data-URI вида "data:image/png;base64,...".
// Голый base64 без префикса тоже принимается.
func decodeDataURI(dataURI string) ([]byte, string, error) {
	contentType := "image/png"
	encoded := dataURI

	if strings.HasPrefix(dataURI, "data:") {
		head, rest, ok := strings.Cut(dataURI, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data uri")
		}
		encoded = rest
		head = strings.TrimPrefix(head, "data:")
		if ct, _, _ := strings.Cut(head, ";"); ct != "" {
			contentType = ct
		}
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode summary image: %w", err)
	}
	return payload, contentType, nil
}

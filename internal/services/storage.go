package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/chachabrian/mooveit-ledger/internal/config"
	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
)

// ReceiptArchive stores payment receipts and returns where each one went.
type ReceiptArchive interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}

// NewReceiptArchive uses S3 when AWS credentials are configured and falls
// back to a local directory otherwise.
func NewReceiptArchive(cfg config.StorageConfig, log *slog.Logger) (ReceiptArchive, error) {
	if cfg.UseS3() {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		log.Info("receipt archive using S3", "bucket", cfg.S3Bucket, "region", cfg.AWSRegion)
		return &S3Archive{uploader: s3manager.NewUploader(sess), bucket: cfg.S3Bucket, region: cfg.AWSRegion}, nil
	}

	if err := os.MkdirAll(cfg.LocalDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create receipts directory: %w", err)
	}
	log.Warn("AWS S3 not configured, archiving receipts locally", "dir", cfg.LocalDir)
	return &LocalArchive{dir: cfg.LocalDir}, nil
}

type S3Archive struct {
	uploader *s3manager.Uploader
	bucket   string
	region   string
}

func (a *S3Archive) Put(ctx context.Context, key string, body []byte) (string, error) {
	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, key), nil
}

type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) *LocalArchive {
	return &LocalArchive{dir: dir}
}

func (a *LocalArchive) Put(ctx context.Context, key string, body []byte) (string, error) {
	path := filepath.Join(a.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create receipt directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}
	return path, nil
}

// Receipt is the archived copy of a commission payment.
type Receipt struct {
	Payment     models.CommissionPayment `json:"payment"`
	Currency    string                   `json:"currency"`
	AmountPaid  string                   `json:"amountPaid"`
	OwedAfter   string                   `json:"commissionOwed"`
	PaidAfter   string                   `json:"commissionPaid"`
	Pending     string                   `json:"commissionPending"`
	StillLocked bool                     `json:"accountLocked"`
}

func ReceiptKey(p models.CommissionPayment) string {
	return fmt.Sprintf("receipts/%s/%s.json", p.DriverID, p.ID)
}

// ReceiptNotifier archives a receipt for every recorded payment.
type ReceiptNotifier struct {
	Archive ReceiptArchive
	Log     *slog.Logger
}

func (n ReceiptNotifier) Notify(ctx context.Context, event ledger.Event) error {
	if event.Type != ledger.EventPaymentRecorded || event.Payment == nil {
		return nil
	}
	body, err := json.MarshalIndent(Receipt{
		Payment:     *event.Payment,
		Currency:    event.Finance.Currency,
		AmountPaid:  utils.FormatAmount(event.Payment.Amount, event.Finance.Currency),
		OwedAfter:   event.Finance.CommissionOwed.StringFixed(2),
		PaidAfter:   event.Finance.CommissionPaid.StringFixed(2),
		Pending:     event.Finance.CommissionPending.StringFixed(2),
		StillLocked: event.Finance.AccountLocked,
	}, "", "  ")
	if err != nil {
		return err
	}
	location, err := n.Archive.Put(ctx, ReceiptKey(*event.Payment), body)
	if err != nil {
		return err
	}
	n.Log.Info("commission receipt archived", "payment_id", event.Payment.ID, "location", location)
	return nil
}

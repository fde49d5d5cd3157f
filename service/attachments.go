package services

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"gorm.io/gorm"

	model "github.com/servana/action-center/models"
)

// UploadAttachment stores an evidence file (KYC document, dispute
// screenshot) against an item and records the stored URL as a system note,
// so the attachment shows up in the audit timeline.
func (s *ActionCenterService) UploadAttachment(itemID string, actor model.Actor, file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("attachment storage is not configured")
	}
	if _, err := s.Get(itemID); err != nil {
		return "", err
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return "", fmt.Errorf("bucket name not configured")
	}

	key := fmt.Sprintf("action-items/%s/%d-%s", itemID, time.Now().Unix(), header.Filename)
	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(header.Header.Get("Content-Type")),
	})
	if err != nil {
		log.Printf("[UploadAttachment] S3 upload error for %s: %v", itemID, err)
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", os.Getenv("S3_PUBLIC_URL"), bucket, key)

	lock := s.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchForUpdate(tx, itemID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := appendSystemNote(tx, itemID, fmt.Sprintf("Attachment uploaded by %s: %s", actor.Name, fileURL), now); err != nil {
			return err
		}
		return tx.Model(item).Update("updated_at", now).Error
	})
	if err != nil {
		return "", err
	}

	log.Printf("[UploadAttachment] %s attached to %s by %s", key, itemID, actor.ID)
	return fileURL, nil
}

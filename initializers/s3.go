package initializers

import (
	"log"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ConnectS3 builds the object-storage client used for evidence attachments.
// Like search this is optional: with incomplete credentials the attachment
// endpoint reports itself unavailable instead of blocking startup.
func ConnectS3() *s3.S3 {
	region := os.Getenv("S3_REGION")
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")

	if region == "" || endpoint == "" || accessKey == "" || secretKey == "" {
		log.Println("[ConnectS3] S3 configuration incomplete, attachments disabled")
		return nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		DisableSSL:       aws.Bool(false),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		log.Printf("[ConnectS3] failed to create session: %v", err)
		return nil
	}
	return s3.New(sess)
}

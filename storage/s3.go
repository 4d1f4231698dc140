// Package storage holds the event document files: programación,
// información técnica, memorias, certificate assets and evaluator CVs.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// FileStore is the blob store behind the document slots. References are the
// full URLs stored on the event row.
type FileStore interface {
	Save(key string, file io.Reader) (string, error)
	Open(fileURL string) (io.ReadCloser, error)
	Delete(fileURL string) error
	Exists(fileURL string) (bool, error)
}

type S3Store struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3StoreFromEnv() *S3Store {
	return &S3Store{
		Bucket:    os.Getenv("AWS_BUCKET"),
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

func (s *S3Store) newClient() (*s3.S3, error) {
	if s.AccessKey == "" || s.SecretKey == "" || s.Region == "" || s.Bucket == "" {
		return nil, fmt.Errorf("AWS credentials, region or bucket not set in environment")
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(s.Region),
		Credentials: credentials.NewStaticCredentials(s.AccessKey, s.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}
	return s3.New(sess), nil
}

func (s *S3Store) urlFor(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, key)
}

func (s *S3Store) keyFor(fileURL string) string {
	return strings.TrimPrefix(fileURL, fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.Bucket, s.Region))
}

func (s *S3Store) Save(key string, file io.Reader) (string, error) {
	svc, err := s.newClient()
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", fmt.Errorf("failed to read file buffer: %v", err)
	}

	_, err = svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}
	return s.urlFor(key), nil
}

func (s *S3Store) Open(fileURL string) (io.ReadCloser, error) {
	svc, err := s.newClient()
	if err != nil {
		return nil, err
	}
	out, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.keyFor(fileURL)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read file from S3: %v", err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(fileURL string) error {
	svc, err := s.newClient()
	if err != nil {
		return err
	}
	_, err = svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.keyFor(fileURL)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %v", err)
	}
	return nil
}

func (s *S3Store) Exists(fileURL string) (bool, error) {
	svc, err := s.newClient()
	if err != nil {
		return false, err
	}
	_, err = svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.keyFor(fileURL)),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

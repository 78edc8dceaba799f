package storage

import (
	"context"
	"crypto/md5" // For stable object keys
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

// TranscriptObject is the archived form of a session: the session header
// plus every message at export time.
type TranscriptObject struct {
	SessionID  string          `json:"session_id"`
	UserID     string          `json:"user_id"`
	Title      string          `json:"title,omitempty"`
	Messages   []types.Message `json:"messages"`
	ExportedAt time.Time       `json:"exported_at"`
}

func NewMinIOClient(cfg config.Config) (*MinIOClient, error) {
	// Use insecure for local (no HTTPS)
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// ArchiveTranscript uploads a session transcript and returns the object key.
// The key hashes the session id so re-exports overwrite the previous copy.
func (m *MinIOClient) ArchiveTranscript(ctx context.Context, session *types.Session, messages []types.Message) (string, error) {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(session.SessionID)))
	key := filepath.Join("transcripts", fmt.Sprintf("%s.json", hash))

	obj := TranscriptObject{
		SessionID:  session.SessionID,
		UserID:     session.UserID,
		Title:      session.Title,
		Messages:   messages,
		ExportedAt: time.Now(),
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, io.NopCloser(strings.NewReader(string(data))), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", err
	}

	return key, nil
}

func (m *MinIOClient) GetTranscript(ctx context.Context, key string) (string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

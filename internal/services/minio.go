package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"

	"sepettakip_back_end/internal/database"
)

// UploadEvidenceFile stocke une photo de preuve de remboursement dans MinIO et
// retourne son URL publique. Le nom d'objet est préfixé par un TimeUUID pour
// éviter les collisions entre clients.
func UploadEvidenceFile(file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("evidence/%s%s", gocql.TimeUUID(), filepath.Ext(file.Filename))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://%s/%s/%s", os.Getenv("MINIO_ENDPOINT"), bucket, objectName)
	return url, nil
}

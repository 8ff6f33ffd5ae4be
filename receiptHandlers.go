package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/sirupsen/logrus"
)

const defaultMaxReceiptSizeBytes int64 = 5 * 1024 * 1024

var receiptMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type receiptUploadResponse struct {
	ReceiptImageUrl string `json:"receipt_image_url"`
	ThumbnailUrl    string `json:"thumbnail_url"`
	ObjectKey       string `json:"object_key"`
}

func maxReceiptSizeBytes() int64 {
	if v := strings.TrimSpace(os.Getenv("MAX_RECEIPT_SIZE_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultMaxReceiptSizeBytes
}

// uploadReceiptHandler stores a receipt photo and a 200px thumbnail, returning
// the URL to put in receipt_image_url.
func uploadReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		shopId := c.Param("shop_id")
		if _, err := models.GetShop(ctx, middlewares.ActorId(c), shopId); err != nil {
			utils.RespondError(c, err)
			return
		}
		if !utils.GCSConfigured() {
			utils.RespondError(c, &utils.AppError{
				Code:    utils.CodeServer,
				Message: "receipt storage is not configured",
				Status:  http.StatusServiceUnavailable,
			})
			return
		}

		data, err := readReceiptFile(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		mimeType := http.DetectContentType(data)
		ext, ok := receiptMimeTypes[mimeType]
		if !ok {
			utils.RespondError(c, utils.NewValidation("receipt must be a JPEG or PNG image", map[string]string{"file": "image"}))
			return
		}
		thumbnail, err := receiptThumbnail(data)
		if err != nil {
			utils.RespondError(c, utils.NewValidation("receipt image could not be decoded", map[string]string{"file": "image"}))
			return
		}

		objectKey := path.Join("receipts", shopId, uuid.NewString()+ext)
		imageUrl, err := utils.UploadObjectToGCS(ctx, objectKey, data, mimeType)
		if err != nil {
			logUploadError(c, err, objectKey)
			utils.RespondError(c, err)
			return
		}
		thumbnailUrl, err := utils.UploadObjectToGCS(ctx, thumbnailObjectKey(objectKey), thumbnail, "image/jpeg")
		if err != nil {
			logUploadError(c, err, objectKey)
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, receiptUploadResponse{
			ReceiptImageUrl: imageUrl,
			ThumbnailUrl:    thumbnailUrl,
			ObjectKey:       objectKey,
		}, "Receipt uploaded")
	}
}

func readReceiptFile(c *gin.Context) ([]byte, error) {
	limit := maxReceiptSizeBytes()
	header, err := c.FormFile("file")
	if err != nil {
		return nil, utils.NewValidation("file is required", map[string]string{"file": "required"})
	}
	if header.Size > limit {
		return nil, utils.NewValidation("file is too large", map[string]string{"file": "max"})
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, utils.NewValidation("file is too large", map[string]string{"file": "max"})
	}
	if len(data) == 0 {
		return nil, utils.NewValidation("file is empty", map[string]string{"file": "required"})
	}
	return data, nil
}

func receiptThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, errors.New("empty thumbnail")
	}
	return buf.Bytes(), nil
}

func thumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := strings.TrimSuffix(path.Base(objectKey), path.Ext(objectKey)) + ".jpg"
	return path.Join(dir, "thumbnails", filename)
}

func logUploadError(c *gin.Context, err error, objectKey string) {
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	config.GetLogger().WithFields(logrus.Fields{
		"error":          err.Error(),
		"object_key":     objectKey,
		"correlation_id": cid,
	}).Error("[receipt.upload.error]")
}

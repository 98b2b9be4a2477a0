package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif" // register decoders
	_ "image/png"

	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir        = "uploads"
	DefaultMediaMaxUploadMB = 5
	MediaMaxDimension       = 2048
	JPEGQuality             = 82
	WebPQuality             = 70
	// MediaURLPrefix is where UploadDir is served.
	MediaURLPrefix = "/uploads"
)

// UploadInput is one uploaded image.
type UploadInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// MediaService validates uploaded images and stores a JPEG plus a WebP rendition.
type MediaService struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	uploadDir := DefaultUploadDir
	maxMB := DefaultMediaMaxUploadMB
	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.MediaMaxUploadMB > 0 {
			maxMB = cfg.MediaMaxUploadMB
		}
	}
	return &MediaService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxMB) * 1024 * 1024,
	}
}

// UploadDir is the directory media files are written to.
func (s *MediaService) UploadDir() string {
	return s.uploadDir
}

// MaxUploadBytes is the largest accepted upload.
func (s *MediaService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// Store validates in and writes <uuid>.jpg and <uuid>.webp under the upload
// directory. It returns the public URL of the JPEG.
func (s *MediaService) Store(ctx context.Context, in UploadInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return "", models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if !isAllowedImageMIME("image/" + format) {
		return "", models.NewValidationError("Unsupported image format")
	}

	scaled := resizeToFit(decoded, MediaMaxDimension, MediaMaxDimension)
	jpg, err := encodeJPEG(scaled, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	wp, err := encodeWebP(scaled, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	name := uuid.NewString()
	jpgPath := filepath.Join(s.uploadDir, name+".jpg")
	webpPath := filepath.Join(s.uploadDir, name+".webp")

	if err := writeBytesToFile(jpgPath, jpg); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpPath, wp); err != nil {
		_ = os.Remove(jpgPath)
		return "", models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "media stored",
		slog.Uint64("user_id", uint64(in.UserID)),
		slog.String("file", name+".jpg"),
		slog.String("source_type", detected),
	)
	return MediaURLPrefix + "/" + name + ".jpg", nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if hs := float64(maxHeight) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// IsLocalURL reports whether url points at a file produced by Store.
func IsLocalURL(url string) bool {
	name, ok := strings.CutPrefix(url, MediaURLPrefix+"/")
	if !ok || !strings.HasSuffix(name, ".jpg") {
		return false
	}
	_, err := uuid.Parse(strings.TrimSuffix(name, ".jpg"))
	return err == nil
}

// Discard removes both renditions of a file returned by Store.
// Unknown URLs are ignored.
func (s *MediaService) Discard(ctx context.Context, url string) {
	if !IsLocalURL(url) {
		return
	}
	base := strings.TrimSuffix(strings.TrimPrefix(url, MediaURLPrefix+"/"), ".jpg")
	for _, ext := range []string{".jpg", ".webp"} {
		if err := os.Remove(filepath.Join(s.uploadDir, base+ext)); err != nil && !os.IsNotExist(err) {
			middleware.Logger.WarnContext(ctx, "failed to discard media",
				slog.String("file", base+ext),
				slog.String("error", err.Error()),
			)
		}
	}
}

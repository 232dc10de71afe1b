package emerald

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 80
)

// MimeClass distinguishes the two attachment kinds a post may carry.
type MimeClass string

const (
	MimeImage MimeClass = "image"
	MimeAudio MimeClass = "audio"
)

// Bucket is the object-storage namespace media is uploaded into. PublicURL
// must fail when the object cannot be resolved, not return a dead link.
type Bucket interface {
	Put(key string, data []byte) error
	PublicURL(key string) (string, error)
}

// FSBucket stores objects under a local directory and resolves public URLs
// beneath baseURL + "/media/". The directory is served statically by the app.
type FSBucket struct {
	dir     string
	baseURL string
}

// NewFSBucket creates a filesystem bucket rooted at dir.
func NewFSBucket(dir, baseURL string) *FSBucket {
	return &FSBucket{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Put writes an object, creating parent directories as needed. Writing an
// existing key overwrites it.
func (b *FSBucket) Put(key string, data []byte) error {
	path := filepath.Join(b.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write media: %w", err)
	}
	return nil
}

// PublicURL resolves the externally fetchable address of a stored object.
// It fails if the object does not exist.
func (b *FSBucket) PublicURL(key string) (string, error) {
	if _, err := os.Stat(filepath.Join(b.dir, filepath.FromSlash(key))); err != nil {
		return "", fmt.Errorf("stat media: %w", err)
	}
	return b.baseURL + "/media/" + key, nil
}

// MediaGateway uploads binary media into a Bucket under a fixed namespace
// and returns the resolved public URL. Image uploads are re-encoded as JPEG
// and resized down to maxImageWidth; audio passes through untouched.
type MediaGateway struct {
	bucket    Bucket
	namespace string
	now       func() time.Time
}

// NewMediaGateway creates a gateway writing into namespace within bucket.
func NewMediaGateway(bucket Bucket, namespace string) *MediaGateway {
	return &MediaGateway{bucket: bucket, namespace: namespace, now: time.Now}
}

// Upload stores the media and returns its key and public URL. The object key
// concatenates the upload timestamp with the sanitized original filename;
// two identically named uploads within the same millisecond overwrite each
// other, which is tolerated as benign.
//
// On any failure it returns a StorageResolutionError and the caller must not
// persist a record referencing the media.
func (g *MediaGateway) Upload(filename string, class MimeClass, r io.Reader) (MediaUpload, error) {
	var data []byte
	name := sanitizeFilename(filename)

	switch class {
	case MimeImage:
		encoded, err := processImage(r)
		if err != nil {
			return MediaUpload{}, &StorageResolutionError{Key: name, Err: err}
		}
		data = encoded
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	case MimeAudio:
		raw, err := io.ReadAll(r)
		if err != nil {
			return MediaUpload{}, &StorageResolutionError{Key: name, Err: err}
		}
		data = raw
	default:
		return MediaUpload{}, &StorageResolutionError{Key: name, Err: fmt.Errorf("unsupported mime class %q", class)}
	}

	key := fmt.Sprintf("%s/%d-%s", g.namespace, g.now().UnixMilli(), name)
	if err := g.bucket.Put(key, data); err != nil {
		return MediaUpload{}, &StorageResolutionError{Key: key, Err: err}
	}
	url, err := g.bucket.PublicURL(key)
	if err != nil {
		return MediaUpload{}, &StorageResolutionError{Key: key, Err: err}
	}
	return MediaUpload{Key: key, URL: url}, nil
}

// processImage decodes an image, resizes it down to maxImageWidth if wider,
// and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeFilename slugs the base name and keeps a lowercased extension so
// keys stay URL-safe.
func sanitizeFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "." {
		ext = ""
	}
	base := Slugify(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if base == "" {
		base = "upload"
	}
	return base + ext
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"log/slog"
	"math/rand"
	"path"
	"strconv"
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/featureflags"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/observability"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/storage"

	"github.com/chai2010/webp"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	DefaultAvatarMaxSizePx      = 512
	WebPQuality                 = 80

	// PostImagesDir is the parent of every per-post image directory.
	PostImagesDir = "images"
	avatarsDir    = "avatars"

	maxDirNumber     = 999999999999
	maxNameSuffix    = 9999
	fallbackBaseName = "image"
)

// imageFormats maps decoder names to the stored extension and MIME type.
var imageFormats = map[string]struct{ ext, mime string }{
	"jpeg": {"jpg", "image/jpeg"},
	"png":  {"png", "image/png"},
	"gif":  {"gif", "image/gif"},
	"webp": {"webp", "image/webp"},
	"bmp":  {"bmp", "image/bmp"},
	"tiff": {"tiff", "image/tiff"},
}

// UploadInput is one uploaded file.
type UploadInput struct {
	UserID    uint
	ImageName string
	Content   []byte
}

// PostUploadInput is an upload into a post's image directory.
type PostUploadInput struct {
	UploadInput
	ImagePath string
	PostID    *uint
}

// UploadResult is returned after an upload.
type UploadResult struct {
	Image     *models.Image `json:"image"`
	ImagePath string        `json:"image_path"`
}

// ImageSettings bounds uploads.
type ImageSettings struct {
	MaxUploadSizeMB int
	AvatarMaxSizePx int
}

type ImageService struct {
	images   repository.ImageRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	disk     *storage.Disk
	flags    *featureflags.Manager
	cache    *cache.Cache
	maxSize  int64
	avatarPx int
	// randN returns a number in [1, n].
	randN func(n int64) int64
}

func NewImageService(
	images repository.ImageRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	disk *storage.Disk,
	flags *featureflags.Manager,
	c *cache.Cache,
	settings ImageSettings,
) *ImageService {
	if settings.MaxUploadSizeMB <= 0 {
		settings.MaxUploadSizeMB = DefaultImageMaxUploadSizeMB
	}
	if settings.AvatarMaxSizePx <= 0 {
		settings.AvatarMaxSizePx = DefaultAvatarMaxSizePx
	}
	return &ImageService{
		images:   images,
		posts:    posts,
		users:    users,
		disk:     disk,
		flags:    flags,
		cache:    c,
		maxSize:  int64(settings.MaxUploadSizeMB) * 1024 * 1024,
		avatarPx: settings.AvatarMaxSizePx,
		randN:    func(n int64) int64 { return rand.Int63n(n) + 1 },
	}
}

// MaxUploadBytes is the largest accepted upload.
func (s *ImageService) MaxUploadBytes() int64 {
	return s.maxSize
}

func (s *ImageService) ListAvatars(ctx context.Context, userID uint) ([]models.Image, error) {
	images, err := s.images.ListAvatars(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "")
	}
	return images, nil
}

func (s *ImageService) ListForPost(ctx context.Context, postID uint) ([]models.Image, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, lookupError(err, "Post not found")
	}
	images, err := s.images.ListByPost(ctx, postID)
	if err != nil {
		return nil, lookupError(err, "")
	}
	return images, nil
}

// upload is a validated file ready to be written.
type upload struct {
	baseName string
	ext      string
	mime     string
	content  []byte
}

// inspect checks size and type by decoding the image header.
func (s *ImageService) inspect(in UploadInput) (*upload, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("The image field is required")
	}
	if int64(len(in.Content)) > s.maxSize {
		return nil, models.NewValidationError(fmt.Sprintf("The image may not be greater than %d megabytes", s.maxSize/(1024*1024)))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("The image must be a file of type: jpeg, png, gif, webp, bmp, tiff")
	}
	f, ok := imageFormats[format]
	if !ok {
		return nil, models.NewValidationError("The image must be a file of type: jpeg, png, gif, webp, bmp, tiff")
	}
	return &upload{
		baseName: ImageBaseName(in.ImageName, f.ext),
		ext:      f.ext,
		mime:     f.mime,
		content:  in.Content,
	}, nil
}

// ImageBaseName lowercases the client's name, drops the extension and slugs it.
func ImageBaseName(name, ext string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.TrimSuffix(lower, path.Ext(lower))
	lower = strings.TrimSuffix(lower, "."+ext)
	if base := slug.Make(lower); base != "" {
		return base
	}
	return fallbackBaseName
}

// toAvatar shrinks the image to the avatar bound and re-encodes it as WebP.
func (s *ImageService) toAvatar(u *upload) error {
	src, _, err := image.Decode(bytes.NewReader(u.content))
	if err != nil {
		return models.NewValidationError("The image could not be decoded")
	}
	resized := resizeToFit(src, s.avatarPx, s.avatarPx)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: WebPQuality}); err != nil {
		return models.NewInternalError(err)
	}
	u.content = buf.Bytes()
	u.ext = imageFormats["webp"].ext
	u.mime = imageFormats["webp"].mime
	return nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// StoreAvatar saves an avatar under avatars/{userID}.
func (s *ImageService) StoreAvatar(ctx context.Context, in UploadInput) (res *UploadResult, err error) {
	ctx, span := observability.StartSpan(ctx, "image.store_avatar")
	defer func() { span.End(err) }()

	u, err := s.inspect(in)
	if err != nil {
		return nil, err
	}
	if s.flags.On(featureflags.AvatarWebP) {
		if err := s.toAvatar(u); err != nil {
			return nil, err
		}
	}

	dir := avatarsDir + "/" + strconv.FormatUint(uint64(in.UserID), 10)
	if !s.disk.Exists(dir) {
		if err := s.disk.MakeDir(dir); err != nil {
			return nil, models.NewDirectoryNotCreatedError(fmt.Sprintf("Failed creating the directory %s", dir), err)
		}
	}

	res, err = s.save(ctx, in.UserID, dir, u, false, nil)
	if err == nil {
		observability.RecordImageUpload(observability.ImageKindAvatar)
	}
	return res, err
}

// StoreForPost saves an image into a post's directory, creating the
// directory on first upload.
func (s *ImageService) StoreForPost(ctx context.Context, in PostUploadInput) (res *UploadResult, err error) {
	ctx, span := observability.StartSpan(ctx, "image.store_for_post")
	defer func() { span.End(err) }()

	u, err := s.inspect(in.UploadInput)
	if err != nil {
		return nil, err
	}

	imagePath := strings.TrimSpace(in.ImagePath)
	var post *models.Post
	if in.PostID != nil {
		post, err = s.posts.GetByID(ctx, *in.PostID)
		if err != nil {
			return nil, lookupError(err, "Post not found")
		}
		if post.ImagePath != nil && *post.ImagePath != "" {
			switch {
			case imagePath == "":
				imagePath = *post.ImagePath
			case *post.ImagePath != imagePath:
				return nil, models.NewDataConflictError("The received image_path does not match the one already recorded in the DB")
			}
		}
	}

	if imagePath != "" {
		if !storage.Within(imagePath, PostImagesDir) {
			return nil, models.NewBadRequestError("Bad request: invalid image_path")
		}
		imagePath, _ = storage.Clean(imagePath)
		if !s.disk.Exists(imagePath) {
			return nil, models.NewNotFoundError(fmt.Sprintf("Directory %s not found", imagePath))
		}
	} else {
		imagePath, err = s.createPostDir(ctx, post)
		if err != nil {
			return nil, err
		}
	}
	span.AddAttributes(attribute.String("image.path", imagePath))

	res, err = s.save(ctx, in.UserID, imagePath, u, true, in.PostID)
	if err == nil {
		observability.RecordImageUpload(observability.ImageKindPost)
	}
	return res, err
}

// createPostDir picks a free images/{n} directory and records it on the
// post when the post has none yet.
func (s *ImageService) createPostDir(ctx context.Context, post *models.Post) (string, error) {
	var dir string
	for {
		dir = PostImagesDir + "/" + strconv.FormatInt(s.randN(maxDirNumber), 10)
		if !s.disk.Exists(dir) {
			break
		}
	}
	if err := s.disk.MakeDir(dir); err != nil {
		return "", models.NewDirectoryNotCreatedError(fmt.Sprintf("Failed creating the directory %s", dir), err)
	}

	if post != nil && (post.ImagePath == nil || *post.ImagePath == "") {
		if err := s.posts.SetImagePath(ctx, post.ID, dir); err != nil {
			cleanupErr := s.disk.DeleteDir(dir)
			middleware.Logger.WarnContext(ctx, "failed saving image_path, directory removed",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("path", dir),
				slog.Bool("cleared", cleanupErr == nil),
			)
			return "", models.NewFailedRequestDBError(
				fmt.Sprintf("Failed saving to the DB for a new image_path of Post #%d", post.ID), err)
		}
	}
	return dir, nil
}

// save picks a free file name in dir, writes the file and registers it.
// The file is removed again when the row cannot be stored.
func (s *ImageService) save(ctx context.Context, userID uint, dir string, u *upload, attached bool, postID *uint) (*UploadResult, error) {
	name := u.baseName + "." + u.ext
	for s.disk.Exists(dir + "/" + name) {
		name = u.baseName + strconv.FormatInt(s.randN(maxNameSuffix), 10) + "." + u.ext
	}
	rel := dir + "/" + name

	if err := s.disk.Put(rel, u.content); err != nil {
		return nil, models.NewCannotWriteFileError(fmt.Sprintf("Failed writing the file %s", rel), err)
	}

	img := &models.Image{
		UserID:         userID,
		AttachedToPost: attached,
		PostID:         postID,
		Name:           name,
		MimeType:       u.mime,
		Path:           dir,
	}
	if err := s.images.Create(ctx, img); err != nil {
		cleanupErr := s.disk.Delete(rel)
		middleware.Logger.WarnContext(ctx, "failed registering image, file removed",
			slog.String("file", rel),
			slog.Bool("cleared", cleanupErr == nil),
		)
		return nil, writeError(err, fmt.Sprintf("Failed saving to the DB for image %s", rel))
	}

	middleware.Logger.InfoContext(ctx, "image saved",
		slog.Uint64("image_id", uint64(img.ID)),
		slog.String("file", rel),
	)
	return &UploadResult{Image: img, ImagePath: dir}, nil
}

// DestroyAvatar deletes one of the user's own images and clears it as avatar.
func (s *ImageService) DestroyAvatar(ctx context.Context, userID, imageID uint) (string, error) {
	img, err := s.images.GetForUser(ctx, imageID, userID)
	if err != nil {
		return "", lookupError(err, "Image not found")
	}
	if err := s.clearAvatar(ctx, img); err != nil {
		return "", err
	}
	return s.destroy(ctx, img)
}

// DestroyImage deletes any image.
func (s *ImageService) DestroyImage(ctx context.Context, imageID uint) (string, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return "", lookupError(err, "Image not found")
	}
	if err := s.clearAvatar(ctx, img); err != nil {
		return "", err
	}
	return s.destroy(ctx, img)
}

// clearAvatar unsets img wherever it is an avatar and drops cached posts of
// its owner, which embed the author's avatar.
func (s *ImageService) clearAvatar(ctx context.Context, img *models.Image) error {
	if err := s.users.ClearAvatar(ctx, img.ID); err != nil {
		return writeError(err, "Failed clearing the avatar")
	}
	s.cache.InvalidateGroup(ctx, cache.UserPostsGroupKey(img.UserID))
	return nil
}

func (s *ImageService) destroy(ctx context.Context, img *models.Image) (string, error) {
	if err := s.disk.Delete(img.RelativePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", models.NewFailedDeletingFileError("Failed deleting an image file", err)
	}
	if err := s.images.Delete(ctx, img.ID); err != nil {
		return "", writeError(err, "Failed deleting an image DB record")
	}
	middleware.Logger.InfoContext(ctx, "image deleted", slog.Uint64("image_id", uint64(img.ID)))
	return fmt.Sprintf("Image #%d has been deleted", img.ID), nil
}

// ClearNonAttached drops an abandoned post image directory. Rows are only
// touched when the client reports uploads into it.
func (s *ImageService) ClearNonAttached(ctx context.Context, imagePath string, imageCounter *int) (string, error) {
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return "", models.NewBadRequestError("Bad request: image_path not received")
	}
	if imageCounter == nil {
		return "", models.NewBadRequestError("Bad request: image_counter not received")
	}
	if !storage.Within(imagePath, PostImagesDir) {
		return "", models.NewBadRequestError("Bad request: invalid image_path")
	}
	imagePath, _ = storage.Clean(imagePath)

	if err := s.disk.DeleteDir(imagePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", models.NewNotFoundError(fmt.Sprintf("Directory %s not found", imagePath))
		}
		return "", models.NewFailedDeletingDirectoryError(fmt.Sprintf("Failed to deleting directory %s", imagePath), err)
	}

	if *imageCounter > 0 {
		n, err := s.images.DeleteAttachedByPath(ctx, imagePath)
		if err != nil {
			return "", writeError(err, "Failed deleting DB records of images")
		}
		middleware.Logger.InfoContext(ctx, "cleared image rows", slog.String("path", imagePath), slog.Int64("rows", n))
	}
	return fmt.Sprintf("Images from directory %s have been deleted", imagePath), nil
}

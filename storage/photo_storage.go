package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SavedPhoto points at the stored original and, when one could be
// generated, its thumbnail.
type SavedPhoto struct {
	URL          string
	ThumbnailURL string
}

type PhotoStorage interface {
	SavePhoto(filename string, content []byte) (SavedPhoto, error)
}

// LocalPhotoStorage writes uploads to a local directory served under
// BaseURL. Stored names are uuids so colliding upload filenames cannot
// overwrite each other.
type LocalPhotoStorage struct {
	Directory string
	BaseURL   string
	Log       *zap.Logger
}

func (s *LocalPhotoStorage) SavePhoto(filename string, content []byte) (SavedPhoto, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	if err := os.MkdirAll(s.Directory, 0o755); err != nil {
		return SavedPhoto{}, err
	}
	if err := os.WriteFile(filepath.Join(s.Directory, name), content, 0o644); err != nil {
		return SavedPhoto{}, err
	}
	saved := SavedPhoto{URL: s.BaseURL + "/" + name}

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		// Undecodable format; keep the original without a thumbnail.
		s.logger().Warn("could not decode upload for thumbnail",
			zap.String("filename", filename), zap.Error(err))
		return saved, nil
	}
	thumb := imaging.Thumbnail(img, 320, 240, imaging.Lanczos)
	thumbName := "thumb_" + strings.TrimSuffix(name, ext) + ".jpg"
	if err := imaging.Save(thumb, filepath.Join(s.Directory, thumbName), imaging.JPEGQuality(80)); err != nil {
		s.logger().Warn("could not write thumbnail",
			zap.String("filename", filename), zap.Error(err))
		return saved, nil
	}
	saved.ThumbnailURL = s.BaseURL + "/" + thumbName
	return saved, nil
}

func (s *LocalPhotoStorage) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

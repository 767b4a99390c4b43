package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

func InArray[T comparable](val T, array []T) bool {
	for _, v := range array {
		if val == v {
			return true
		}
	}
	return false
}

// SpreadsheetTypes are the content types accepted for imports.
var SpreadsheetTypes = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/octet-stream",
}

// Upload copies file into baseDir/folder and returns the stored path.
func Upload(file *multipart.FileHeader, baseDir, folder string, expected []string) (path string, err error) {
	if file == nil {
		return "", errors.New("file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if len(expected) > 0 && !InArray(contentType, expected) {
		return "", fmt.Errorf("invalid file type, expected: %v, got: %s", expected, contentType)
	}

	targetPath := filepath.Join(baseDir, folder)
	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	name := filepath.Base(strings.ReplaceAll(file.Filename, " ", "_"))
	path = filepath.Join(targetPath, time.Now().Format("20060102T150405")+"-"+name)

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "closing file")
		}
	}()

	if _, err = io.Copy(out, src); err != nil {
		return "", errors.Wrap(err, "copying upload")
	}

	return path, nil
}

package filestorage

import (
	"mime/multipart"
)

// FileStorage abstracts where uploaded files land so services do not care
// whether storage is local disk or something remote.
type FileStorage interface {
	// SaveImage stores an uploaded image under the given subdirectory and
	// returns its accessible path. Rejects non-image uploads.
	SaveImage(fileHeader *multipart.FileHeader, subPath string) (string, error)
	// DeleteFile removes a previously stored file. Deleting a missing file
	// is not an error.
	DeleteFile(filePath string) error
}

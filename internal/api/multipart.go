package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/images"
	"github.com/starford/inkwell/internal/postservice"
)

// multipartMemory is how much of a submission is held in memory before
// file parts spill to temporary files.
const multipartMemory = 32 << 20

// maxContentImages bounds contentImageCount.
const maxContentImages = 100

var errBodyTooLarge = errors.New("submission body too large")

// parseSubmission reads the publish form. The returned closer releases the
// opened file parts.
func parseSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64) (postservice.Submission, io.Closer, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return postservice.Submission{}, nil, errBodyTooLarge
		}
		return postservice.Submission{}, nil, apperr.Validation("invalid multipart form")
	}

	files := &fileSet{}
	sub := postservice.Submission{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
		Tags:     postservice.ParseTags(r.FormValue("tags")),
	}

	thumb, err := files.open(r.MultipartForm, "thumbnail")
	if err != nil {
		_ = files.Close()
		return postservice.Submission{}, nil, err
	}
	sub.Thumbnail = thumb

	count, _ := strconv.Atoi(r.FormValue("contentImageCount"))
	if count < 0 || count > maxContentImages {
		_ = files.Close()
		return postservice.Submission{}, nil, apperr.Validationf("contentImageCount must be between 0 and %d", maxContentImages)
	}
	for i := 0; i < count; i++ {
		id := r.FormValue(fmt.Sprintf("contentImageId_%d", i))
		up, err := files.open(r.MultipartForm, fmt.Sprintf("contentImage_%d", i))
		if err != nil {
			_ = files.Close()
			return postservice.Submission{}, nil, err
		}
		// A slot missing either half is ignored.
		if up == nil || id == "" {
			continue
		}
		sub.ContentImages = append(sub.ContentImages, postservice.ContentImage{ID: id, Upload: *up})
	}
	return sub, files, nil
}

type fileSet struct {
	opened []multipart.File
}

// open returns the first file part named field, or nil when absent.
func (s *fileSet) open(form *multipart.Form, field string) (*images.Upload, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, nil
	}
	fh := form.File[field][0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("api: open %s: %w", field, err)
	}
	s.opened = append(s.opened, f)
	return &images.Upload{Name: fh.Filename, Size: fh.Size, Reader: f}, nil
}

func (s *fileSet) Close() error {
	var errs []error
	for _, f := range s.opened {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

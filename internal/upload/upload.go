// Package upload resizes uploaded images and stores them under the
// public uploads directory.
package upload

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotImage     = errors.New("only images allowed")
	ErrTooManyFiles = errors.New("too many files")
)

type Field struct {
	Name     string
	MaxCount int
}

// Processor handles the image fields of one resource.
type Processor struct {
	Dir           string
	Folder        string
	Prefix        string
	Width, Height int
	Fields        []Field
	Quality       int
}

// Process stores every image found in form and returns the generated file
// names per field. Fields without files are absent from the result.
func (p *Processor) Process(form *multipart.Form) (map[string][]string, error) {
	out := make(map[string][]string)
	if form == nil {
		return out, nil
	}

	dir := filepath.Join(p.Dir, p.Folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}

	stamp := time.Now().UnixMilli()
	for _, f := range p.Fields {
		files := form.File[f.Name]
		if len(files) == 0 {
			continue
		}
		if f.MaxCount > 0 && len(files) > f.MaxCount {
			return nil, errors.Wrapf(ErrTooManyFiles, "%s accepts at most %d", f.Name, f.MaxCount)
		}

		base := fmt.Sprintf("%s-%s-%d", p.Prefix, uuid.NewString(), stamp)
		for i, fh := range files {
			name := base + ".jpeg"
			if len(p.Fields) > 1 || len(files) > 1 {
				name = fmt.Sprintf("%s-%s-%d.jpeg", base, f.Name, i+1)
			}
			if err := p.save(fh, filepath.Join(dir, name)); err != nil {
				return nil, err
			}
			out[f.Name] = append(out[f.Name], name)
		}
	}
	return out, nil
}

func (p *Processor) save(fh *multipart.FileHeader, path string) error {
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return errors.Wrap(ErrNotImage, fh.Filename)
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "open upload")
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return errors.Wrapf(ErrNotImage, "decode %s: %v", fh.Filename, err)
	}

	quality := p.Quality
	if quality == 0 {
		quality = 95
	}
	resized := imaging.Fill(img, p.Width, p.Height, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(resized, path, imaging.JPEGQuality(quality)); err != nil {
		return errors.Wrap(err, "save image")
	}
	return nil
}

// URL exposes a stored image name under baseURL.
func URL(baseURL, folder, name string) string {
	if name == "" || strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	if strings.HasPrefix(name, "/uploads/") {
		return strings.TrimRight(baseURL, "/") + name
	}
	return strings.TrimRight(baseURL, "/") + "/uploads/" + folder + "/" + name
}

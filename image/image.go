package image

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/webgrab/webgrab/fetch"
	"github.com/webgrab/webgrab/link"
	"github.com/webgrab/webgrab/store"
)

// Image is a single image reference found on a page. URL is the resolved
// absolute address, Src the reference as written in the markup. LocalPath is
// set once the image has been saved to disk.
type Image struct {
	Alt       string
	URL       string
	Src       string
	LocalPath string
}

func FromRef(ref link.ImageRef) Image {
	return Image{
		Alt: ref.Alt,
		URL: ref.URL,
		Src: ref.Src,
	}
}

// Filename returns the last path segment of the image URL, without query
// parameters. https://example.com/path/to/image.jpg?size=large -> image.jpg
func (i *Image) Filename() string {
	name := path.Base(i.urlPath())
	if name == "." || name == "/" {
		return "image"
	}
	return name
}

// Filepath returns the full URL path below the host, without query
// parameters. https://example.com/path/to/image.jpg -> path/to/image.jpg
func (i *Image) Filepath() string {
	p := strings.TrimPrefix(i.urlPath(), "/")
	if p == "" {
		return "image"
	}
	return p
}

func (i *Image) urlPath() string {
	u, err := url.Parse(i.URL)
	if err != nil {
		// Fall back to stripping the query by hand.
		raw := i.URL
		if idx := strings.Index(raw, "?"); idx >= 0 {
			raw = raw[:idx]
		}
		if idx := strings.Index(raw, "://"); idx >= 0 {
			raw = raw[idx+3:]
			if slash := strings.Index(raw, "/"); slash >= 0 {
				return raw[slash:]
			}
			return ""
		}
		return raw
	}
	return u.Path
}

// Download fetches the image content.
func (i *Image) Download(f *fetch.Fetcher) ([]byte, error) {
	body, _, err := f.Get(i.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download image %s", i.URL)
	}
	return body, nil
}

// Save downloads the image and writes it below the store root. With flatten
// set, only the filename is used; otherwise the URL path is mirrored as
// subdirectories. The resulting path is recorded on the Image and returned.
func (i *Image) Save(f *fetch.Fetcher, fs *store.FileStore, flatten bool) (string, error) {
	name := i.Filepath()
	if flatten {
		name = i.Filename()
	}

	// Skip the download when a previous run already saved this image.
	if ok, err := fs.Contains(name); err == nil && ok {
		i.LocalPath = filepath.Join(fs.Root(), name)
		return i.LocalPath, nil
	}

	body, err := i.Download(f)
	if err != nil {
		return "", err
	}

	savedPath, err := fs.WriteBinary(name, body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to save image %s", i.URL)
	}

	i.LocalPath = savedPath

	return savedPath, nil
}

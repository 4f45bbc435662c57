package scrape

import (
	"bytes"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/webgrab/webgrab/document"
	"github.com/webgrab/webgrab/fetch"
	"github.com/webgrab/webgrab/image"
	"github.com/webgrab/webgrab/link"
	"github.com/webgrab/webgrab/log"
	"github.com/webgrab/webgrab/store"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// SaveOptions configures the save operations. The zero value writes to
// ./output with the default filename for the format and an images/
// subdirectory.
type SaveOptions struct {
	// Dir is the output directory. Default "output".
	Dir string
	// Filename of the exported file. Default "index.md" / "index.html".
	Filename string
	// ImagesDirName is the subdirectory for downloaded images. Default "images".
	ImagesDirName string
	// DownloadImages saves referenced images and rewrites the exported
	// content to point at the local copies.
	DownloadImages bool
	// ClearOutputDir empties Dir before saving.
	ClearOutputDir bool
	// FlattenImages saves all images directly under the images directory
	// instead of mirroring the URL path.
	FlattenImages bool
}

func (o SaveOptions) withDefaults(filename string) SaveOptions {
	if o.Dir == "" {
		o.Dir = "output"
	}
	if o.Filename == "" {
		o.Filename = filename
	}
	if o.ImagesDirName == "" {
		o.ImagesDirName = "images"
	}
	return o
}

// Scraper fetches a single web page at construction and offers accessors to
// export its main content and enumerate its references. All operations are
// synchronous; content and images are memoized after first access.
type Scraper struct {
	log       zerolog.Logger
	url       *url.URL
	fetcher   *fetch.Fetcher
	doc       *goquery.Document
	extractor *link.Extractor

	content *goquery.Selection
	images  []image.Image
}

// New validates rawURL, fetches the page and parses it. The fetch has no
// retries; a non-2xx response or a network failure fails construction.
func New(rawURL string, opts fetch.Options) (*Scraper, error) {
	u, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewFetcher(opts)

	body, ct, err := fetcher.Get(rawURL)
	if err != nil {
		return nil, err
	}

	if ct != "" && !isHTMLContentType(ct) {
		return nil, errors.Errorf("unsupported content type %q for %s", ct, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse HTML from %s", rawURL)
	}

	return &Scraper{
		log:       log.NewLogger("scrape"),
		url:       u,
		fetcher:   fetcher,
		doc:       doc,
		extractor: link.NewExtractor(u),
	}, nil
}

func validateURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, errors.New("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid URL %q", rawURL)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("invalid URL %q: must start with http:// or https://", rawURL)
	}

	return u, nil
}

func isHTMLContentType(ct string) bool {
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// URL returns the page URL the scraper was built with.
func (s *Scraper) URL() *url.URL {
	return s.url
}

// Title returns the page title, if any.
func (s *Scraper) Title() string {
	return strings.TrimSpace(s.doc.Find("title").First().Text())
}

// Content returns the main content of the page: the first <article>, falling
// back to <div class="content">, falling back to <body>.
func (s *Scraper) Content() *goquery.Selection {
	if s.content != nil {
		return s.content
	}

	sel := s.doc.Find("article").First()
	if sel.Length() == 0 {
		sel = s.doc.Find("div.content").First()
	}
	if sel.Length() == 0 {
		sel = s.doc.Find("body").First()
	}
	if sel.Length() == 0 {
		sel = s.doc.Selection
	}

	s.content = sel

	return sel
}

// ContentHTML returns the main content rendered as HTML markup.
func (s *Scraper) ContentHTML() (string, error) {
	return renderNodes(s.Content().Nodes)
}

// FullHTML returns the whole parsed page rendered as HTML markup.
func (s *Scraper) FullHTML() (string, error) {
	return renderNodes(s.doc.Selection.Nodes)
}

func renderNodes(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", errors.Wrap(err, "failed to render HTML")
		}
	}
	return buf.String(), nil
}

// Markdown converts the main content to Markdown. Relative links and image
// sources are rendered absolute against the page URL.
func (s *Scraper) Markdown() (string, error) {
	markup, err := s.ContentHTML()
	if err != nil {
		return "", err
	}

	domain := s.url.Scheme + "://" + s.url.Host

	md, err := mdConverter.ConvertReader(strings.NewReader(markup), converter.WithDomain(domain))
	if err != nil {
		return "", errors.Wrap(err, "failed to convert HTML to Markdown")
	}

	return string(md), nil
}

// Links returns the deduplicated, resolved link targets of the page in
// document order. With includeRelative false, page-relative references are
// dropped.
func (s *Scraper) Links(includeRelative bool) []link.Link {
	return s.extractor.Links(s.doc, includeRelative)
}

// Images returns the image references of the page. The slice is memoized so
// that local paths recorded by a save operation survive across calls.
func (s *Scraper) Images() []image.Image {
	if s.images != nil {
		return s.images
	}

	refs := s.extractor.Images(s.doc)

	images := make([]image.Image, 0, len(refs))
	for _, ref := range refs {
		images = append(images, image.FromRef(ref))
	}

	s.images = images

	return images
}

// SaveMarkdown writes the main content as a Markdown file with YAML front
// matter, optionally downloading images and rewriting their URLs to local
// paths.
func (s *Scraper) SaveMarkdown(opts SaveOptions) error {
	opts = opts.withDefaults("index.md")

	fs, err := s.prepareOutput(opts)
	if err != nil {
		return err
	}

	content, err := s.Markdown()
	if err != nil {
		return err
	}

	if opts.DownloadImages {
		content = s.processImages(content, opts)
	}

	doc := &document.Document{
		Content: content,
		Metadata: document.Metadata{
			Title:         s.Title(),
			Source:        s.url.String(),
			ProcessedTime: time.Now().Format(time.RFC3339),
			Links:         linkURLs(s.Links(true)),
		},
	}

	out, err := doc.ToMarkdown()
	if err != nil {
		return err
	}

	path, err := fs.WriteText(opts.Filename, out)
	if err != nil {
		return err
	}

	s.log.Info().Str("path", path).Msg("markdown content saved")

	return nil
}

// SaveHTML writes the main content as an HTML file, optionally downloading
// images and rewriting their URLs to local paths.
func (s *Scraper) SaveHTML(opts SaveOptions) error {
	opts = opts.withDefaults("index.html")

	fs, err := s.prepareOutput(opts)
	if err != nil {
		return err
	}

	content, err := s.ContentHTML()
	if err != nil {
		return err
	}

	if opts.DownloadImages {
		content = s.processImages(content, opts)
	}

	path, err := fs.WriteText(opts.Filename, content)
	if err != nil {
		return err
	}

	s.log.Info().Str("path", path).Msg("HTML content saved")

	return nil
}

// SaveImages downloads all referenced images into the images directory.
// Failed downloads are logged and skipped.
func (s *Scraper) SaveImages(opts SaveOptions) error {
	opts = opts.withDefaults("index.md")

	imgStore := store.NewFileStore(filepath.Join(opts.Dir, opts.ImagesDirName))

	images := s.Images()
	for i := range images {
		img := &images[i]
		if _, err := img.Save(s.fetcher, imgStore, opts.FlattenImages); err != nil {
			s.log.Warn().Str("url", img.URL).Err(err).Msg("skipping image")
		}
	}

	return nil
}

func (s *Scraper) prepareOutput(opts SaveOptions) (*store.FileStore, error) {
	fs := store.NewFileStore(opts.Dir)

	if opts.ClearOutputDir {
		if err := fs.Clear(); err != nil {
			return nil, err
		}
		s.log.Info().Str("dir", opts.Dir).Msg("output directory cleared")
	}

	return fs, nil
}

// processImages downloads the page's images and rewrites their URLs in
// content to the saved paths, relative to the output directory. Markdown
// carries the resolved absolute URL, HTML the original src attribute, so
// both forms are replaced. Images that fail to download keep their remote
// URL.
func (s *Scraper) processImages(content string, opts SaveOptions) string {
	imgStore := store.NewFileStore(filepath.Join(opts.Dir, opts.ImagesDirName))

	images := s.Images()
	for i := range images {
		img := &images[i]

		if img.LocalPath == "" {
			if _, err := img.Save(s.fetcher, imgStore, opts.FlattenImages); err != nil {
				s.log.Warn().Str("url", img.URL).Err(err).Msg("skipping image")
				continue
			}
		}

		local := filepath.ToSlash(strings.TrimPrefix(img.LocalPath, opts.Dir))
		content = strings.ReplaceAll(content, img.URL, local)
		if img.Src != "" && img.Src != img.URL {
			// Quoted so the local path produced above cannot match its own
			// relative suffix.
			content = strings.ReplaceAll(content, `"`+img.Src+`"`, `"`+local+`"`)
		}
	}

	return content
}

func linkURLs(links []link.Link) []string {
	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	return urls
}

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/webgrab/webgrab/fetch"
	"github.com/webgrab/webgrab/log"
	"github.com/webgrab/webgrab/scrape"
)

func main() {
	// A .env file can supply WEBGRAB_OUTPUT_DIR and WEBGRAB_USER_AGENT.
	godotenv.Load()

	var (
		rawURL          = flag.String("url", "", "URL of the page to scrape (required)")
		out             = flag.String("out", envOr("WEBGRAB_OUTPUT_DIR", "output"), "Output directory")
		format          = flag.String("format", "markdown", "Export format: markdown or html")
		images          = flag.Bool("images", false, "Download referenced images and rewrite the content to local paths")
		printLinks      = flag.Bool("links", false, "Print the page's resolved links instead of exporting")
		includeRelative = flag.Bool("include-relative", true, "Include page-relative links when printing links")
		clear           = flag.Bool("clear", false, "Clear the output directory before saving")
		flatten         = flag.Bool("flatten", false, "Save all images in a single directory instead of mirroring URL paths")
		timeout         = flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	)
	flag.Parse()

	log := log.NewLogger("main")

	if *rawURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	s, err := scrape.New(*rawURL, fetch.Options{
		UserAgent: os.Getenv("WEBGRAB_USER_AGENT"),
		Timeout:   *timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Str("url", *rawURL).Msg("Failed to fetch page")
	}

	if *printLinks {
		for _, l := range s.Links(*includeRelative) {
			fmt.Println(l.URL)
		}
		return
	}

	opts := scrape.SaveOptions{
		Dir:            *out,
		DownloadImages: *images,
		ClearOutputDir: *clear,
		FlattenImages:  *flatten,
	}

	switch *format {
	case "markdown":
		err = s.SaveMarkdown(opts)
	case "html":
		err = s.SaveHTML(opts)
	default:
		log.Fatal().Str("format", *format).Msg("Unknown format, expected markdown or html")
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save content")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

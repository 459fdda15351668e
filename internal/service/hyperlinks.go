package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Config dir access is not safe with concurrent requests; run pdfcpu
	// with its in-memory default configuration instead.
	pdfapi.DisableConfigDir()
}

// HyperlinkExtractor pulls link-annotation targets out of PDF pages.
type HyperlinkExtractor struct {
	logger domain.Logger
}

// NewHyperlinkExtractor creates a new hyperlink extractor
func NewHyperlinkExtractor(logger domain.Logger) *HyperlinkExtractor {
	return &HyperlinkExtractor{logger: logger}
}

// ExtractHyperlinks walks every page's annotations and returns the
// deduplicated set of validated link targets. Annotations that are not
// Link-subtype, carry no URI, or fail to resolve are skipped individually.
func (e *HyperlinkExtractor) ExtractHyperlinks(pdfPath string) ([]string, error) {
	e.logger.Info("Extracting hyperlinks", "path", pdfPath)

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for annotations: %w", err)
	}
	defer f.Close()

	annots, err := pdfapi.Annotations(f, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	var links []string
	seen := make(map[string]struct{})

	for _, pageAnnots := range annots {
		linkAnnots, ok := pageAnnots[pdfmodel.AnnLink]
		if !ok {
			continue
		}
		for _, renderer := range linkAnnots.Map {
			link, ok := renderer.(pdfmodel.LinkAnnotation)
			if !ok || link.URI == "" {
				continue
			}

			uri := strings.TrimRight(link.URI, "/")
			validURL := ValidateURL(uri)
			if validURL == "" {
				e.logger.Debug("Skipping rejected annotation link", "uri", uri)
				continue
			}
			if _, dup := seen[validURL]; dup {
				continue
			}
			seen[validURL] = struct{}{}
			links = append(links, validURL)
		}
	}

	e.logger.Info("Extracted unique hyperlinks", "count", len(links))
	if links == nil {
		links = []string{}
	}
	return links, nil
}

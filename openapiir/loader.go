package openapiir

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// LoadOptions configures the loading process.
type LoadOptions struct {
	SkipRemote bool // skip remote references during resolution
	MaxDepth   int  // maximum depth for reference resolution
}

// Document is one loaded specification document. It is immutable after load
// and owned by the Cache for the lifetime of a generation run.
type Document struct {
	URI      string
	Version  Version
	OAS      *openapi3.T
	Webhooks map[string]*openapi3.PathItem
}

// Cache maps canonical document URIs to parsed documents. It is the unit of
// reference resolution: repeated loads of the same URI are served from the
// cache, and concurrent loads of one URI are de-duplicated so the fetch is
// issued once.
type Cache struct {
	opts   LoadOptions
	client *http.Client

	mu     sync.Mutex
	docs   map[string]*Document
	flight singleflight.Group
}

// NewCache creates an empty document cache.
func NewCache(opts LoadOptions) *Cache {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 100
	}
	return &Cache{
		opts:   opts,
		client: &http.Client{},
		docs:   make(map[string]*Document),
	}
}

// Options returns the load options the cache was created with.
func (c *Cache) Options() LoadOptions { return c.opts }

// Load fetches and parses the document at uri, a local file path or an
// HTTP(S) URL containing JSON or YAML. The parsed document is stored under
// its canonical URI; subsequent loads return the cached instance.
func (c *Cache) Load(uri string) (*Document, error) {
	canonical, err := CanonicalURI(uri)
	if err != nil {
		return nil, fmt.Errorf("cannot canonicalize document URI %q: %w", uri, err)
	}

	c.mu.Lock()
	if doc, ok := c.docs[canonical]; ok {
		c.mu.Unlock()
		return doc, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(canonical, func() (interface{}, error) {
		doc, err := c.fetch(canonical)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[canonical] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load document %q: %w", canonical, err)
	}
	return v.(*Document), nil
}

// fetch reads, version-detects and parses one document.
func (c *Cache) fetch(canonical string) (*Document, error) {
	log.Printf("loading document: %s", canonical)

	data, err := c.read(canonical)
	if err != nil {
		return nil, err
	}

	version, err := DetectVersion(data)
	if err != nil {
		return nil, err
	}
	log.Printf("detected OpenAPI version %s for %s", version, canonical)

	var oas *openapi3.T
	if version.IsSwagger() {
		oas, err = parseSwagger(data)
	} else {
		oas, err = parseV3(data, canonical)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing document: %w", err)
	}

	doc := &Document{URI: canonical, Version: version, OAS: oas}

	// Keywords kin-openapi does not model (and the webhooks section) live
	// only in the raw tree, so keep a second parse of 3.x documents around
	// long enough to hydrate them onto the typed schemas.
	if !version.IsSwagger() {
		raw, err := parseRaw(data)
		if err == nil {
			hydrateDocument(oas, raw)
			doc.Webhooks = parseWebhooks(raw)
		}
	}

	return doc, nil
}

// read fetches the raw bytes behind a canonical URI.
func (c *Cache) read(canonical string) ([]byte, error) {
	if isURLRef(canonical) {
		resp, err := c.client.Get(canonical)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", canonical, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", canonical, resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body of %s: %w", canonical, err)
		}
		return body, nil
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// parseV3 parses an OpenAPI 3.x document, resolving its internal and external
// references relative to its own location.
func parseV3(data []byte, location string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	base, err := locationURL(location)
	if err != nil {
		return nil, err
	}
	return loader.LoadFromDataWithPath(data, base)
}

// parseSwagger parses a Swagger 2.0 document and converts it to OpenAPI 3.0.
func parseSwagger(data []byte) (*openapi3.T, error) {
	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		// Not JSON; go through YAML.
		raw, yerr := parseRaw(data)
		if yerr != nil {
			return nil, err
		}
		jb, merr := json.Marshal(raw)
		if merr != nil {
			return nil, merr
		}
		if jerr := json.Unmarshal(jb, &doc2); jerr != nil {
			return nil, jerr
		}
	}

	doc, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("swagger 2.0 conversion failed: %w", err)
	}
	loader := openapi3.NewLoader()
	if err := loader.ResolveRefsIn(doc, nil); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseRaw decodes the document into a generic tree, JSON first then YAML.
func parseRaw(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("document is neither valid JSON nor valid YAML: %w", err)
		}
	}
	return raw, nil
}

// parseWebhooks re-parses the 3.1 webhooks section, which kin-openapi drops.
func parseWebhooks(raw map[string]interface{}) map[string]*openapi3.PathItem {
	section, ok := raw["webhooks"].(map[string]interface{})
	if !ok || len(section) == 0 {
		return nil
	}

	webhooks := make(map[string]*openapi3.PathItem, len(section))
	for name, item := range section {
		jb, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var pi openapi3.PathItem
		if err := pi.UnmarshalJSON(jb); err != nil {
			log.Printf("warning: skipping malformed webhook %q: %v", name, err)
			continue
		}
		webhooks[name] = &pi
	}
	return webhooks
}

// CanonicalURI normalizes a document identifier: URLs lose their fragment,
// file paths become absolute slash-separated paths.
func CanonicalURI(uri string) (string, error) {
	if isURLRef(uri) {
		u, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		u.Fragment = ""
		return u.String(), nil
	}
	abs, err := filepath.Abs(uri)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// resolveAgainst interprets target relative to the origin document URI.
func resolveAgainst(origin, target string) (string, error) {
	if isURLRef(target) {
		return CanonicalURI(target)
	}
	if isURLRef(origin) {
		base, err := url.Parse(origin)
		if err != nil {
			return "", err
		}
		rel, err := url.Parse(target)
		if err != nil {
			return "", err
		}
		joined := base.ResolveReference(rel)
		joined.Fragment = ""
		return joined.String(), nil
	}
	if filepath.IsAbs(target) {
		return CanonicalURI(target)
	}
	return CanonicalURI(filepath.Join(path.Dir(origin), filepath.FromSlash(target)))
}

// locationURL maps a canonical URI to the *url.URL form kin-openapi expects.
func locationURL(canonical string) (*url.URL, error) {
	if isURLRef(canonical) {
		return url.Parse(canonical)
	}
	return &url.URL{Path: canonical}, nil
}

func isLocalRef(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

func isURLRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

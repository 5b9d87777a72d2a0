package corspolicy

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/jub0bs/corspolicy/cfgerrors"
	"gopkg.in/yaml.v3"
)

// A FileConfig is a configuration document: a default policy configuration
// and, optionally, narrower configurations for some routes, keyed by
// [http.ServeMux] pattern. In YAML:
//
//	default:
//	  allowed_origins: ["https://example.com"]
//	  allowed_methods: [GET, POST]
//	  max_age: 600
//	routes:
//	  "/admin/":
//	    allowed_origins: ["https://admin.example.com"]
//	    allowed_credentials: true
type FileConfig struct {
	Default Config            `yaml:"default"`
	Routes  map[string]Config `yaml:"routes,omitempty"`
}

// LoadConfig decodes a YAML configuration document from r.
// Unknown fields are rejected. An empty document yields the zero
// FileConfig, whose default policy allows nothing.
// LoadConfig does not validate the configurations it decodes;
// see [FileConfig.Build].
func LoadConfig(r io.Reader) (*FileConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fc FileConfig
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("corspolicy: decoding configuration: %w", err)
	}
	return &fc, nil
}

// Build compiles fc into a default policy and a route table.
// If some configuration in fc is invalid, it returns some non-nil error
// that joins the errors of all the invalid configurations;
// errors specific to a route are wrapped in a *[cfgerrors.RouteError].
func (fc *FileConfig) Build() (*Policy, *RouteTable, error) {
	var errs []error
	def, err := NewPolicy(fc.Default)
	if err != nil {
		errs = append(errs, err)
	}
	table := NewRouteTable()
	// Sort patterns so that errors are reported deterministically.
	for _, pattern := range slices.Sorted(maps.Keys(fc.Routes)) {
		p, err := NewPolicy(fc.Routes[pattern])
		if err == nil {
			err = table.Add(pattern, p)
		}
		if err != nil {
			errs = append(errs, &cfgerrors.RouteError{
				Pattern: pattern,
				Err:     err,
			})
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return def, table, nil
}

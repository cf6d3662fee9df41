package settings

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/blurmark/internal/blur/marker"
)

// Persisted field names.
const (
	KeyStart = "blurSyntax"
	KeyEnd   = "blurEndpoint"
)

// Format is a settings file encoding.
type Format int

const (
	// FormatJSON is a JSON object; unrelated keys are preserved on save.
	FormatJSON Format = iota
	// FormatTOML is a flat TOML table.
	FormatTOML
	// FormatYAML is a flat YAML mapping.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// decode reads the marker fields from data. Missing fields stay empty.
func decode(f Format, data []byte) (marker.Config, error) {
	var cfg marker.Config
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	switch f {
	case FormatJSON:
		if !gjson.ValidBytes(data) {
			return cfg, fmt.Errorf("invalid json")
		}
		root := gjson.ParseBytes(data)
		if !root.IsObject() {
			return cfg, fmt.Errorf("settings must be a json object")
		}
		cfg.Start = root.Get(KeyStart).String()
		cfg.End = root.Get(KeyEnd).String()
	case FormatTOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, ErrUnsupportedFormat
	}
	return cfg, nil
}

// encode writes cfg. For JSON, existing is updated in place so keys owned by
// other tools survive.
func encode(f Format, existing []byte, cfg marker.Config) ([]byte, error) {
	switch f {
	case FormatJSON:
		doc := existing
		if len(bytes.TrimSpace(doc)) == 0 || !gjson.ValidBytes(doc) {
			doc = []byte("{}")
		}
		doc, err := sjson.SetBytes(doc, KeyStart, cfg.Start)
		if err != nil {
			return nil, err
		}
		doc, err = sjson.SetBytes(doc, KeyEnd, cfg.End)
		if err != nil {
			return nil, err
		}
		return pretty.Pretty(doc), nil
	case FormatTOML:
		return toml.Marshal(cfg)
	case FormatYAML:
		return yaml.Marshal(cfg)
	default:
		return nil, ErrUnsupportedFormat
	}
}

package gltf

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

/**
 * @brief Importer options. The zero value is not useful, start from
 * DefaultOptions.
 */
type Options struct {
	/** @brief Flip decoded images on the y axis before upload. */
	FlipTextureY bool `toml:"flip_texture_y"`
	/** @brief Generate a full mip chain for images decoded at import time. */
	GenerateMipmaps bool `toml:"generate_mipmaps"`
	/** @brief Downscale decoded images whose largest side exceeds this. Zero disables. */
	MaxTextureSize uint32 `toml:"max_texture_size"`
	/**
	 * @brief Build simplified proxy geometry for each primitive, keeping
	 * roughly this fraction of triangles. Zero disables. Only applies to
	 * geometry whose data is resident at import time.
	 */
	ProxyFactor float64 `toml:"proxy_factor"`
}

func DefaultOptions() Options {
	return Options{
		GenerateMipmaps: true,
		MaxTextureSize:  4096,
	}
}

// LoadOptionsFile reads a TOML options file over the defaults.
func LoadOptionsFile(path string) (Options, error) {
	options := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return options, err
	}
	if err := toml.Unmarshal(data, &options); err != nil {
		return options, fmt.Errorf("options file '%s': %w", path, err)
	}
	if options.ProxyFactor < 0 || options.ProxyFactor > 1 {
		return options, fmt.Errorf("options file '%s': proxy_factor %f out of range [0, 1]", path, options.ProxyFactor)
	}
	return options, nil
}

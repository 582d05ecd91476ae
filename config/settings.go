package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	// interface web server listens on
	ListenAddr string `yaml:"listenAddr"`
	// directory with unpacked *.perm.bin / *.temp.bin pairs
	GameDir string `yaml:"gameDir"`
	// largest side of texture previews served to the web ui, 0 keeps original size
	PreviewSizeLimit int `yaml:"previewSizeLimit"`
	// default image container for texture dumps (dds, png, webp, tga)
	TextureFormat string `yaml:"textureFormat"`
	// charmap used to decode strings from game files
	Encoding string `yaml:"encoding"`
}

var currentSettings = DefaultSettings()

func DefaultSettings() Settings {
	return Settings{
		ListenAddr:       ":8000",
		PreviewSizeLimit: 256,
		TextureFormat:    "dds",
	}
}

func GetSettings() Settings {
	return currentSettings
}

func SetSettings(s Settings) {
	currentSettings = s
}

// LoadSettings reads a yaml settings file and applies it. A missing
// file is not an error, defaults stay in place.
func LoadSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "Failed to read settings %q", path)
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "Failed to parse settings %q", path)
	}

	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return err
		}
	}

	currentSettings = s
	return nil
}

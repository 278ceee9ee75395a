package registry

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

type catalogFile struct {
	Templates []Template `toml:"template"`
}

// LoadCatalog reads extra templates from a TOML file:
//
//	[[template]]
//	kind = "webhook"
//	title = "Webhook"
//	defaults = { path = "/hook" }
//
//	[[template.output]]
//	id = "payload"
func LoadCatalog(path string) ([]Template, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes templates from TOML. The templates are not validated
// until they are passed to New or With.
func ParseCatalog(r io.Reader) ([]Template, error) {
	var cf catalogFile
	if _, err := toml.NewDecoder(r).Decode(&cf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "decode catalog")
	}
	return cf.Templates, nil
}

package command

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadRoutes reads a YAML route table of the form
//
//	routes:
//	  - page_id: disease
//	    path: /disease
//	    keywords: ["open crop disease", "disease"]
//	    confirmation: Opened crop disease page
//	    priority: 1
func LoadRoutes(r io.Reader) ([]Route, error) {
	var file routeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("command: decode route table: %w", err)
	}
	if len(file.Routes) == 0 {
		return nil, ErrEmptyTable
	}
	return file.Routes, nil
}

func LoadRoutesFile(path string) ([]Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("command: open route table: %w", err)
	}
	defer f.Close()

	return LoadRoutes(f)
}

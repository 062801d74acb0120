package formats

import (
	"encoding/json"
	"io"

	"github.com/JourneyJu/dsg-sub010/types"
	"gopkg.in/yaml.v3"
)

// JSON writes the complete view as indented JSON
var JSON = &ViewFormat{
	Name:      "json",
	Extension: ".json",
	Render: func(w io.Writer, view types.View, _ Options) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

// YAML writes the complete view as YAML
var YAML = &ViewFormat{
	Name:      "yaml",
	Extension: ".yaml",
	Render: func(w io.Writer, view types.View, _ Options) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	},
}

package operations

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// readPayload unmarshals a json or yaml file, dispatching on the file
// extension, into the output structure.
func readPayload(fn string, out interface{}) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return errors.Wrapf(err, "problem reading file '%s'", fn)
	}

	switch strings.ToLower(filepath.Ext(fn)) {
	case ".yaml", ".yml":
		return errors.Wrapf(yaml.Unmarshal(data, out), "problem parsing yaml from '%s'", fn)
	default:
		return errors.Wrapf(json.Unmarshal(data, out), "problem parsing json from '%s'", fn)
	}
}

// writePayload renders the data as json or yaml, again by extension,
// writing to standard output when no file name is given.
func writePayload(fn string, data interface{}) error {
	var (
		out []byte
		err error
	)

	switch strings.ToLower(filepath.Ext(fn)) {
	case ".yaml", ".yml":
		out, err = yaml.Marshal(data)
	default:
		out, err = json.MarshalIndent(data, "", "   ")
	}
	if err != nil {
		return errors.Wrap(err, "problem rendering output")
	}

	if fn == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return errors.Wrap(err, "problem writing to standard output")
	}

	if err = os.WriteFile(fn, out, 0644); err != nil {
		return errors.Wrapf(err, "problem writing data to '%s'", fn)
	}

	return nil
}

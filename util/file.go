package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SaveJson marshals data and writes it to path, creating the parent
// directory when it does not exist yet.
func SaveJson(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bs, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = file.Write(bs)
	return err
}

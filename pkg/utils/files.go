// Package utils holds small helpers shared by the commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceFile is a program text read from disk.
type SourceFile struct {
	Path string // absolute path
	Dir  string // directory containing the file
	Base string // file name without extension
	Text string
}

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// ReadSource resolves relPath and reads the file it names.
func ReadSource(relPath string) (SourceFile, error) {
	fullPath, dir, err := GetPathInfo(relPath)
	if err != nil {
		return SourceFile{}, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return SourceFile{}, fmt.Errorf("failed to read source file: %w", err)
	}
	name := filepath.Base(fullPath)
	return SourceFile{
		Path: fullPath,
		Dir:  dir,
		Base: strings.TrimSuffix(name, filepath.Ext(name)),
		Text: string(data),
	}, nil
}

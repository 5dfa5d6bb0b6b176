package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/AutoScheduleJS/queries-fn/internal/compiler"
	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// LoadMode controls how errors are handled during query loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedQuery is a sanitized query and where it came from.
type LoadedQuery struct {
	Name   string
	Source string
	Query  query.Query
}

// Label identifies the query in output: source:name, or name alone.
func (l LoadedQuery) Label() string {
	if l.Source == "" {
		return l.Name
	}
	return l.Source + ":" + l.Name
}

// LoadResult contains the queries loaded from a file or directory.
type LoadResult struct {
	Queries   []LoadedQuery
	FileCount int // Number of query files found
}

// LoadError represents an error that occurred during query loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadQueries reads and sanitizes the queries in path, a query file or a
// directory of them. A directory's .json and .yaml files are read one by one;
// its .cue files are loaded together as one package.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadQueries(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}}
	}

	var (
		docs []compiler.Document
		errs []error
	)
	result := &LoadResult{}

	if !info.IsDir() {
		fileDocs, err := compiler.LoadFile(path)
		if err != nil {
			return nil, []error{convertLoadError(err, ErrCodeDecodeFailed)}
		}
		docs = fileDocs
		result.FileCount = 1
	} else {
		dataFiles, cueFiles, err := FindQueryFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(dataFiles) == 0 && len(cueFiles) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no query files found in %s", path)}}
		}
		result.FileCount = len(dataFiles) + len(cueFiles)

		for _, file := range dataFiles {
			fileDocs, err := compiler.LoadFile(file)
			if err != nil {
				errs = append(errs, convertLoadError(fmt.Errorf("%s: %w", file, err), ErrCodeDecodeFailed))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			docs = append(docs, fileDocs...)
		}

		if len(cueFiles) > 0 {
			cueDocs, cueErrs := compiler.LoadDir(path)
			for _, err := range cueErrs {
				errs = append(errs, convertLoadError(err, ErrCodeLoadFailed))
				if mode == LoadModeFailFast {
					return result, errs
				}
			}
			docs = append(docs, cueDocs...)
		}
	}

	for _, doc := range docs {
		q, err := compiler.Compile(doc)
		if err != nil {
			errs = append(errs, convertLoadError(err, ErrCodeGeneric))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Queries = append(result.Queries, LoadedQuery{Name: doc.Name, Source: doc.Source, Query: q})
	}

	if len(result.Queries) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoFiles, Message: "no queries found"})
	}

	return result, errs
}

// FindQueryFiles walks the directory and returns the JSON/YAML query files
// and the CUE files, each sorted.
func FindQueryFiles(dir string) (data []string, cue []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			data = append(data, path)
		case ".cue":
			cue = append(cue, path)
		}
		return nil
	})
	sort.Strings(data)
	sort.Strings(cue)
	return data, cue, err
}

// convertLoadError converts a compiler or sanitizer error to a LoadError
// with position info.
func convertLoadError(err error, fallback string) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	if errors.Is(err, query.ErrInvalidPosition) {
		return &LoadError{Code: ErrCodeInvalidPosition, Message: err.Error()}
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeInvalidValue,
			Message: err.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// errorCode returns the CLI error code carried by err.
func errorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No query files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path or query not found
	ErrCodeDecodeFailed = "E006" // JSON/YAML/CUE decode failed
	ErrCodeDatabase     = "E007" // Catalog open/read/write error

	// Query errors
	ErrCodeInvalidPosition = "E101" // Position has neither duration nor start/end
	ErrCodeInvalidValue    = "E102" // Non-concrete CUE value
	ErrCodeInvalidQuery    = "E103" // Query fails validation
	ErrCodeCatalogDrift    = "E104" // Stored query no longer hashes to its key
	ErrCodeTestFailed      = "E105" // Scenario failed
)

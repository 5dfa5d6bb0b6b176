package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// Document is one raw query read from a source file, before sanitization.
type Document struct {
	Name   string         // CUE label, or the index inside a JSON/YAML file
	Source string         // file the document came from, if any
	Raw    map[string]any // untrusted object handed to query.Sanitize
	Pos    token.Pos      // CUE position if available
}

// Compile sanitizes a document into a canonical query.
func Compile(doc Document) (query.Query, error) {
	q, err := query.Sanitize(doc.Raw)
	if err != nil {
		return query.Query{}, fmt.Errorf("%s: %w", doc.label(), err)
	}
	return q, nil
}

func (d Document) label() string {
	if d.Source == "" {
		return d.Name
	}
	return d.Source + ":" + d.Name
}

// DecodeJSON reads a single query object or an array of query objects.
// Numbers are kept as json.Number so integers survive unchanged.
func DecodeJSON(data []byte) ([]Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode JSON: trailing data after document")
	}
	return documentsOf(v, 0)
}

// DecodeYAML reads a YAML stream. Each YAML document holds one query mapping
// or a sequence of them.
func DecodeYAML(data []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []Document
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		if v == nil {
			continue
		}
		more, err := documentsOf(v, len(docs))
		if err != nil {
			return nil, err
		}
		docs = append(docs, more...)
	}
	return docs, nil
}

func documentsOf(v any, offset int) ([]Document, error) {
	switch val := v.(type) {
	case map[string]any:
		return []Document{{Name: strconv.Itoa(offset), Raw: val}}, nil
	case []any:
		docs := make([]Document, 0, len(val))
		for i, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("document %d: expected object, got %T", offset+i, item)
			}
			docs = append(docs, Document{Name: strconv.Itoa(offset + i), Raw: m})
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("expected object or list of objects, got %T", v)
	}
}

// LoadFile reads the queries in one file, choosing the decoder by extension:
// .json, .yaml/.yml or .cue.
func LoadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var docs []Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		docs, err = DecodeJSON(data)
	case ".yaml", ".yml":
		docs, err = DecodeYAML(data)
	case ".cue":
		docs, err = decodeCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Source = path
	}
	return docs, nil
}

func decodeCUE(data []byte, filename string) ([]Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	queries := v.LookupPath(cue.ParsePath("query"))
	if !queries.Exists() {
		raw, err := CompileCUE(v)
		if err != nil {
			return nil, err
		}
		return []Document{{Name: "0", Raw: raw, Pos: v.Pos()}}, nil
	}
	docs, errs := compileQueryFields(queries)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return docs, nil
}

// LoadDir loads the CUE package in dir and compiles every field under
// `query: <name>: {...}`. Per-query compile errors are collected; a load or
// build failure is returned alone.
func LoadDir(dir string) ([]Document, []error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{errors.New("no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	queries := value.LookupPath(cue.ParsePath("query"))
	if !queries.Exists() {
		return nil, []error{&CompileError{Field: "query", Message: "no queries found", Pos: value.Pos()}}
	}
	return compileQueryFields(queries)
}

func compileQueryFields(queries cue.Value) ([]Document, []error) {
	iter, err := queries.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}
	var (
		docs []Document
		errs []error
	)
	for iter.Next() {
		val := iter.Value()
		raw, err := CompileCUE(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("query.%s: %w", iter.Label(), err))
			continue
		}
		docs = append(docs, Document{
			Name:   iter.Label(),
			Source: val.Pos().Filename(),
			Raw:    raw,
			Pos:    val.Pos(),
		})
	}
	return docs, errs
}

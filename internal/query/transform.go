package query

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

// DefaultQuantity is used for raw needs and inserts that do not set a quantity.
const DefaultQuantity int64 = 1

// NewTransformation builds a canonical transformation from typed entries.
// A missing find or doc becomes an empty object and Deletes is derived from
// the needs no update references, in need order. All four slices are non-nil.
// Quantities are kept as given; NewNeed applies the default.
func NewTransformation(needs []Need, updates []Update, inserts []Insert) Transformation {
	t := Transformation{
		Needs:   make([]Need, 0, len(needs)),
		Updates: make([]Update, 0, len(updates)),
		Inserts: make([]Insert, 0, len(inserts)),
	}
	for _, n := range needs {
		n.Find = objectOrEmpty(n.Find)
		t.Needs = append(t.Needs, n)
	}
	for _, u := range updates {
		objs := make([]UpdateObject, len(u.Update))
		copy(objs, u.Update)
		u.Update = objs
		t.Updates = append(t.Updates, u)
	}
	for _, in := range inserts {
		in.Doc = objectOrEmpty(in.Doc)
		t.Inserts = append(t.Inserts, in)
	}
	t.Deletes = deriveDeletes(t.Needs, t.Updates)
	return t
}

// objectOrEmpty keeps a payload that serializes as non-null.
func objectOrEmpty(v ir.IRValue) ir.IRValue {
	switch v.(type) {
	case nil, ir.IRNull:
		return ir.IRObject{}
	}
	return v
}

// quantityOf returns the decoded quantity, or DefaultQuantity when m has none.
func quantityOf(m map[string]any, decoded int64) int64 {
	if _, ok := present(m, "quantity"); !ok {
		return DefaultQuantity
	}
	return decoded
}

// deriveDeletes returns the refs of needs that no update references.
func deriveDeletes(needs []Need, updates []Update) []string {
	updated := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		updated[u.Ref] = struct{}{}
	}
	deletes := make([]string, 0, len(needs))
	for _, n := range needs {
		if _, ok := updated[n.Ref]; !ok {
			deletes = append(deletes, n.Ref)
		}
	}
	return deletes
}

// normalizeTransforms turns an untrusted transforms section into a Transformation.
// It returns nil when none of needs, updates or inserts is present.
// Malformed entries are dropped.
func normalizeTransforms(raw any) *Transformation {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	rawNeeds, hasNeeds := present(m, "needs")
	rawUpdates, hasUpdates := present(m, "updates")
	rawInserts, hasInserts := present(m, "inserts")
	if !hasNeeds && !hasUpdates && !hasInserts {
		return nil
	}

	var needs []Need
	for i, entry := range listOf(rawNeeds) {
		n, err := decodeNeed(entry)
		if err != nil {
			slog.Debug("dropping need", "index", i, "error", err)
			continue
		}
		needs = append(needs, n)
	}
	var updates []Update
	for i, entry := range listOf(rawUpdates) {
		u, err := decodeUpdate(entry)
		if err != nil {
			slog.Debug("dropping update", "index", i, "error", err)
			continue
		}
		updates = append(updates, u)
	}
	var inserts []Insert
	for i, entry := range listOf(rawInserts) {
		in, err := decodeInsert(entry)
		if err != nil {
			slog.Debug("dropping insert", "index", i, "error", err)
			continue
		}
		inserts = append(inserts, in)
	}

	t := NewTransformation(needs, updates, inserts)
	return &t
}

type rawNeed struct {
	CollectionName string `mapstructure:"collectionName"`
	Ref            string `mapstructure:"ref"`
	Quantity       int64  `mapstructure:"quantity"`
	Wait           *bool  `mapstructure:"wait"`
}

type rawUpdate struct {
	Ref  string `mapstructure:"ref"`
	Wait *bool  `mapstructure:"wait"`
}

type rawUpdateObject struct {
	Property    string `mapstructure:"property"`
	ArrayMethod string `mapstructure:"arrayMethod"`
}

type rawInsert struct {
	CollectionName string `mapstructure:"collectionName"`
	Quantity       int64  `mapstructure:"quantity"`
	Wait           *bool  `mapstructure:"wait"`
}

func decodeNeed(entry any) (Need, error) {
	m, err := requireKeys(entry, "collectionName", "find", "ref")
	if err != nil {
		return Need{}, err
	}
	var rn rawNeed
	if err := decodeInto(m, &rn); err != nil {
		return Need{}, err
	}
	find, err := ir.FromAny(m["find"])
	if err != nil {
		return Need{}, fmt.Errorf("find: %w", err)
	}
	return Need{
		CollectionName: rn.CollectionName,
		Ref:            rn.Ref,
		Find:           find,
		Quantity:       quantityOf(m, rn.Quantity),
		Wait:           rn.Wait,
	}, nil
}

func decodeUpdate(entry any) (Update, error) {
	m, err := requireKeys(entry, "ref", "update")
	if err != nil {
		return Update{}, err
	}
	var ru rawUpdate
	if err := decodeInto(m, &ru); err != nil {
		return Update{}, err
	}

	// A non-list update payload carries no property changes.
	objs := make([]UpdateObject, 0)
	for i, item := range listOf(m["update"]) {
		obj, err := decodeUpdateObject(item)
		if err != nil {
			slog.Debug("dropping update object", "ref", ru.Ref, "index", i, "error", err)
			continue
		}
		objs = append(objs, obj)
	}
	return Update{Ref: ru.Ref, Update: objs, Wait: ru.Wait}, nil
}

func decodeUpdateObject(item any) (UpdateObject, error) {
	m, err := requireKeys(item, "property")
	if err != nil {
		return UpdateObject{}, err
	}
	var ro rawUpdateObject
	if err := decodeInto(m, &ro); err != nil {
		return UpdateObject{}, err
	}
	obj := UpdateObject{Property: ro.Property}
	if v, ok := m["value"]; ok {
		val, err := ir.FromAny(v)
		if err != nil {
			return UpdateObject{}, fmt.Errorf("value: %w", err)
		}
		obj.Value = val
	}
	switch method := ArrayMethod(ro.ArrayMethod); method {
	case ArrayPush, ArrayDelete:
		obj.ArrayMethod = &method
	case "":
	default:
		return UpdateObject{}, fmt.Errorf("unknown arrayMethod %q", ro.ArrayMethod)
	}
	return obj, nil
}

func decodeInsert(entry any) (Insert, error) {
	m, err := requireKeys(entry, "collectionName", "doc")
	if err != nil {
		return Insert{}, err
	}
	var ri rawInsert
	if err := decodeInto(m, &ri); err != nil {
		return Insert{}, err
	}
	doc, err := ir.FromAny(m["doc"])
	if err != nil {
		return Insert{}, fmt.Errorf("doc: %w", err)
	}
	return Insert{
		CollectionName: ri.CollectionName,
		Doc:            doc,
		Quantity:       quantityOf(m, ri.Quantity),
		Wait:           ri.Wait,
	}, nil
}

// requireKeys checks that entry is an object holding a non-null value for every key.
func requireKeys(entry any, keys ...string) (map[string]any, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", entry)
	}
	for _, k := range keys {
		if v, ok := m[k]; !ok || v == nil {
			return nil, fmt.Errorf("missing %s", k)
		}
	}
	return m, nil
}

// decodeInto decodes a raw object into a struct with weak typing,
// so "3" decodes into an int64 and 3 into a string.
// Non-integral numbers are rejected rather than truncated.
func decodeInto(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       integralHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

func integralHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int64 {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		if from.String() != "json.Number" {
			return data, nil
		}
	}
	n, ok := ir.Int64Of(data)
	if !ok {
		return nil, fmt.Errorf("non-integral number %v", data)
	}
	return n, nil
}

// present reports whether key is set to a non-null value.
func present(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func listOf(v any) []any {
	list, _ := v.([]any)
	return list
}

package validate

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
)

// checker accumulates field violations while walking an untyped payload.
type checker struct {
	v errors.ValidationError
}

func (c *checker) add(path, format string, args ...any) {
	c.v.Add(path, format, args...)
}

func (c *checker) err() error {
	if c.v.Len() == 0 {
		return nil
	}
	v := c.v
	return &v
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func (c *checker) array(obj map[string]any, key, path string) ([]any, bool) {
	raw, ok := obj[key]
	if !ok {
		c.add(path, "required array is missing")
		return nil, false
	}
	arr, ok := raw.([]any)
	if !ok {
		c.add(path, "must be an array, got %s", typeName(raw))
		return nil, false
	}
	return arr, true
}

func (c *checker) object(raw any, path string) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		c.add(path, "must be an object, got %s", typeName(raw))
	}
	return obj, ok
}

func (c *checker) id(id, path string) {
	if err := errors.ValidateID(id); err != nil {
		c.add(path, "%s", errors.UserMessage(err))
	}
}

func (c *checker) unique(seen map[string]string, id, path, kind string) {
	if id == "" {
		return
	}
	if first, dup := seen[id]; dup {
		c.add(path, "duplicate %s id %q (first declared at %s)", kind, id, first)
		return
	}
	seen[id] = path
}

func (c *checker) endpoint(nodes map[string]string, ref, path string) {
	if ref == "" {
		return
	}
	if _, ok := nodes[ref]; !ok {
		c.add(path, "references unknown node %q", ref)
	}
}

func (c *checker) reqString(obj map[string]any, key, path string) string {
	p := join(path, key)
	raw, ok := obj[key]
	if !ok || raw == nil {
		c.add(p, "required string is missing")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		c.add(p, "must be a string, got %s", typeName(raw))
	}
	return s
}

func (c *checker) reqID(obj map[string]any, key, path string) string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		c.add(join(path, key), "required string is missing")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		c.add(join(path, key), "must be a string, got %s", typeName(raw))
		return ""
	}
	c.id(s, join(path, key))
	return s
}

func (c *checker) optString(obj map[string]any, key, path string) (string, bool) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		c.add(join(path, key), "must be a string, got %s", typeName(raw))
		return "", false
	}
	return s, true
}

func (c *checker) optNumber(obj map[string]any, key, path string) *float64 {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil
	}
	f, ok := toFloat(raw)
	if !ok {
		c.add(join(path, key), "must be a number, got %s", typeName(raw))
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		c.add(join(path, key), "must be a finite number")
		return nil
	}
	return &f
}

func (c *checker) optBool(obj map[string]any, key, path string) bool {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		c.add(join(path, key), "must be a boolean, got %s", typeName(raw))
	}
	return b
}

func (c *checker) optStrings(obj map[string]any, key, path string) []string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		c.add(join(path, key), "must be an array of strings, got %s", typeName(raw))
		return nil
	}
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			c.add(fmt.Sprintf("%s[%d]", join(path, key), i), "must be a string, got %s", typeName(item))
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *checker) optDate(obj map[string]any, key, path string) *entity.Date {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		d, err := entity.ParseDate(v)
		if err != nil {
			c.add(join(path, key), "%v", err)
			return nil
		}
		return &d
	case time.Time:
		d := entity.DateOf(v)
		return &d
	default:
		c.add(join(path, key), "must be a date string (YYYY-MM-DD), got %s", typeName(raw))
		return nil
	}
}

func (c *checker) node(obj map[string]any, path string, labelRequired bool) entity.Node {
	n := entity.Node{ID: c.reqID(obj, "id", path)}
	if labelRequired {
		n.Label = c.reqString(obj, "label", path)
	} else {
		n.Label, _ = c.optString(obj, "label", path)
	}
	n.Color, _ = c.optString(obj, "color", path)
	n.EntityType, _ = c.optString(obj, "entityType", path)
	n.Jurisdiction, _ = c.optString(obj, "jurisdiction", path)
	n.TaxID, _ = c.optString(obj, "taxId", path)
	n.Officers = c.optStrings(obj, "officers", path)
	n.FilingDueDate = c.optDate(obj, "filingDueDate", path)
	n.IsDraft = c.optBool(obj, "isDraft", path)
	n.TaxResidency, _ = c.optString(obj, "taxResidency", path)
	n.Currency, _ = c.optString(obj, "currency", path)
	n.CITRate = c.optNumber(obj, "citRate", path)
	n.Region, _ = c.optString(obj, "region", path)
	if s, ok := c.optString(obj, "complianceStatus", path); ok {
		if st := entity.ComplianceStatus(s); st.Valid() {
			n.ComplianceStatus = st
		} else {
			c.add(join(path, "complianceStatus"), "unknown compliance status %q (want one of %v)", s, entity.ComplianceStatuses)
		}
	}
	if s, ok := c.optString(obj, "pillarTwoStatus", path); ok {
		if st := entity.PillarTwoStatus(s); st.Valid() {
			n.PillarTwoStatus = st
		} else {
			c.add(join(path, "pillarTwoStatus"), "unknown Pillar Two status %q (want one of %v)", s, entity.PillarTwoStatuses)
		}
	}
	n.EffectiveOwnership = c.optNumber(obj, "effectiveOwnership", path)
	n.Normalize()
	return n
}

func (c *checker) edge(obj map[string]any, path string) entity.Edge {
	e := entity.Edge{
		ID:     c.reqID(obj, "id", path),
		Source: c.reqID(obj, "source", path),
		Target: c.reqID(obj, "target", path),
	}
	e.Label, _ = c.optString(obj, "label", path)
	e.OwnershipPercentage = c.optNumber(obj, "ownershipPercentage", path)
	e.IsDraft = c.optBool(obj, "isDraft", path)
	return e
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func asValidation(err error, target **errors.ValidationError) bool {
	return stderrors.As(err, target)
}

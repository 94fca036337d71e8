package settings

import(
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// A Document is the top level object of a print settings file. Keys
// keeps the order they appear in the file, since layer sections are
// emitted in that order.
type Document struct {
	Keys   []string
	Values map[string]interface{}
}

func (d Document)String() string {
	return fmt.Sprintf("Document%v", d.Keys)
}

// LoadDocument reads and parses a print settings JSON file.
func LoadDocument(filename string) (Document, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Document{}, fmt.Errorf("settings read '%s': %w", filename, err)
	}

	doc, err := Parse(contents)
	if err != nil {
		return doc, fmt.Errorf("settings parse '%s': %w", filename, err)
	}
	return doc, nil
}

// Parse decodes the top level object one key at a time, so that the
// document order survives (a plain map would lose it).
func Parse(b []byte) (Document, error) {
	doc := Document{Values: map[string]interface{}{}}
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return doc, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return doc, fmt.Errorf("%w: top level is not an object", ErrMalformed)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return doc, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return doc, fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
		}

		var val interface{}
		if err := dec.Decode(&val); err != nil {
			return doc, fmt.Errorf("%w: key '%s': %v", ErrMalformed, key, err)
		}

		if _, exists := doc.Values[key]; !exists {
			doc.Keys = append(doc.Keys, key)
		}
		doc.Values[key] = val
	}

	if _, err := dec.Token(); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return doc, nil
}

// section returns the named top level object, or an empty one.
func (d Document)section(key string) map[string]interface{} {
	if m, ok := d.Values[key].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func subsection(m map[string]interface{}, key string) map[string]interface{} {
	if sub, ok := m[key].(map[string]interface{}); ok {
		return sub
	}
	return map[string]interface{}{}
}

func number(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64: return v, true
	case int:     return float64(v), true
	}
	return 0, false
}

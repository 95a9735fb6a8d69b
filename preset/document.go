package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The persisted document is a nested JSON object:
//
//	{"Preset": {"Prefix_": {"old": "new", ...}, ...}, ...}
//
// Key order is meaningful at every level: presets list in creation order,
// prefixes resolve first-match, rules apply top to bottom. encoding/json
// drops object key order when decoding into maps, so the document is built
// and parsed by hand at the token level.

// marshalDocument renders the store as a pretty-printed document.
func marshalDocument(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s.Presets {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, p.Name); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, rs := range p.RuleSets {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, rs.Prefix); err != nil {
				return nil, err
			}
			buf.WriteByte('{')
			for k, r := range rs.Rules {
				if k > 0 {
					buf.WriteByte(',')
				}
				if err := writeKey(&buf, r.Old); err != nil {
					return nil, err
				}
				v, err := json.Marshal(r.New)
				if err != nil {
					return nil, err
				}
				buf.Write(v)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) error {
	enc, err := json.Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(enc)
	buf.WriteByte(':')
	return nil
}

// parseDocument reads a document back into a Store, keeping key order.
// A key repeated at the same level keeps its first position and takes the
// last value.
func parseDocument(data []byte) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}

	s := &Store{}
	index := map[string]int{}
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		p := &Preset{Name: name}
		if err := parsePreset(dec, p); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		if at, ok := index[name]; ok {
			s.Presets[at] = p
			continue
		}
		index[name] = len(s.Presets)
		s.Presets = append(s.Presets, p)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}

func parsePreset(dec *json.Decoder, p *Preset) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	index := map[string]int{}
	for dec.More() {
		prefix, err := stringToken(dec)
		if err != nil {
			return err
		}
		rs := &RuleSet{Prefix: prefix}
		if err := parseRules(dec, rs); err != nil {
			return fmt.Errorf("prefix %q: %w", prefix, err)
		}
		if at, ok := index[prefix]; ok {
			p.RuleSets[at] = rs
			continue
		}
		index[prefix] = len(p.RuleSets)
		p.RuleSets = append(p.RuleSets, rs)
	}
	_, err := dec.Token()
	return err
}

func parseRules(dec *json.Decoder, rs *RuleSet) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	index := map[string]int{}
	for dec.More() {
		old, err := stringToken(dec)
		if err != nil {
			return err
		}
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		target, ok := tok.(string)
		if !ok {
			return fmt.Errorf("rule %q: target must be a string, got %v", old, tok)
		}
		r := Rule{Old: old, New: target}
		if at, dup := index[old]; dup {
			rs.Rules[at] = r
			continue
		}
		index[old] = len(rs.Rules)
		rs.Rules = append(rs.Rules, r)
	}
	_, err := dec.Token()
	return err
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string key, got %v", tok)
	}
	return s, nil
}

package miniyaml

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders the mapping as a JSON object with keys in stored
// order. encoding/json sorts the keys of a Go map; keeping Mapping a slice
// underneath is what makes ordered output possible.
func (m Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendValueJSON(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON renders the list as a JSON array.
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendValueJSON(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendValueJSON(buf *bytes.Buffer, v Value) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case Scalar:
		b, err := json.Marshal(string(v))
		if err != nil {
			return err
		}
		buf.Write(b)
	case List:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendValueJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Mapping:
		buf.WriteByte('{')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := appendValueJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("miniyaml: cannot marshal %T", v)
	}
	return nil
}

// UnmarshalJSON reads a JSON object into the mapping, preserving key order.
// Numbers and booleans become scalars holding their literal text; JSON null
// becomes a nil Value, which the serializer skips.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("miniyaml: expected JSON object, got %v", tok)
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func decodeObject(dec *json.Decoder) (Mapping, error) {
	result := Mapping{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("miniyaml: object key %v is not a string", keyTok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		result = append(result, Entry{Key: key, Value: value})
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeArray(dec *json.Decoder) (List, error) {
	result := List{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("miniyaml: unexpected delimiter %v", tok)
	case string:
		return Scalar(tok), nil
	case json.Number:
		return Scalar(tok.String()), nil
	case bool:
		if tok {
			return Scalar("true"), nil
		}
		return Scalar("false"), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("miniyaml: unexpected token %v", tok)
}

// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package otns

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MissingKeyError is returned by CoapEvent accessors for keys the simulator did not report.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("coap event has no key %q", e.Key)
}

// CoapEvent is one CoAP message reported by the `coaps` command. The simulator owns the schema
// and may add keys, so keys are kept in the reported order with loosely typed values.
type CoapEvent struct {
	keys   []string
	values map[string]interface{}
}

// Keys returns the keys in the order the simulator reported them.
func (e *CoapEvent) Keys() []string {
	return append([]string(nil), e.keys...)
}

// Has returns true if the event has key.
func (e *CoapEvent) Has(key string) bool {
	_, ok := e.values[key]
	return ok
}

// Get returns the raw value of key.
func (e *CoapEvent) Get(key string) (interface{}, error) {
	v, ok := e.values[key]
	if !ok {
		return nil, &MissingKeyError{Key: key}
	}
	return v, nil
}

func (e *CoapEvent) String(key string) (string, error) {
	v, err := e.Get(key)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(s), nil
	}
}

func (e *CoapEvent) Int(key string) (int, error) {
	v, err := e.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, errors.Errorf("coap event key %q is %T, not an integer", key, v)
}

func (e *CoapEvent) Float(key string) (float64, error) {
	v, err := e.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, errors.Errorf("coap event key %q is %T, not a number", key, v)
}

// List returns a nested list value, such as the receivers of a multicast message.
func (e *CoapEvent) List(key string) ([]interface{}, error) {
	v, err := e.Get(key)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("coap event key %q is %T, not a list", key, v)
	}
	return l, nil
}

// MarshalYAML writes the event back as a mapping in its original key order.
func (e *CoapEvent) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range e.keys {
		var value yaml.Node
		if err := value.Encode(e.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &value)
	}
	return node, nil
}

// decodeCoaps treats the whole response body as one YAML document holding a list of mappings.
func decodeCoaps(output []string) ([]*CoapEvent, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(strings.Join(output, "\n")), &doc); err != nil {
		return nil, protocolErrorf(output, "bad coaps yaml: %v", err)
	}

	events := []*CoapEvent{}
	if doc.Kind == 0 {
		return events, nil
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return events, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, protocolErrorf(output, "coaps yaml is not a list")
	}

	for _, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, protocolErrorf(output, "coaps yaml item is not a mapping")
		}
		evt := &CoapEvent{values: make(map[string]interface{}, len(item.Content)/2)}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := item.Content[i].Value
			var value interface{}
			if err := item.Content[i+1].Decode(&value); err != nil {
				return nil, protocolErrorf(output, "coaps yaml key %s: %v", key, err)
			}
			if _, dup := evt.values[key]; !dup {
				evt.keys = append(evt.keys, key)
			}
			evt.values[key] = value
		}
		events = append(events, evt)
	}
	return events, nil
}

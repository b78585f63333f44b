package durable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNamespace is returned for namespaces that could collide with
// another namespace's keys.
var ErrInvalidNamespace = errors.New("durable: invalid namespace")

// ValidateNamespace reports whether ns can prefix keys.
func ValidateNamespace(ns string) error {
	if ns == "" || strings.Contains(ns, "/") {
		return fmt.Errorf("%w: %q must be non-empty and must not contain '/'", ErrInvalidNamespace, ns)
	}
	return nil
}

// layout builds every key of one namespace. Integers are big-endian so that
// byte order equals numeric order.
//
//	<ns>/g/a/<level:1><key:4><neighbor:4>  edge, empty value
//	<ns>/g/entry                           <level:1><key:4>
//	<ns>/r/v/<key:4>                       msgpack vector record
//	<ns>/r/f/<foreign>                     <key:4>
//	<ns>/r/next                            <key:4>
type layout struct {
	adjacency []byte
	entry     []byte
	vectors   []byte
	foreign   []byte
	next      []byte
}

func newLayout(ns string) layout {
	return layout{
		adjacency: []byte(ns + "/g/a/"),
		entry:     []byte(ns + "/g/entry"),
		vectors:   []byte(ns + "/r/v/"),
		foreign:   []byte(ns + "/r/f/"),
		next:      []byte(ns + "/r/next"),
	}
}

func (l layout) levelPrefix(level uint8) []byte {
	return append(clone(l.adjacency), level)
}

func (l layout) vertexPrefix(level uint8, key uint32) []byte {
	return binary.BigEndian.AppendUint32(l.levelPrefix(level), key)
}

func (l layout) edge(level uint8, key, neighbor uint32) []byte {
	return binary.BigEndian.AppendUint32(l.vertexPrefix(level, key), neighbor)
}

// splitEdge decodes the vertex and neighbor of an edge key.
func (l layout) splitEdge(k []byte) (key, neighbor uint32, err error) {
	rest := k[len(l.adjacency):]
	if len(rest) != 9 {
		return 0, 0, fmt.Errorf("durable: malformed edge key %x", k)
	}
	return binary.BigEndian.Uint32(rest[1:5]), binary.BigEndian.Uint32(rest[5:9]), nil
}

func (l layout) vector(key uint32) []byte {
	return binary.BigEndian.AppendUint32(clone(l.vectors), key)
}

func (l layout) foreignKey(foreign string) []byte {
	return append(clone(l.foreign), foreign...)
}

func encodeEntry(level uint8, key uint32) []byte {
	return binary.BigEndian.AppendUint32([]byte{level}, key)
}

func decodeEntry(b []byte) (uint8, uint32, error) {
	if len(b) != 5 {
		return 0, 0, fmt.Errorf("durable: malformed entry point %x", b)
	}
	return b[0], binary.BigEndian.Uint32(b[1:]), nil
}

func encodeKey(key uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, key)
}

func decodeKey(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("durable: malformed key %x", b)
	}
	return binary.BigEndian.Uint32(b), nil
}

func clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)+9), b...)
}

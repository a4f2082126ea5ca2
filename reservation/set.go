package reservation

import (
	"errors"

	"github.com/goccy/go-json"
)

var errEmptyEntry = errors.New("empty id in stored ledger")

// idSet is an insertion-ordered set of bike ids.
type idSet struct {
	ids   []string
	index map[string]struct{}
}

func newIDSet(ids []string) *idSet {
	s := &idSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// decodeSet parses a stored JSON array of strings. Values written by older
// clients may contain duplicates; they are collapsed.
func decodeSet(raw []byte) (*idSet, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == "" {
			return nil, errEmptyEntry
		}
	}
	return newIDSet(ids), nil
}

func (s *idSet) contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// add reports whether id was inserted.
func (s *idSet) add(id string) bool {
	if s.contains(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// remove reports whether id was present.
func (s *idSet) remove(id string) bool {
	if !s.contains(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// list returns a copy, never nil, so it always encodes as a JSON array.
func (s *idSet) list() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

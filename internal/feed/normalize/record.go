package normalize

import (
	"bytes"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"pricefeed_api/internal/feed/catalog"
)

// Record is one flattened product row of the feed.
type Record struct {
	PageUnique   int64               `json:"page_unique"`
	Title        string              `json:"title"`
	Subtitle     string              `json:"subtitle"`
	ParentID     int64               `json:"parent_id"`
	CurrentPrice decimal.NullDecimal `json:"current_price"`
	OldPrice     decimal.NullDecimal `json:"old_price"`
	Availability catalog.StockStatus `json:"availability"`
	CategoryName *string             `json:"category_name"`
	ImageLink    *string             `json:"image_link"`
	PageURL      string              `json:"page_url"`
	ShortDesc    string              `json:"short_desc"`
	// Spec is empty or holds exactly one table.
	Spec      []*SpecTable `json:"spec"`
	Date      *time.Time   `json:"date"`
	Registry  string       `json:"registry"`
	Guarantee string       `json:"guarantee"`
}

// SpecTable is a string map that remembers insertion order.
type SpecTable struct {
	keys   []string
	values map[string]string
}

func NewSpecTable() *SpecTable {
	return &SpecTable{values: make(map[string]string)}
}

func (t *SpecTable) Len() int {
	return len(t.keys)
}

func (t *SpecTable) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

func (t *SpecTable) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Set stores value under key. An existing key keeps its position.
func (t *SpecTable) Set(key, value string) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// SetIfAbsent stores value only when key is not present yet.
func (t *SpecTable) SetIfAbsent(key, value string) bool {
	if t.Has(key) {
		return false
	}
	t.Set(key, value)
	return true
}

// Keys returns the keys in insertion order.
func (t *SpecTable) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *SpecTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(t.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

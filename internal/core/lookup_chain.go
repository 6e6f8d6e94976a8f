package core

import (
	"strings"

	"resmerge/internal/types"
)

// LookupChain records the values a recording resolver visits, in order.
// Immediate repeats of the same value are dropped. The caller resets the
// chain between lookups.
type LookupChain struct {
	values []*types.ResourceValue
}

func NewLookupChain() *LookupChain {
	return &LookupChain{}
}

func (c *LookupChain) Append(value *types.ResourceValue) {
	if value == nil {
		return
	}
	if n := len(c.values); n > 0 && c.values[n-1] == value {
		return
	}
	c.values = append(c.values, value)
}

func (c *LookupChain) Last() *types.ResourceValue {
	if len(c.values) == 0 {
		return nil
	}
	return c.values[len(c.values)-1]
}

func (c *LookupChain) Values() []*types.ResourceValue {
	out := make([]*types.ResourceValue, len(c.values))
	copy(out, c.values)
	return out
}

func (c *LookupChain) Len() int {
	return len(c.values)
}

func (c *LookupChain) Reset() {
	c.values = c.values[:0]
}

// DisplayString renders the chain as "name => v1 => v2". Values that are
// not references are shortened to their last path element, and a value
// equal to the one before it is skipped.
func (c *LookupChain) DisplayString(name string) string {
	var b strings.Builder
	b.WriteString(name)
	prev := name
	for _, element := range c.values {
		if element == nil || element.Value == "" {
			continue
		}
		text := element.Value
		if text == prev {
			continue
		}
		b.WriteString(" => ")
		if !strings.HasPrefix(text, types.PrefixThemeRef) && !strings.HasPrefix(text, types.PrefixResourceRef) {
			if end := strings.LastIndexAny(text, `/\`); end >= 0 {
				text = text[end+1:]
			}
		}
		b.WriteString(text)
		prev = element.Value
	}
	return b.String()
}

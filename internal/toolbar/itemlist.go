// ABOUTME: Ordered item lists shared by the toolbar sides and menus
// ABOUTME: Supports list-style positional insert, lookup, removal and typed search

package toolbar

import (
	"errors"
)

// ErrItemNotFound is returned when an item is not in the list.
var ErrItemNotFound = errors.New("item not found")

// Position selects where an item is inserted. The zero value appends.
type Position struct {
	index int
	set   bool
}

// Append adds the item at the end of the list.
var Append = Position{}

// At inserts before index i. Negative values count from the end and
// out-of-range values are clamped, like a list insert.
func At(i int) Position {
	return Position{index: i, set: true}
}

// ItemList is an ordered list of items.
type ItemList struct {
	items []Item
}

// insert places item at pos and returns it.
func (l *ItemList) insert(item Item, pos Position) Item {
	if !pos.set {
		l.items = append(l.items, item)
		return item
	}

	n := len(l.items)
	i := pos.index
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}

	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item
	return item
}

// AddItem inserts an existing item.
func (l *ItemList) AddItem(item Item, pos Position) Item {
	return l.insert(item, pos)
}

// ItemPosition returns the index of item.
func (l *ItemList) ItemPosition(item Item) (int, error) {
	for i, it := range l.items {
		if it == item {
			return i, nil
		}
	}
	return -1, ErrItemNotFound
}

// RemoveItem removes item from the list.
func (l *ItemList) RemoveItem(item Item) error {
	i, err := l.ItemPosition(item)
	if err != nil {
		return err
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Items returns a copy of the list.
func (l *ItemList) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// ItemCount returns the number of items.
func (l *ItemList) ItemCount() int {
	return len(l.items)
}

// FindItems returns the items for which match reports true, in list order.
func (l *ItemList) FindItems(match func(Item) bool) []Item {
	var out []Item
	for _, it := range l.items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// FindItem returns the first item for which match reports true.
func (l *ItemList) FindItem(match func(Item) bool) (Item, bool) {
	for _, it := range l.items {
		if match(it) {
			return it, true
		}
	}
	return nil, false
}

// ToMaps snapshots every item.
func (l *ItemList) ToMaps() []map[string]any {
	out := make([]map[string]any, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it.ToMap())
	}
	return out
}

// OfKind matches items whose Kind equals kind.
func OfKind(kind string) func(Item) bool {
	return func(it Item) bool { return it.Kind() == kind }
}

// Named matches link-like items and menus by display name.
func Named(name string) func(Item) bool {
	return func(it Item) bool {
		switch v := it.(type) {
		case *LinkItem:
			return v.Name == name
		case *SideframeItem:
			return v.Name == name
		case *ModalItem:
			return v.Name == name
		case *AjaxItem:
			return v.Name == name
		case *Menu:
			return v.Name == name
		case *SubMenu:
			return v.Name == name
		}
		return false
	}
}

func (l *ItemList) addLinkItem(name, url string, opts []Option) *LinkItem {
	o := collect(opts)
	item := &LinkItem{baseItem: newBaseItem(name, url, o)}
	l.insert(item, o.position)
	return item
}

func (l *ItemList) addSideframeItem(name, url string, opts []Option) *SideframeItem {
	o := collect(opts)
	item := &SideframeItem{baseItem: newBaseItem(name, url, o), OnClose: o.onClose}
	l.insert(item, o.position)
	return item
}

func (l *ItemList) addModalItem(name, url string, opts []Option) *ModalItem {
	o := collect(opts)
	item := &ModalItem{baseItem: newBaseItem(name, url, o), OnClose: o.onClose}
	l.insert(item, o.position)
	return item
}

func (l *ItemList) addAjaxItem(name, action, csrfToken string, opts []Option) *AjaxItem {
	o := collect(opts)
	item := &AjaxItem{
		baseItem:  newBaseItem(name, "", o),
		Action:    action,
		Data:      o.data,
		Question:  o.question,
		CSRFToken: csrfToken,
	}
	l.insert(item, o.position)
	return item
}

// Package storage describes what must be written into browser-side
// persistent storage to represent an authenticated session, and injects it
// through the Playwright automation boundary.
package storage

import "time"

// State is a provider-agnostic storage payload. Each provider populates the
// backends its client SDK reads; in the current providers exactly one backend
// is used (Firebase seeds IndexedDB only), but mixed backends are supported.
type State struct {
	IndexedDB      []IndexedDBRecord
	LocalStorage   []KeyValue
	SessionStorage []KeyValue
	Cookies        []Cookie
}

// Empty reports whether the state would write nothing.
func (s *State) Empty() bool {
	return s == nil ||
		(len(s.IndexedDB) == 0 && len(s.LocalStorage) == 0 &&
			len(s.SessionStorage) == 0 && len(s.Cookies) == 0)
}

// IndexedDBRecord is one value put into an object store. When KeyPath is set
// the store uses in-line keys and Value must carry the key under that path;
// otherwise Key is passed explicitly to put().
type IndexedDBRecord struct {
	Database string
	Store    string
	Version  uint64
	KeyPath  string
	Key      string
	// Value must be JSON-serializable: it crosses the automation boundary
	// embedded in the init script.
	Value any
}

// KeyValue is one LocalStorage or SessionStorage entry.
type KeyValue struct {
	Key   string
	Value string
}

// Cookie is one cookie to set on the browser context.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
	SameSite string // "Lax", "Strict", or "None"
}

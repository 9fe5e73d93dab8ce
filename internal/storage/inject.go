package storage

import (
	"encoding/json"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/authseed/internal/errs"
)

// Target is the subset of the Playwright page/context surface needed to
// register a script that runs before any page script on subsequent
// navigations. Both playwright.Page and playwright.BrowserContext satisfy it.
type Target interface {
	AddInitScript(script playwright.Script) error
}

// CookieTarget is the subset of the Playwright browser-context surface
// needed to set cookies.
type CookieTarget interface {
	AddCookies(cookies []playwright.OptionalCookie) error
}

// initScriptAsset is the fixed in-browser logic. The only per-call variation
// is the embedded JSON payload. IndexedDB writes complete asynchronously
// after registration; the orchestrator's settle delay covers them. A failing
// open is swallowed: a broken profile database must not break the page.
const initScriptAsset = `(() => {
  const payload = __AUTHSEED_STATE__;
  for (const entry of payload.localStorage || []) {
    try { window.localStorage.setItem(entry.key, entry.value); } catch (err) {}
  }
  for (const entry of payload.sessionStorage || []) {
    try { window.sessionStorage.setItem(entry.key, entry.value); } catch (err) {}
  }
  for (const record of payload.indexedDB || []) {
    try {
      const open = indexedDB.open(record.database, record.version);
      open.onupgradeneeded = () => {
        const db = open.result;
        if (!db.objectStoreNames.contains(record.store)) {
          if (record.keyPath) {
            db.createObjectStore(record.store, { keyPath: record.keyPath });
          } else {
            db.createObjectStore(record.store);
          }
        }
      };
      open.onsuccess = () => {
        const db = open.result;
        if (!db.objectStoreNames.contains(record.store)) {
          db.close();
          return;
        }
        const tx = db.transaction(record.store, 'readwrite');
        if (record.keyPath) {
          tx.objectStore(record.store).put(record.value);
        } else {
          tx.objectStore(record.store).put(record.value, record.key);
        }
        tx.oncomplete = () => db.close();
        tx.onerror = () => db.close();
      };
      open.onerror = () => {};
    } catch (err) {}
  }
})();`

const payloadPlaceholder = "__AUTHSEED_STATE__"

type scriptRecord struct {
	Database string `json:"database"`
	Store    string `json:"store"`
	Version  uint64 `json:"version"`
	KeyPath  string `json:"keyPath,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    any    `json:"value"`
}

type scriptEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type scriptPayload struct {
	IndexedDB      []scriptRecord `json:"indexedDB,omitempty"`
	LocalStorage   []scriptEntry  `json:"localStorage,omitempty"`
	SessionStorage []scriptEntry  `json:"sessionStorage,omitempty"`
}

// BuildInitScript renders the init-script asset with the state's script-side
// entries embedded. Returns "" when the state has nothing for the script to
// write (cookies are set out of band).
func BuildInitScript(state *State) (string, error) {
	if state == nil {
		return "", nil
	}
	payload := scriptPayload{}
	for _, rec := range state.IndexedDB {
		payload.IndexedDB = append(payload.IndexedDB, scriptRecord{
			Database: rec.Database,
			Store:    rec.Store,
			Version:  rec.Version,
			KeyPath:  rec.KeyPath,
			Key:      rec.Key,
			Value:    rec.Value,
		})
	}
	for _, kv := range state.LocalStorage {
		payload.LocalStorage = append(payload.LocalStorage, scriptEntry(kv))
	}
	for _, kv := range state.SessionStorage {
		payload.SessionStorage = append(payload.SessionStorage, scriptEntry(kv))
	}
	if len(payload.IndexedDB) == 0 && len(payload.LocalStorage) == 0 && len(payload.SessionStorage) == 0 {
		return "", nil
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", errs.Wrap(errs.InjectionFailed, "encode storage payload", err)
	}
	return strings.Replace(initScriptAsset, payloadPlaceholder, string(encoded), 1), nil
}

// Inject registers the state's init script on the target. Registration
// failure is InjectionFailed; failure of the script once running in-browser
// is not observed here.
func Inject(target Target, state *State) error {
	script, err := BuildInitScript(state)
	if err != nil {
		return err
	}
	if script == "" {
		return nil
	}
	if err := target.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
		return errs.Wrap(errs.InjectionFailed, "register storage init script", err)
	}
	return nil
}

// AddCookies sets the state's cookies on the browser context.
func AddCookies(target CookieTarget, state *State) error {
	if state == nil || len(state.Cookies) == 0 {
		return nil
	}
	cookies := make([]playwright.OptionalCookie, 0, len(state.Cookies))
	for _, c := range state.Cookies {
		cookie := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Domain != "" {
			cookie.Domain = playwright.String(c.Domain)
		}
		if c.Path != "" {
			cookie.Path = playwright.String(c.Path)
		}
		if !c.Expires.IsZero() {
			cookie.Expires = playwright.Float(float64(c.Expires.Unix()))
		}
		switch c.SameSite {
		case "Lax":
			cookie.SameSite = playwright.SameSiteAttributeLax
		case "Strict":
			cookie.SameSite = playwright.SameSiteAttributeStrict
		case "None":
			cookie.SameSite = playwright.SameSiteAttributeNone
		}
		cookies = append(cookies, cookie)
	}
	if err := target.AddCookies(cookies); err != nil {
		return errs.Wrap(errs.InjectionFailed, "add cookies", err)
	}
	return nil
}

package dict

import "sync"

// Cache caches a loaded Dictionary by its source path. The compiler
// package does not consult a Cache; a caller's sema.Loader may use one
// so that scripts loading the same dictionary file parse it only once.
type Cache interface {
	// Get retrieves a previously loaded Dictionary. ok is false on a miss.
	Get(path string) (d *Dictionary, ok bool)

	// Set stores a Dictionary under path.
	Set(path string, d *Dictionary)

	// Delete removes path's entry, if any.
	Delete(path string)

	// Clear removes every entry.
	Clear()
}

// memoryCache is the default in-process Cache implementation.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Dictionary
}

// NewMemoryCache returns a Cache backed by an in-process map. It is safe
// for concurrent use, such as from a Loader shared by the concurrent
// per-script compiles of compiler.CompileFiles.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]*Dictionary)}
}

func (c *memoryCache) Get(path string) (*Dictionary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[path]
	return d, ok
}

func (c *memoryCache) Set(path string, d *Dictionary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = d
}

func (c *memoryCache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Dictionary)
}

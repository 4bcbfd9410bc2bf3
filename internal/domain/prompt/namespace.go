package prompt

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Namespaces assigns a namespace to every registered directory and guarantees
// no two directories share one. The first directory to claim a namespace keeps
// the plain form; later directories collapsing to the same namespace get a
// short path-hash suffix. Registration order follows configuration order, so
// the assignment is stable across restarts.
type Namespaces struct {
	mu    sync.RWMutex
	byDir map[string]string
	byNS  map[string]string
}

func NewNamespaces() *Namespaces {
	return &Namespaces{
		byDir: make(map[string]string),
		byNS:  make(map[string]string),
	}
}

// Register returns the namespace for directory, assigning one on first sight.
func (n *Namespaces) Register(directory string) string {
	dir := filepath.Clean(directory)

	n.mu.Lock()
	defer n.mu.Unlock()

	if ns, ok := n.byDir[dir]; ok {
		return ns
	}

	ns := Namespace(dir)
	if owner, taken := n.byNS[ns]; taken && owner != dir {
		ns = disambiguate(ns, dir)
	}
	n.byDir[dir] = ns
	n.byNS[ns] = dir
	return ns
}

// Lookup returns the namespace already assigned to directory.
func (n *Namespaces) Lookup(directory string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ns, ok := n.byDir[filepath.Clean(directory)]
	return ns, ok
}

// Directory inverts Register.
func (n *Namespaces) Directory(namespace string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	dir, ok := n.byNS[namespace]
	return dir, ok
}

// Unregister releases the namespace held by directory.
func (n *Namespaces) Unregister(directory string) {
	dir := filepath.Clean(directory)

	n.mu.Lock()
	defer n.mu.Unlock()

	if ns, ok := n.byDir[dir]; ok {
		delete(n.byDir, dir)
		delete(n.byNS, ns)
	}
}

func disambiguate(ns, dir string) string {
	suffix := fmt.Sprintf("%016x", xxhash.Sum64String(dir))[:6]
	if ns == "" {
		return suffix
	}
	return ns + "-" + suffix
}

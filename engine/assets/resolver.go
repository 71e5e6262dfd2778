package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/gondola/engine/assets/loaders"
	"github.com/spaghettifunk/gondola/engine/core"
)

/**
 * @brief Resolves the relative uris found in asset accessors against a
 * root directory on disk and optionally watches that directory for
 * changes, publishing them on an event bus.
 *
 * Resolution never leaves the root: uris with traversal segments or
 * absolute paths are rejected.
 */
type Resolver struct {
	root   string
	binary *loaders.BinaryLoader
	bus    *core.EventBus

	mutex    sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	isClosed bool
}

func NewResolver(root string) (*Resolver, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("assets: resolver root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets: resolver root '%s' is not a directory", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		root:   abs,
		binary: &loaders.BinaryLoader{},
		bus:    core.NewEventBus(),
	}, nil
}

// Bus returns the event bus change notifications are published on.
func (r *Resolver) Bus() *core.EventBus {
	return r.bus
}

// Resolve turns a relative asset uri into an absolute path inside the
// resolver root.
func (r *Resolver) Resolve(uri string) (string, error) {
	unescaped, err := url.PathUnescape(uri)
	if err != nil {
		return "", fmt.Errorf("assets: malformed uri '%s': %w", uri, err)
	}
	if unescaped == "" {
		return "", errors.New("assets: empty uri")
	}
	if filepath.IsAbs(unescaped) || strings.HasPrefix(unescaped, "/") {
		return "", fmt.Errorf("assets: absolute uri '%s' rejected", uri)
	}

	path := filepath.Join(r.root, filepath.FromSlash(unescaped))
	if path != r.root && !strings.HasPrefix(path, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("assets: uri '%s' escapes the resolver root", uri)
	}
	return path, nil
}

// ReadURI fetches the bytes behind a uri. Base64 data uris are decoded
// in place, everything else is read from disk relative to the root.
func (r *Resolver) ReadURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		comma := strings.IndexByte(uri, ',')
		if comma < 0 {
			return nil, fmt.Errorf("assets: malformed data uri")
		}
		data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("assets: malformed data uri: %w", err)
		}
		return data, nil
	}

	path, err := r.Resolve(uri)
	if err != nil {
		return nil, err
	}
	res, err := r.binary.Load(path)
	if err != nil {
		return nil, fmt.Errorf("assets: uri '%s': %w", uri, err)
	}
	return res.Data, nil
}

// Watch starts publishing filesystem changes under the root on the bus.
func (r *Resolver) Watch() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.isClosed {
		return errors.New("assets: resolver already closed")
	}
	if r.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.watcher = watcher
	r.done = make(chan struct{})

	if err := r.watchRecursive(r.root); err != nil {
		watcher.Close()
		r.watcher = nil
		return err
	}

	go r.start()
	return nil
}

func (r *Resolver) start() {
	for {
		select {
		case e, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					r.watchRecursive(e.Name)
				}
				continue
			}
			uri := r.relativeURI(e.Name)
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				r.bus.Fire(core.EVENT_CODE_ASSET_CHANGED, r, core.EventContext{URI: uri})
			}
			if e.Op&fsnotify.Remove != 0 {
				r.bus.Fire(core.EVENT_CODE_ASSET_REMOVED, r, core.EventContext{URI: uri})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %v", err)
			r.bus.Fire(core.EVENT_CODE_ASSET_WATCH_ERROR, r, core.EventContext{Message: err.Error()})

		case <-r.done:
			return
		}
	}
}

func (r *Resolver) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return r.watcher.Add(walkPath)
		}
		return nil
	})
}

func (r *Resolver) relativeURI(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// Close stops the watcher. The resolver cannot be reused afterwards.
func (r *Resolver) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.isClosed {
		return nil
	}
	r.isClosed = true
	if r.watcher != nil {
		close(r.done)
		return r.watcher.Close()
	}
	return nil
}

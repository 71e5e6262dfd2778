/*
Command line entry point: imports a glTF asset into a headless engine,
resolves its external data from disk and prints what was created. Useful
for validating assets before they are shipped.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spaghettifunk/gondola/engine/assets"
	"github.com/spaghettifunk/gondola/engine/containers"
	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/gltf"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

func main() {
	var (
		assetPath  = flag.String("asset", "", "path to the .gltf or .glb file to import")
		configPath = flag.String("config", "", "optional importer options file (toml)")
		watch      = flag.Bool("watch", false, "keep running and refresh external data on change")
	)
	flag.Parse()

	if *assetPath == "" {
		core.LogFatal("no asset given, use -asset path/to/scene.gltf")
	}

	options := gltf.DefaultOptions()
	if *configPath != "" {
		var err error
		if options, err = gltf.LoadOptionsFile(*configPath); err != nil {
			core.LogFatal(err.Error())
		}
	}

	engine, err := renderer.NewEngine(renderer.NewHeadlessBackend())
	if err != nil {
		core.LogFatal(err.Error())
	}
	defer engine.Shutdown()

	loader, err := gltf.NewAssetLoader(engine, options)
	if err != nil {
		core.LogFatal(err.Error())
	}

	payload, err := os.ReadFile(*assetPath)
	if err != nil {
		core.LogFatal(err.Error())
	}

	var asset *gltf.Asset
	if strings.EqualFold(filepath.Ext(*assetPath), ".glb") {
		asset, err = loader.CreateAssetFromBinary(payload)
	} else {
		asset, err = loader.CreateAssetFromJSON(payload)
	}
	if err != nil {
		core.LogFatal(err.Error())
	}
	defer loader.DestroyAsset(asset)

	resolver, err := assets.NewResolver(filepath.Dir(*assetPath))
	if err != nil {
		core.LogFatal(err.Error())
	}
	defer resolver.Close()

	fulfiller := assets.NewFulfiller(resolver, options)
	if err := fulfiller.FulfilAsset(asset); err != nil {
		core.LogError("fulfilment incomplete: %v", err)
	}

	core.LogInfo("asset bounds: min=(%.2f, %.2f, %.2f) max=(%.2f, %.2f, %.2f)",
		asset.Bounds().Min.X, asset.Bounds().Min.Y, asset.Bounds().Min.Z,
		asset.Bounds().Max.X, asset.Bounds().Max.Y, asset.Bounds().Max.Z)
	core.LogInfo("materials cached: %d", loader.MaterialsCount())

	if !*watch {
		return
	}

	// Re-fulfil the asset when files it references change on disk.
	pending := containers.NewRingQueue[string](64)
	resolver.Bus().Register(core.EVENT_CODE_ASSET_CHANGED, "main", func(code core.EventCode, sender interface{}, data core.EventContext) bool {
		if err := pending.Enqueue(data.URI); err != nil {
			core.LogWarn("change queue full, dropping %s", data.URI)
		}
		return false
	})
	if err := resolver.Watch(); err != nil {
		core.LogFatal(err.Error())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	core.LogInfo("watching %s, press ctrl+c to stop", filepath.Dir(*assetPath))
	for {
		select {
		case <-sigCh:
			return
		case <-time.After(250 * time.Millisecond):
		}

		refreshed := false
		for !pending.IsEmpty() {
			uri, err := pending.Dequeue()
			if err != nil {
				break
			}
			core.LogInfo("change detected: %s", uri)
			refreshed = true
		}
		if refreshed {
			if err := fulfiller.FulfilAsset(asset); err != nil {
				core.LogError("refresh incomplete: %v", err)
			}
		}
	}
}

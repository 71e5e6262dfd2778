package gltf

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

// importer holds the per-load state while a document is turned into an
// Asset. It is discarded once the asset is returned.
type importer struct {
	loader  *AssetLoader
	engine  *renderer.Engine
	doc     *gltf.Document
	options Options
	asset   *Asset

	// per glTF image index, shared between textures sampling the same image
	imageTextures map[int]*renderer.Texture

	nodeTransforms []*math.Transform
	nodeEntities   []renderer.Entity

	// renderables created per node, needed by the skin pass
	nodeRenderables map[int][]*renderer.Renderable

	hasBounds bool
}

func (l *AssetLoader) createAsset(doc *gltf.Document) (*Asset, error) {
	clock := core.NewClock()
	clock.Start()

	im := &importer{
		loader:  l,
		engine:  l.engine,
		doc:     doc,
		options: l.options,
		asset: &Asset{
			id:     uuid.New(),
			engine: l.engine,
		},
		imageTextures:   make(map[int]*renderer.Texture),
		nodeRenderables: make(map[int][]*renderer.Renderable),
	}

	if err := im.run(); err != nil {
		im.asset.release()
		return nil, err
	}

	l.assets[im.asset] = struct{}{}

	clock.Update()
	core.LogInfo("asset %s imported in %s: %d entities, %d material instances, %d deferred buffer ranges, %d deferred images",
		im.asset.id, clock.Elapsed(), len(im.asset.entities), len(im.asset.instances),
		len(im.asset.bufferAccessors), len(im.asset.pixelAccessors))

	return im.asset, nil
}

func (im *importer) run() error {
	im.buildNodeGraph()

	for nodeIndex, node := range im.doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		if int(*node.Mesh) >= len(im.doc.Meshes) {
			return fmt.Errorf("gltf: node '%s' references mesh %d out of range", node.Name, *node.Mesh)
		}
		if err := im.importMesh(nodeIndex, int(*node.Mesh)); err != nil {
			return err
		}
	}

	if err := im.importSkins(); err != nil {
		return err
	}
	if err := im.importLights(); err != nil {
		return err
	}
	im.importCamera()

	return nil
}

// buildNodeGraph creates one entity and one transform per document node
// and links the transforms into their hierarchy.
func (im *importer) buildNodeGraph() {
	doc := im.doc
	im.nodeTransforms = make([]*math.Transform, len(doc.Nodes))
	im.nodeEntities = make([]renderer.Entity, len(doc.Nodes))

	for i, node := range doc.Nodes {
		im.nodeTransforms[i] = nodeLocalTransform(node)
		name := node.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		ent := im.engine.CreateEntity(name)
		im.nodeEntities[i] = ent
		im.asset.entities = append(im.asset.entities, ent)
	}

	for i, node := range doc.Nodes {
		for _, child := range node.Children {
			if int(child) >= len(doc.Nodes) {
				core.LogWarn("node '%s' references child %d out of range, ignored", node.Name, child)
				continue
			}
			im.nodeTransforms[child].Parent = im.nodeTransforms[i]
		}
	}
}

// nodeLocalTransform converts the node TRS, or its pre-composed matrix,
// into an engine transform.
func nodeLocalTransform(node *gltf.Node) *math.Transform {
	var identity16 [16]float32
	identity16[0], identity16[5], identity16[10], identity16[15] = 1, 1, 1, 1

	if node.Matrix != ([16]float32{}) && node.Matrix != identity16 {
		return math.TransformFromMatrix(math.Mat4{Data: node.Matrix})
	}

	position := math.NewVec3(float32(node.Translation[0]), float32(node.Translation[1]), float32(node.Translation[2]))
	rotation := math.Quaternion{
		X: float32(node.Rotation[0]),
		Y: float32(node.Rotation[1]),
		Z: float32(node.Rotation[2]),
		W: float32(node.Rotation[3]),
	}
	if rotation == (math.Quaternion{}) {
		rotation = math.NewQuatIdentity()
	}
	scale := math.NewVec3(float32(node.Scale[0]), float32(node.Scale[1]), float32(node.Scale[2]))
	if scale == (math.Vec3{}) {
		scale = math.NewVec3One()
	}
	return math.TransformFromPositionRotationScale(position, rotation, scale)
}

func (im *importer) importMesh(nodeIndex, meshIndex int) error {
	mesh := im.doc.Meshes[meshIndex]
	world := im.nodeTransforms[nodeIndex].GetWorld()

	for primIndex, prim := range mesh.Primitives {
		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", meshIndex)
		}
		if len(mesh.Primitives) > 1 {
			name = fmt.Sprintf("%s.%d", name, primIndex)
		}

		geometry, err := im.importPrimitive(prim, name)
		if err != nil {
			return err
		}
		if geometry == nil {
			// unsupported primitive, already warned about
			continue
		}

		instance, err := im.materialInstanceFor(prim, name, geometry.hasVertexColors, im.doc.Nodes[nodeIndex].Skin != nil)
		if err != nil {
			return err
		}

		renderable := &renderer.Renderable{
			Name:             name,
			VertexBuffer:     geometry.vertexBuffer,
			IndexBuffer:      geometry.indexBuffer,
			MaterialInstance: instance,
			WorldMatrix:      world,
			Bounds:           geometry.bounds,
			Proxy:            geometry.proxy,
		}

		// The first primitive lives on the node entity, the rest get
		// sibling entities sharing the same world matrix.
		ent := im.nodeEntities[nodeIndex]
		if primIndex > 0 {
			ent = im.engine.CreateEntity(name)
			im.asset.entities = append(im.asset.entities, ent)
		}
		im.engine.SetRenderable(ent, renderable)
		im.nodeRenderables[nodeIndex] = append(im.nodeRenderables[nodeIndex], renderable)

		im.accumulateBounds(geometry.bounds, world)
	}
	return nil
}

// accumulateBounds grows the asset bounds by the world-space corners of
// a renderable's local bounds.
func (im *importer) accumulateBounds(local math.Extents3D, world math.Mat4) {
	corners := [8]math.Vec3{
		{X: local.Min.X, Y: local.Min.Y, Z: local.Min.Z},
		{X: local.Max.X, Y: local.Min.Y, Z: local.Min.Z},
		{X: local.Min.X, Y: local.Max.Y, Z: local.Min.Z},
		{X: local.Max.X, Y: local.Max.Y, Z: local.Min.Z},
		{X: local.Min.X, Y: local.Min.Y, Z: local.Max.Z},
		{X: local.Max.X, Y: local.Min.Y, Z: local.Max.Z},
		{X: local.Min.X, Y: local.Max.Y, Z: local.Max.Z},
		{X: local.Max.X, Y: local.Max.Y, Z: local.Max.Z},
	}
	transformed := make([]math.Vec3, 0, 8)
	for _, c := range corners {
		transformed = append(transformed, c.Transform(world))
	}
	worldBounds := math.NewExtents3D(transformed)

	if !im.hasBounds {
		im.asset.bounds = worldBounds
		im.hasBounds = true
		return
	}
	im.asset.bounds = im.asset.bounds.Union(worldBounds)
}

// importCamera keeps the settings of the first camera referenced by a
// node, to be pushed onto a caller camera later.
func (im *importer) importCamera() {
	for _, node := range im.doc.Nodes {
		if node.Camera == nil {
			continue
		}
		if int(*node.Camera) >= len(im.doc.Cameras) {
			core.LogWarn("node '%s' references camera %d out of range, ignored", node.Name, *node.Camera)
			continue
		}
		camera := im.doc.Cameras[*node.Camera]

		switch {
		case camera.Perspective != nil:
			p := camera.Perspective
			aspect := float32(16.0 / 9.0)
			if p.AspectRatio != nil && *p.AspectRatio > 0 {
				aspect = float32(*p.AspectRatio)
			}
			far := float32(1000.0)
			if p.Zfar != nil && *p.Zfar > 0 {
				far = float32(*p.Zfar)
			}
			im.asset.camera = &cameraSettings{
				perspective: true,
				fovy:        float32(p.Yfov),
				aspectRatio: aspect,
				near:        float32(p.Znear),
				far:         far,
			}
		case camera.Orthographic != nil:
			o := camera.Orthographic
			im.asset.camera = &cameraSettings{
				xmag: float32(o.Xmag),
				ymag: float32(o.Ymag),
				near: float32(o.Znear),
				far:  float32(o.Zfar),
			}
		default:
			continue
		}
		return
	}
}

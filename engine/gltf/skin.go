package gltf

import (
	"fmt"

	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

// importSkins binds the skins referenced by mesh nodes onto the
// renderables created for those nodes. Bindings are shared between nodes
// referencing the same skin.
func (im *importer) importSkins() error {
	bindings := make(map[int]*renderer.SkinBinding)

	for nodeIndex, node := range im.doc.Nodes {
		if node.Skin == nil {
			continue
		}
		renderables := im.nodeRenderables[nodeIndex]
		if len(renderables) == 0 {
			continue
		}
		if int(*node.Skin) >= len(im.doc.Skins) {
			return fmt.Errorf("gltf: node '%s' references skin %d out of range", node.Name, *node.Skin)
		}

		binding, ok := bindings[int(*node.Skin)]
		if !ok {
			var err error
			if binding, err = im.buildSkinBinding(int(*node.Skin)); err != nil {
				return err
			}
			bindings[int(*node.Skin)] = binding
		}
		for _, r := range renderables {
			r.Skin = binding
		}
	}
	return nil
}

func (im *importer) buildSkinBinding(skinIndex int) (*renderer.SkinBinding, error) {
	skin := im.doc.Skins[skinIndex]

	name := skin.Name
	if name == "" {
		name = fmt.Sprintf("skin_%d", skinIndex)
	}

	binding := &renderer.SkinBinding{
		Name:   name,
		Joints: make([]renderer.Entity, 0, len(skin.Joints)),
	}
	for _, joint := range skin.Joints {
		if int(joint) >= len(im.nodeEntities) {
			return nil, fmt.Errorf("gltf: skin '%s' references joint node %d out of range", name, joint)
		}
		binding.Joints = append(binding.Joints, im.nodeEntities[joint])
	}

	binding.InverseBindMatrices = im.inverseBindMatrices(skin.InverseBindMatrices, name, len(skin.Joints))
	return binding, nil
}

// inverseBindMatrices reads the ibm accessor when its data is resident.
// An absent accessor means identity, and an external accessor falls back
// to identity as well since skinning cannot wait for a deferred range.
func (im *importer) inverseBindMatrices(accessorIndex *uint32, name string, jointCount int) []math.Mat4 {
	identity := func() []math.Mat4 {
		matrices := make([]math.Mat4, jointCount)
		for i := range matrices {
			matrices[i] = math.NewMat4Identity()
		}
		return matrices
	}

	if accessorIndex == nil {
		return identity()
	}
	if int(*accessorIndex) >= len(im.doc.Accessors) {
		core.LogWarn("skin '%s' references inverse bind accessor %d out of range, using identity", name, *accessorIndex)
		return identity()
	}
	acc := im.doc.Accessors[*accessorIndex]
	if !im.accessorResident(acc) {
		core.LogWarn("skin '%s' stores inverse bind matrices in an external buffer, using identity", name)
		return identity()
	}

	raw, err := modeler.ReadAccessor(im.doc, acc, nil)
	if err != nil {
		core.LogWarn("skin '%s': inverse bind matrices unreadable (%v), using identity", name, err)
		return identity()
	}
	values, ok := raw.([][4][4]float32)
	if !ok || len(values) < jointCount {
		core.LogWarn("skin '%s': inverse bind matrices have unexpected layout, using identity", name)
		return identity()
	}

	matrices := make([]math.Mat4, jointCount)
	for i := 0; i < jointCount; i++ {
		var m math.Mat4
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				m.Data[col*4+row] = values[i][col][row]
			}
		}
		matrices[i] = m
	}
	return matrices
}

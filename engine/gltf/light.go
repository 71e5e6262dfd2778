package gltf

import (
	"encoding/json"
	gomath "math"

	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

const extLightsPunctual = "KHR_lights_punctual"

type punctualLight struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Color     *[3]float64 `json:"color"`
	Intensity *float64    `json:"intensity"`
	Range     *float64    `json:"range"`
	Spot      *struct {
		InnerConeAngle *float64 `json:"innerConeAngle"`
		OuterConeAngle *float64 `json:"outerConeAngle"`
	} `json:"spot"`
}

// importLights materializes KHR_lights_punctual declarations onto the
// node entities that reference them.
func (im *importer) importLights() error {
	lights := im.documentLights()
	if lights == nil {
		return nil
	}

	for nodeIndex, node := range im.doc.Nodes {
		raw, ok := node.Extensions[extLightsPunctual]
		if !ok {
			continue
		}
		var ref struct {
			Light *int `json:"light"`
		}
		if payload := rawExtension(raw); payload == nil || json.Unmarshal(payload, &ref) != nil || ref.Light == nil {
			continue
		}
		if *ref.Light < 0 || *ref.Light >= len(lights) {
			core.LogWarn("node '%s' references light %d out of range, ignored", node.Name, *ref.Light)
			continue
		}

		light := im.buildLight(lights[*ref.Light], nodeIndex)
		im.engine.SetLight(im.nodeEntities[nodeIndex], light)
	}
	return nil
}

func (im *importer) documentLights() []punctualLight {
	raw, ok := im.doc.Extensions[extLightsPunctual]
	if !ok {
		return nil
	}
	payload := rawExtension(raw)
	if payload == nil {
		return nil
	}
	var ext struct {
		Lights []punctualLight `json:"lights"`
	}
	if err := json.Unmarshal(payload, &ext); err != nil {
		core.LogWarn("malformed %s extension ignored: %v", extLightsPunctual, err)
		return nil
	}
	return ext.Lights
}

func rawExtension(raw interface{}) []byte {
	switch v := raw.(type) {
	case json.RawMessage:
		return v
	case []byte:
		return v
	}
	return nil
}

func (im *importer) buildLight(src punctualLight, nodeIndex int) *renderer.Light {
	light := &renderer.Light{
		Name:        src.Name,
		Color:       math.NewVec3(1, 1, 1),
		Intensity:   1,
		WorldMatrix: im.nodeTransforms[nodeIndex].GetWorld(),
	}

	switch src.Type {
	case "directional":
		light.Type = renderer.LightDirectional
	case "spot":
		light.Type = renderer.LightSpot
	default:
		light.Type = renderer.LightPoint
	}

	if src.Color != nil {
		light.Color = math.NewVec3(float32(src.Color[0]), float32(src.Color[1]), float32(src.Color[2]))
	}
	if src.Intensity != nil {
		light.Intensity = float32(*src.Intensity)
	}
	if src.Range != nil {
		light.Range = float32(*src.Range)
	}
	if light.Type == renderer.LightSpot {
		light.OuterConeAngle = float32(gomath.Pi / 4)
		if src.Spot != nil {
			if src.Spot.InnerConeAngle != nil {
				light.InnerConeAngle = float32(*src.Spot.InnerConeAngle)
			}
			if src.Spot.OuterConeAngle != nil {
				light.OuterConeAngle = float32(*src.Spot.OuterConeAngle)
			}
		}
	}
	return light
}

package renderer

import "fmt"

const (
	/** @brief The default white texture name. */
	DEFAULT_WHITE_TEXTURE_NAME string = "default_white"
	/** @brief The default normal texture name. */
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
)

type TextureFlag int

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
	/** @brief Indicates if the texture storage is created on first upload instead of at creation. */
	TextureFlagDeferredStorage TextureFlag = 0x2
)

/** @brief Holds bit flags for textures. */
type TextureFlagBits uint8

/**
 * @brief Represents a texture owned by an Engine.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uint32
	/** @brief The texture Width. Zero until the first upload for deferred-storage textures. */
	Width uint32
	/** @brief The texture Height. Zero until the first upload for deferred-storage textures. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief The number of mip levels. */
	MipLevels uint8
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlagBits
	/** @brief The texture Generation. Incremented every time the data is written. */
	Generation uint32
	/** @brief The texture Name. */
	Name string

	engine *Engine
}

// SetImage uploads pixels into the given mip level and rectangle.
func (t *Texture) SetImage(level int, x, y, width, height uint32, pixels []uint8) error {
	if t.engine == nil {
		return fmt.Errorf("texture '%s' does not belong to a live engine", t.Name)
	}
	if level < 0 || level >= int(t.MipLevels) {
		return fmt.Errorf("texture '%s': mip level %d out of range (levels=%d)", t.Name, level, t.MipLevels)
	}
	levelWidth := max(t.Width>>uint(level), 1)
	levelHeight := max(t.Height>>uint(level), 1)
	if x+width > levelWidth || y+height > levelHeight {
		return fmt.Errorf("texture '%s': rect %dx%d+%d+%d exceeds level %d (%dx%d)",
			t.Name, width, height, x, y, level, levelWidth, levelHeight)
	}
	if want := uint64(width) * uint64(height) * uint64(t.ChannelCount); uint64(len(pixels)) < want {
		return fmt.Errorf("texture '%s': %d pixel bytes provided, %d required", t.Name, len(pixels), want)
	}
	if err := t.engine.backend.TextureWriteData(t, level, x, y, width, height, pixels); err != nil {
		return err
	}
	t.Generation++
	return nil
}

// Resize recreates the texture storage. Used to realize deferred-storage
// textures once the caller has decoded the external image.
func (t *Texture) Resize(width, height uint32, mipLevels uint8) error {
	if t.engine == nil {
		return fmt.Errorf("texture '%s' does not belong to a live engine", t.Name)
	}
	if width == 0 || height == 0 || mipLevels == 0 {
		return fmt.Errorf("texture '%s': resize to %dx%d with %d levels", t.Name, width, height, mipLevels)
	}
	if err := t.engine.backend.TextureResize(t, width, height); err != nil {
		return err
	}
	t.Width = width
	t.Height = height
	t.MipLevels = mipLevels
	t.Flags &^= TextureFlagBits(TextureFlagDeferredStorage)
	return nil
}

/** @brief A collection of texture uses */
type TextureUse int

const (
	/** @brief An unknown use. This is default, but should never actually be used. */
	TextureUseUnknown TextureUse = 0x00
	/** @brief The texture is used as a base color map. */
	TextureUseMapBaseColor TextureUse = 0x01
	/** @brief The texture is used as a metallic/roughness map. */
	TextureUseMapMetallicRoughness TextureUse = 0x02
	/** @brief The texture is used as a normal map. */
	TextureUseMapNormal TextureUse = 0x03
	/** @brief The texture is used as an occlusion map. */
	TextureUseMapOcclusion TextureUse = 0x04
	/** @brief The texture is used as an emissive map. */
	TextureUseMapEmissive TextureUse = 0x05
)

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)

type TextureRepeat int

const (
	TextureRepeatRepeat         TextureRepeat = 0x1
	TextureRepeatMirroredRepeat TextureRepeat = 0x2
	TextureRepeatClampToEdge    TextureRepeat = 0x3
)

/**
 * @brief A structure which maps a texture, use and
 * sampling properties.
 */
type TextureMap struct {
	/** @brief A pointer to a Texture. */
	Texture *Texture
	/** @brief The Use of the texture */
	Use TextureUse
	/** @brief Texture filtering mode for minification. */
	FilterMinify TextureFilter
	/** @brief Texture filtering mode for magnification. */
	FilterMagnify TextureFilter
	/** @brief The repeat mode on the U axis (or X, or S) */
	RepeatU TextureRepeat
	/** @brief The repeat mode on the V axis (or Y, or T) */
	RepeatV TextureRepeat
	/** @brief The texture coordinate set sampled by this map. */
	UVSet uint8
}

// DefaultTextures are the engine fallbacks bound wherever an asset does
// not provide a map of its own.
type DefaultTextures struct {
	White  *Texture
	Normal *Texture
}

func createDefaultTextures(e *Engine) (*DefaultTextures, error) {
	white, err := e.CreateTexture(DEFAULT_WHITE_TEXTURE_NAME, 1, 1, 4, 1)
	if err != nil {
		return nil, err
	}
	if err := white.SetImage(0, 0, 0, 1, 1, []uint8{255, 255, 255, 255}); err != nil {
		return nil, err
	}

	normal, err := e.CreateTexture(DEFAULT_NORMAL_TEXTURE_NAME, 1, 1, 4, 1)
	if err != nil {
		return nil, err
	}
	// Z-up tangent space normal.
	if err := normal.SetImage(0, 0, 0, 1, 1, []uint8{128, 128, 255, 255}); err != nil {
		return nil, err
	}

	return &DefaultTextures{White: white, Normal: normal}, nil
}

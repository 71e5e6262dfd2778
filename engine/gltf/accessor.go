package gltf

import (
	"github.com/spaghettifunk/gondola/engine/renderer"
)

/**
 * @brief A deferred load instruction for buffer data the loader did not
 * fetch. The caller reads the URI and pushes the byte range into the
 * destination buffer.
 *
 * Exactly one of VertexBuffer and IndexBuffer is set. For vertex data,
 * BufferIndex is the destination slot to pass to SetBufferAt.
 */
type BufferAccessor struct {
	/** @brief The uri of the source buffer, as it appears in the document. */
	URI string
	/** @brief The destination vertex buffer, if the range holds vertex data. */
	VertexBuffer *renderer.VertexBuffer
	/** @brief The destination index buffer, if the range holds index data. */
	IndexBuffer *renderer.IndexBuffer
	/** @brief The destination slot within the vertex buffer. -1 for index data. */
	BufferIndex int
	/** @brief The offset of the range within the source buffer. */
	ByteOffset uint32
	/** @brief The size of the range in bytes. */
	ByteSize uint32
}

/**
 * @brief A deferred load instruction for image data the loader did not
 * fetch. The caller decodes the URI and pushes pixels into the
 * destination texture.
 *
 * Width and Height are zero when the image dimensions are unknown until
 * decode; the whole image is then meant for the given level.
 */
type PixelAccessor struct {
	/** @brief The uri of the source image, as it appears in the document. */
	URI string
	/** @brief The destination texture. */
	Texture *renderer.Texture
	/** @brief The destination mip level. */
	Level int
	/** @brief The x offset of the destination rectangle. */
	X uint32
	/** @brief The y offset of the destination rectangle. */
	Y uint32
	/** @brief The width of the destination rectangle. */
	Width uint32
	/** @brief The height of the destination rectangle. */
	Height uint32
}

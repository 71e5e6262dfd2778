package renderer

// Backend realizes engine objects on a rendering API. The engine owns all
// bookkeeping; backends only move data.
type Backend interface {
	Initialize() error
	Shutdown() error
	TextureCreate(texture *Texture) error
	TextureResize(texture *Texture, width, height uint32) error
	TextureWriteData(texture *Texture, level int, x, y, width, height uint32, pixels []uint8) error
	TextureDestroy(texture *Texture)
	VertexBufferCreate(buffer *VertexBuffer) error
	VertexBufferWrite(buffer *VertexBuffer, slot int, data []uint8) error
	VertexBufferDestroy(buffer *VertexBuffer)
	IndexBufferCreate(buffer *IndexBuffer) error
	IndexBufferWrite(buffer *IndexBuffer, data []uint8) error
	IndexBufferDestroy(buffer *IndexBuffer)
	MaterialCreate(material *Material) error
	MaterialDestroy(material *Material)
}

// HeadlessBackend keeps uploaded data in host memory. It backs tools and
// tests that need the full object lifecycle without a GPU.
type HeadlessBackend struct {
	TexturePixels map[*Texture]uint64
	VertexData    map[*VertexBuffer]map[int][]uint8
	IndexData     map[*IndexBuffer][]uint8
	LiveObjects   int
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

func (hb *HeadlessBackend) Initialize() error {
	hb.TexturePixels = make(map[*Texture]uint64)
	hb.VertexData = make(map[*VertexBuffer]map[int][]uint8)
	hb.IndexData = make(map[*IndexBuffer][]uint8)
	hb.LiveObjects = 0
	return nil
}

func (hb *HeadlessBackend) Shutdown() error {
	hb.TexturePixels = nil
	hb.VertexData = nil
	hb.IndexData = nil
	return nil
}

func (hb *HeadlessBackend) TextureCreate(texture *Texture) error {
	hb.TexturePixels[texture] = 0
	hb.LiveObjects++
	return nil
}

func (hb *HeadlessBackend) TextureResize(texture *Texture, width, height uint32) error {
	// Storage is recreated on resize, previous uploads are gone.
	hb.TexturePixels[texture] = 0
	return nil
}

func (hb *HeadlessBackend) TextureWriteData(texture *Texture, level int, x, y, width, height uint32, pixels []uint8) error {
	hb.TexturePixels[texture] += uint64(len(pixels))
	return nil
}

func (hb *HeadlessBackend) TextureDestroy(texture *Texture) {
	delete(hb.TexturePixels, texture)
	hb.LiveObjects--
}

func (hb *HeadlessBackend) VertexBufferCreate(buffer *VertexBuffer) error {
	hb.VertexData[buffer] = make(map[int][]uint8)
	hb.LiveObjects++
	return nil
}

func (hb *HeadlessBackend) VertexBufferWrite(buffer *VertexBuffer, slot int, data []uint8) error {
	slots, ok := hb.VertexData[buffer]
	if !ok {
		slots = make(map[int][]uint8)
		hb.VertexData[buffer] = slots
	}
	slots[slot] = append([]uint8(nil), data...)
	return nil
}

func (hb *HeadlessBackend) VertexBufferDestroy(buffer *VertexBuffer) {
	delete(hb.VertexData, buffer)
	hb.LiveObjects--
}

func (hb *HeadlessBackend) IndexBufferCreate(buffer *IndexBuffer) error {
	hb.IndexData[buffer] = nil
	hb.LiveObjects++
	return nil
}

func (hb *HeadlessBackend) IndexBufferWrite(buffer *IndexBuffer, data []uint8) error {
	hb.IndexData[buffer] = append([]uint8(nil), data...)
	return nil
}

func (hb *HeadlessBackend) IndexBufferDestroy(buffer *IndexBuffer) {
	delete(hb.IndexData, buffer)
	hb.LiveObjects--
}

func (hb *HeadlessBackend) MaterialCreate(material *Material) error {
	hb.LiveObjects++
	return nil
}

func (hb *HeadlessBackend) MaterialDestroy(material *Material) {
	hb.LiveObjects--
}

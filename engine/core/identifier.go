package core

import "fmt"

// IdentifierPool hands out small integer handles and remembers the owner
// of each one. Released slots are reused before the pool grows.
type IdentifierPool struct {
	owners []interface{}
}

func NewIdentifierPool() *IdentifierPool {
	return &IdentifierPool{
		owners: make([]interface{}, 0, 100),
	}
}

func (p *IdentifierPool) Acquire(owner interface{}) uint32 {
	for i := range p.owners {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return uint32(i)
		}
	}

	// If here, no existing free slots. Push a new one.
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners) - 1)
}

func (p *IdentifierPool) Owner(id uint32) interface{} {
	if id >= uint32(len(p.owners)) {
		return nil
	}
	return p.owners[id]
}

func (p *IdentifierPool) Release(id uint32) error {
	if id >= uint32(len(p.owners)) {
		return fmt.Errorf("identifier pool: id '%d' out of range (max=%d). Nothing was done", id, len(p.owners))
	}

	// Just zero out the entry, making it available for use.
	p.owners[id] = nil
	return nil
}

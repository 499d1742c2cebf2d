package chart

import (
	"bytes"
	"io"
	"sync"
)

// Handle is a live rendering that owns resources until released.
type Handle interface {
	Release()
}

// Slot holds at most one live handle. Replacing it releases the previous handle before
// the new one is built.
type Slot struct {
	mu      sync.Mutex
	current Handle
}

// Replace releases the current handle, then builds and stores the next one. When build
// fails the slot is left empty.
func (s *Slot) Replace(build func() (Handle, error)) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
	h, err := build()
	if err != nil {
		return nil, err
	}
	s.current = h
	return h, nil
}

// Current returns the live handle, if any.
func (s *Slot) Current() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close releases the live handle.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
}

var bufferPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Image is a rendered chart held in a pooled buffer.
type Image struct {
	buf *bytes.Buffer
}

// Bytes returns a copy of the encoded image.
func (i *Image) Bytes() []byte {
	if i == nil || i.buf == nil {
		return nil
	}
	return bytes.Clone(i.buf.Bytes())
}

// Release returns the buffer to the pool. It is safe to call twice.
func (i *Image) Release() {
	if i.buf == nil {
		return
	}
	i.buf.Reset()
	bufferPool.Put(i.buf)
	i.buf = nil
}

// Canvases keeps one slot per chart key, mirroring one live chart per canvas.
type Canvases struct {
	mu    sync.Mutex
	slots map[string]*Slot
}

// NewCanvases constructs an empty registry.
func NewCanvases() *Canvases {
	return &Canvases{slots: make(map[string]*Slot)}
}

func (c *Canvases) slot(key string) *Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok {
		s = &Slot{}
		c.slots[key] = s
	}
	return s
}

// Render replaces the image for key with a fresh rendering and returns its bytes.
func (c *Canvases) Render(key string, draw func(io.Writer) error) ([]byte, error) {
	var out []byte
	_, err := c.slot(key).Replace(func() (Handle, error) {
		buf := bufferPool.Get().(*bytes.Buffer)
		buf.Reset()
		img := &Image{buf: buf}
		if err := draw(buf); err != nil {
			img.Release()
			return nil, err
		}
		out = img.Bytes()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Live reports how many canvases currently hold an image.
func (c *Canvases) Live() int {
	c.mu.Lock()
	slots := make([]*Slot, 0, len(c.slots))
	for _, s := range c.slots {
		slots = append(slots, s)
	}
	c.mu.Unlock()
	n := 0
	for _, s := range slots {
		if s.Current() != nil {
			n++
		}
	}
	return n
}

// Close releases every canvas.
func (c *Canvases) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		s.Close()
	}
}

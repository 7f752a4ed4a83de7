package styles

// Cache holds resolved properties per node, keyed by a stable node
// index assigned by the owning document pass. Invalidation is explicit:
// the transaction layer calls Invalidate for touched nodes (or Clear
// after structural edits) instead of relying on weak references.
type Cache struct {
	para map[int]ParaProps
	run  map[int]RunProps
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{para: map[int]ParaProps{}, run: map[int]RunProps{}}
}

// Paragraph returns the cached paragraph props for the node index,
// computing and storing them via resolve on a miss.
func (c *Cache) Paragraph(index int, resolve func() ParaProps) ParaProps {
	if p, ok := c.para[index]; ok {
		return p
	}
	p := resolve()
	c.para[index] = p
	return p
}

// Run returns the cached run props for the node index.
func (c *Cache) Run(index int, resolve func() RunProps) RunProps {
	if r, ok := c.run[index]; ok {
		return r
	}
	r := resolve()
	c.run[index] = r
	return r
}

// Invalidate drops cached entries for one node index.
func (c *Cache) Invalidate(index int) {
	delete(c.para, index)
	delete(c.run, index)
}

// Clear drops all cached entries; call after structural edits that
// renumber nodes.
func (c *Cache) Clear() {
	c.para = map[int]ParaProps{}
	c.run = map[int]RunProps{}
}

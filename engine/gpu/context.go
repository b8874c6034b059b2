package gpu

// Context is the graphics context handed to the render core: the device that creates objects,
// the queue that accepts work and the surface frames are presented to.
type Context struct {
	Device  Device
	Queue   Queue
	Surface Surface

	release func()
}

// NewContext assembles a Context from already created parts. The release func, when not nil,
// is called once by Release.
func NewContext(device Device, queue Queue, surface Surface, release func()) *Context {
	return &Context{
		Device:  device,
		Queue:   queue,
		Surface: surface,
		release: release,
	}
}

// Release tears down the backend objects the context owns.
func (c *Context) Release() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

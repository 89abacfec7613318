package ghost

// Runner binds a thing to a bus.  The thing's subscribers become the bus
// handlers and the thing's Run loop gets the runner's injector.
type Runner struct {
	thinger  Thinger
	bus      *Bus
	injector *Injector
}

func NewRunner(thinger Thinger) *Runner {
	var r Runner

	r.thinger = thinger

	r.bus = NewBus("runner bus", nil, nil)
	for path, handler := range thinger.Subscribers() {
		if !r.bus.Handle(path, handler) {
			logger.Warnf("Duplicate handler for path %q", path)
		}
	}
	r.injector = NewInjector("runner injector", r.bus)

	return &r
}

func (r *Runner) Bus() *Bus {
	return r.bus
}

// Run marks the thing as the owner of the loop and runs it.  Run does not
// return for a thing whose loop runs forever.
func (r *Runner) Run() {
	logger.Infof("Running %s", r.thinger)
	r.thinger.SetFlag(ThingFlagMetal)
	r.thinger.Run(r.injector)
}

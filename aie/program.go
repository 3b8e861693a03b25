package aie

// A Program is the code a tile runs. Run is called once, from the goroutine of
// the tile, after the array starts.
type Program interface {
	Run(t *Tile) error
}

// ProgramFunc adapts a function into a Program.
type ProgramFunc func(t *Tile) error

// Run calls f(t).
func (f ProgramFunc) Run(t *Tile) error {
	return f(t)
}

// NopProgram does nothing. Tiles without a program run it.
type NopProgram struct{}

// Run returns immediately.
func (NopProgram) Run(*Tile) error {
	return nil
}

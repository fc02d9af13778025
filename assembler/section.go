package assembler

// Section is the common shape of every assembler-owned section: it can
// always be asked to serialize itself once assembly has finished.
type Section interface {
	Name() string
	Bytes(asm *Assembler) ([]byte, error)
}

// SizedSection is a section that tracks a running byte cursor during
// assembly (code, data, types, imports). Labels created while it is the
// current section are owned by it, so its own offset within the final
// file can be added to each of them during the relocation pass.
type SizedSection interface {
	Section
	Size() int64
	AddLabel(*Label)
	Labels() []*Label
}

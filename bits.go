package transactron

// Pin is a single wire index into a Circuit's double-buffered state
// array. It is the unit of reference used throughout elaboration: a
// Signature's fields are widths, but once allocated, every bit of
// every method's argument and result record is addressed as a Pin.
type Pin int

// Bus is an ordered group of Pins, typically the individual bits of
// one multi-bit field of a method's input or output record.
type Bus []Pin

// Width reports the number of bits in a Bus.
func (b Bus) Width() int { return len(b) }

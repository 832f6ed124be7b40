package mcrt

// PhotonPacket is a Monte Carlo bundle of photons launched by a Source,
// consumed by the propagation subsystem.
//
// Fields are mutable only before propagation begins for a given packet;
// launch(pp, h) fully (re)initializes every field, so a packet value may
// be reused across history indices without leaking state between them.
type PhotonPacket struct {
	Position  Point3
	Direction Vector3 // unit
	Wavelength Real   // > 0
	Weight     Real   // >= 0; 0 marks an inactive/skipped packet
	Polarized  bool
	Stokes     Stokes

	HistoryIndex   int // unique in [0, N)
	SourceIndex    int // index into SourceSystem's source list
	SourceID       string
	EmitterVelocity Vector3 // bulk velocity of the emitter at launch time
}

// Reset zeroes a packet in place so it can be reused for a new history index.
func (pp *PhotonPacket) Reset() {
	*pp = PhotonPacket{}
}

// Deactivate marks a packet as a zero-weight, skipped packet while still
// recording which history index and source it would have belonged to, so
// even degenerate allocations keep the index-to-source mapping intact.
func (pp *PhotonPacket) Deactivate(h, sourceIndex int, sourceID string) {
	pp.Reset()
	pp.HistoryIndex = h
	pp.SourceIndex = sourceIndex
	pp.SourceID = sourceID
	pp.Weight = 0
}

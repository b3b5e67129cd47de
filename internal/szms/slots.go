package szms

// NextMeshIndex returns the slot that follows m. An instance mesh occupies
// one slot; a definition occupies its own slot plus one per trailing
// instance record.
func NextMeshIndex(slot int, m *Mesh) int {
	if m.IsInstance() {
		return slot + 1
	}
	return slot + m.InstanceCount() + 1
}

// localTransformLayout reports what follows a submesh record of the given
// kind: a matrix, or a 2-byte field with no matrix. The masks come straight
// from the game code and their meaning was never recovered.
func localTransformLayout(kind uint16) (hasMatrix bool, skip int) {
	if kind >= 0x10 {
		return true, 0
	}
	bit := uint32(1) << (kind & 0x7F)
	if bit&0xA001 != 0 {
		return true, 0
	}
	if bit&0x4100 != 0 {
		return false, 2
	}
	return true, 0
}

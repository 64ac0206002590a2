package domain

// Message is a decoded mDNS packet: the header fields carried through
// unchanged, plus the query and resource-record sections that survived
// inbound filtering. Answers/Authority/Additional are stored as one
// contiguous slice sliced into three sections, mirroring how the
// sections are laid out on the wire.
type Message struct {
	TransactionID uint16
	Flags         uint16

	Queries []Query

	RR         []ResourceRecord
	AnswerLen  int // RR[:AnswerLen] is the answer section
	NSLen      int // RR[AnswerLen:AnswerLen+NSLen] is the authority section
	AdditLen   int // the remainder is the additional section
}

// Answers, Authority and Additional slice Message.RR into its three
// sections.
func (m *Message) Answers() []ResourceRecord {
	return m.RR[:m.AnswerLen]
}

func (m *Message) Authority() []ResourceRecord {
	return m.RR[m.AnswerLen : m.AnswerLen+m.NSLen]
}

func (m *Message) Additional() []ResourceRecord {
	return m.RR[m.AnswerLen+m.NSLen : m.AnswerLen+m.NSLen+m.AdditLen]
}

// Reset empties m for reuse without releasing the backing arrays.
func (m *Message) Reset() {
	m.Queries = m.Queries[:0]
	m.RR = m.RR[:0]
	m.AnswerLen, m.NSLen, m.AdditLen = 0, 0, 0
}

package domain

// LoopbackAddress is the address every blocked hostname is redirected to.
const LoopbackAddress = "127.0.0.1"

// Entry is one hosts-file redirect mapping.
type Entry struct {
	Address string
	Host    Domain
}

// String renders the entry as a hosts-file line without terminator.
func (e Entry) String() string {
	return e.Address + " " + string(e.Host)
}

// EntriesFor expands raw domains into redirect entries in input order.
// Blank inputs are dropped; each domain yields its bare entry and, unless
// it already starts with www., a second entry for the www. host.
func EntriesFor(raw []string) []Entry {
	domains := NormalizeAll(raw)
	out := make([]Entry, 0, len(domains)*2)
	for _, d := range domains {
		for _, host := range Expand(d) {
			out = append(out, Entry{Address: LoopbackAddress, Host: host})
		}
	}
	return out
}

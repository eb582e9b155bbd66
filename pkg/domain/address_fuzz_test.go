package domain

import "testing"

// FuzzParseAddress checks that parsing never panics and that accepted addresses
// are canonical (re-parsing yields the same value).
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add(sampleAddress)
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("0xZZ")
	f.Add("'; DROP TABLE airlines;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAddress(input)
		if err != nil {
			return
		}
		again, err := ParseAddress(a.String())
		if err != nil {
			t.Fatalf("canonical address failed to re-parse: %v", err)
		}
		if again != a {
			t.Fatalf("re-parse changed address: %q != %q", again, a)
		}
	})
}

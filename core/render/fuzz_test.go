package render

import (
	"sort"
	"testing"

	"github.com/FocuswithJustin/versemark/core/usfm"
	"github.com/FocuswithJustin/versemark/core/xml"
)

// FuzzRenderBalanced decodes each byte pair as a (marker, value) token and
// checks the rendered output is always well formed.
func FuzzRenderBalanced(f *testing.F) {
	kinds := make([]usfm.MarkerKind, 0, len(dispatch)+1)
	for k := range dispatch {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	kinds = append(kinds, "zz")
	values := []string{"", "1", "12", "+ ", "+", "GEN EN_ULT", "a & b", "x~y", `"q"`, "<b>"}

	f.Add([]byte{0, 1, 2, 3, 4, 5})
	f.Add([]byte("chapter verse text"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		tokens := make([]usfm.Token, 0, len(data)/2)
		for i := 0; i+1 < len(data); i += 2 {
			tokens = append(tokens, usfm.Token{
				Kind:  kinds[int(data[i])%len(kinds)],
				Value: values[int(data[i+1])%len(values)],
			})
		}
		res := Render(tokens, quietOptions("gen"))
		if err := xml.CheckFragment(res.HTML); err != nil {
			t.Fatalf("CheckFragment() = %v\ntokens: %v\nhtml: %q", err, tokens, res.HTML)
		}
	})
}

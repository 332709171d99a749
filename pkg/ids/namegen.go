package ids

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// adjectives and nouns back GenerateWorkerName's adjective-noun-hex
// display names. No pack dependency provides a name generator; this is
// plain math/rand, matching the teacher's non-cryptographic randomness
// elsewhere (pkg/dns's resolver round-robin).
var adjectives = []string{
	"brave", "calm", "eager", "fuzzy", "gentle", "hasty", "jolly", "keen",
	"lively", "mellow", "nimble", "plucky", "quiet", "ragged", "sharp",
	"tidy", "vivid", "witty", "zesty", "bold",
}

var nouns = []string{
	"badger", "cobra", "falcon", "gecko", "heron", "ibis", "jackal",
	"kestrel", "lynx", "marmot", "newt", "otter", "panther", "quail",
	"raven", "stoat", "tapir", "urchin", "viper", "wombat",
}

// GenerateWorkerName returns an "adjective-noun-hex" display name, e.g.
// "brave-otter-a1b2c3".
func GenerateWorkerName() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s-%s", adjectives[rand.Intn(len(adjectives))], nouns[rand.Intn(len(nouns))], raw[:6])
}

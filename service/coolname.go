package service

import "hash/fnv"

// coolName derives a friendly, human-memorable display name from a
// service's id, purely for log lines and error messages. It is
// deterministic so the same id always gets the same name across
// processes, which makes grepping logs for one service easier than a raw
// uuid would.
//
// No third-party word-list generator in the available dependency set
// covers this; the word lists below are short and fixed on purpose; this
// is cosmetic, not part of the wire protocol.
func coolName(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum32()

	adjective := coolAdjectives[int(sum)%len(coolAdjectives)]
	noun := coolNouns[int(sum/uint32(len(coolAdjectives)))%len(coolNouns)]
	return adjective + "-" + noun
}

var coolAdjectives = []string{
	"amber", "brisk", "calm", "daring", "eager", "faint", "gentle", "hollow",
	"ivory", "jovial", "keen", "lucid", "mellow", "nimble", "ochre", "placid",
	"quiet", "rustic", "sturdy", "tidy", "umber", "vivid", "wry", "zealous",
}

var coolNouns = []string{
	"badger", "cobra", "dune", "egret", "falcon", "glacier", "heron", "ibis",
	"jackal", "kestrel", "lynx", "marmot", "newt", "osprey", "puffin", "quokka",
	"raven", "swift", "tapir", "urchin", "vole", "wombat", "xerus", "yak",
}

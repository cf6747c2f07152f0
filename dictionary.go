package rawflate

// trimDictionary keeps only the tail wsize bytes of dict, matching
// zlib's deflateSetDictionary/inflateSetDictionary behavior of using the
// most recent W bytes when a longer dictionary is supplied (spec §6,
// set_dictionary).
func trimDictionary(dict []byte, wsize int) []byte {
	if len(dict) <= wsize {
		return dict
	}
	return dict[len(dict)-wsize:]
}

// seedWindow preloads w with dict as if it had just been produced,
// positioning strstart after it and priming the hash chains, the shared
// core of Writer.SetDictionary. (Reader.SetDictionary instead copies
// dict directly into its output history, an outWindow; see inflate.go.)
func seedWindow(w *window, dict []byte) {
	dict = trimDictionary(dict, w.size)
	w.fill(dict)
	w.strstart = len(dict)
	w.blockStart = w.strstart
	w.insert = w.strstart
	if w.insert > w.size-minLookahead {
		w.insert = w.size - minLookahead
	}
	if w.insert < 0 {
		w.insert = 0
	}
	w.lookahead = 0
	w.insertPending()
}
